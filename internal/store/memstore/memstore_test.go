package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend-breathstats/internal/store"
)

func TestFindSessionsFiltersAndSorts(t *testing.T) {
	s := New()
	day := func(d int) time.Time { return time.Date(2024, 1, d, 12, 0, 0, 0, time.UTC) }
	s.AddSession(store.SessionRecord{PacientID: "p1", Phase: "1", CreatedAt: day(12), GameToken: "tok"})
	s.AddSession(store.SessionRecord{PacientID: "p1", Phase: "2", CreatedAt: day(10), GameToken: "tok"})
	s.AddSession(store.SessionRecord{PacientID: "p2", Phase: "1", CreatedAt: day(11), GameToken: "other"})

	got, err := s.FindSessions(context.Background(), store.SessionQuery{PacientID: "p1", Sort: store.SortAscending})
	if err != nil {
		t.Fatalf("find sessions: %v", err)
	}
	if len(got) != 2 || !got[0].CreatedAt.Equal(day(10)) {
		t.Fatalf("unexpected sessions: %+v", got)
	}

	got, _ = s.FindSessions(context.Background(), store.SessionQuery{Phase: "1", GameToken: "tok"})
	if len(got) != 1 || got[0].PacientID != "p1" {
		t.Fatalf("expected token scoped phase match, got %+v", got)
	}

	from := day(11)
	got, _ = s.FindSessions(context.Background(), store.SessionQuery{CreatedAt: store.TimeRange{From: &from}, Sort: store.SortDescending})
	if len(got) != 2 || !got[0].CreatedAt.Equal(day(12)) {
		t.Fatalf("unexpected range result: %+v", got)
	}
}

func TestAccountAndPacientLookups(t *testing.T) {
	s := New()
	acc := s.AddAccount(store.Account{Username: "clinic", GameToken: "tok"})
	p := s.AddPacient(store.Pacient{Name: "Ana", GameToken: "tok"})

	found, err := s.FindAccountByGameToken(context.Background(), "tok")
	if err != nil || found.ID != acc.ID {
		t.Fatalf("expected account, got %v", err)
	}
	if _, err := s.FindAccountByGameToken(context.Background(), "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := s.FindPacient(context.Background(), p.ID, "tok"); err != nil {
		t.Fatalf("find pacient: %v", err)
	}
	if _, err := s.FindPacient(context.Background(), p.ID, "other"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected pacient scoped by token")
	}
}

func TestInsertsAndFailures(t *testing.T) {
	s := New()
	ctx := context.Background()

	d := store.DeviceRecord{DeviceName: store.DevicePitaco}
	if err := s.InsertDevice(ctx, &d); err != nil || d.ID == "" {
		t.Fatalf("insert device: %v", err)
	}
	devices, _ := s.FindDevices(ctx, []string{d.ID, "missing"})
	if len(devices) != 1 {
		t.Fatalf("expected one device")
	}

	m := store.MinigameOverview{PacientID: "p1", MinigameName: "CakeGame", GameToken: "tok"}
	if err := s.InsertMinigameOverview(ctx, &m); err != nil {
		t.Fatalf("insert minigame: %v", err)
	}
	mini, _ := s.FindMinigameOverviews(ctx, store.MinigameQuery{MinigameName: "CakeGame", GameToken: "tok"})
	if len(mini) != 1 {
		t.Fatalf("expected one minigame overview")
	}

	c := store.CalibrationOverview{PacientID: "p1", GameDevice: store.DeviceCinta, GameToken: "tok"}
	if err := s.InsertCalibrationOverview(ctx, &c); err != nil {
		t.Fatalf("insert calibration: %v", err)
	}
	cals, _ := s.FindCalibrationOverviews(ctx, store.CalibrationQuery{ID: c.ID, GameToken: "tok"})
	if len(cals) != 1 {
		t.Fatalf("expected one calibration overview")
	}

	boom := errors.New("boom")
	s.FailWith(boom)
	if err := s.Ping(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected ping failure")
	}
	if _, err := s.FindSessions(ctx, store.SessionQuery{}); !errors.Is(err, boom) {
		t.Fatalf("expected find failure")
	}
	s.FailWith(nil)
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("expected recovery")
	}
}
