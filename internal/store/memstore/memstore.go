// Package memstore is an in-process store.Store used for local runs and tests.
package memstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"backend-breathstats/internal/store"
)

type Store struct {
	mu           sync.RWMutex
	accounts     []store.Account
	pacients     []store.Pacient
	sessions     []store.SessionRecord
	devices      []store.DeviceRecord
	minigames    []store.MinigameOverview
	calibrations []store.CalibrationOverview
	err          error
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// FailWith makes every subsequent call return err; nil restores normal behaviour.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *Store) AddAccount(a store.Account) store.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = store.NewID()
	}
	s.accounts = append(s.accounts, a)
	return a
}

func (s *Store) AddPacient(p store.Pacient) store.Pacient {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = store.NewID()
	}
	s.pacients = append(s.pacients, p)
	return p
}

func (s *Store) AddSession(r store.SessionRecord) store.SessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = store.NewID()
	}
	s.sessions = append(s.sessions, r)
	return r
}

func (s *Store) AddDevice(d store.DeviceRecord) store.DeviceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == "" {
		d.ID = store.NewID()
	}
	s.devices = append(s.devices, d)
	return d
}

func (s *Store) FindAccountByGameToken(_ context.Context, token string) (store.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return store.Account{}, s.err
	}
	for _, a := range s.accounts {
		if a.GameToken == token {
			return a, nil
		}
	}
	return store.Account{}, store.ErrNotFound
}

func (s *Store) FindPacient(_ context.Context, id, gameToken string) (store.Pacient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return store.Pacient{}, s.err
	}
	for _, p := range s.pacients {
		if p.ID == id && p.GameToken == gameToken {
			return p, nil
		}
	}
	return store.Pacient{}, store.ErrNotFound
}

func (s *Store) FindSessions(_ context.Context, q store.SessionQuery) ([]store.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}

	var out []store.SessionRecord
	for _, r := range s.sessions {
		if q.PacientID != "" && r.PacientID != q.PacientID {
			continue
		}
		if q.Phase != "" && r.Phase != q.Phase {
			continue
		}
		if q.Level != "" && r.Level != q.Level {
			continue
		}
		if q.StageID != nil && r.StageID != *q.StageID {
			continue
		}
		if q.GameToken != "" && r.GameToken != q.GameToken {
			continue
		}
		if !q.CreatedAt.Contains(r.CreatedAt) {
			continue
		}
		out = append(out, r)
	}

	switch q.Sort {
	case store.SortAscending:
		slices.SortStableFunc(out, func(a, b store.SessionRecord) int { return a.CreatedAt.Compare(b.CreatedAt) })
	case store.SortDescending:
		slices.SortStableFunc(out, func(a, b store.SessionRecord) int { return b.CreatedAt.Compare(a.CreatedAt) })
	}
	return store.Paginate(out, q.Page), nil
}

func (s *Store) FindDevices(_ context.Context, ids []string) ([]store.DeviceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []store.DeviceRecord
	for _, d := range s.devices {
		if slices.Contains(ids, d.ID) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *Store) InsertDevice(_ context.Context, d *store.DeviceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	d.ID = store.NewID()
	d.CreatedAt = time.Now().UTC()
	s.devices = append(s.devices, *d)
	return nil
}

func (s *Store) FindMinigameOverviews(_ context.Context, q store.MinigameQuery) ([]store.MinigameOverview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []store.MinigameOverview
	for _, m := range s.minigames {
		if q.PacientID != "" && m.PacientID != q.PacientID {
			continue
		}
		if q.MinigameName != "" && m.MinigameName != q.MinigameName {
			continue
		}
		if q.RespiratoryExercise != "" && m.RespiratoryExercise != q.RespiratoryExercise {
			continue
		}
		if q.GameToken != "" && m.GameToken != q.GameToken {
			continue
		}
		out = append(out, m)
	}
	return store.Paginate(out, q.Page), nil
}

func (s *Store) InsertMinigameOverview(_ context.Context, m *store.MinigameOverview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	m.ID = store.NewID()
	m.CreatedAt = time.Now().UTC()
	s.minigames = append(s.minigames, *m)
	return nil
}

func (s *Store) FindCalibrationOverviews(_ context.Context, q store.CalibrationQuery) ([]store.CalibrationOverview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []store.CalibrationOverview
	for _, c := range s.calibrations {
		if q.ID != "" && c.ID != q.ID {
			continue
		}
		if q.GameDevice != "" && c.GameDevice != q.GameDevice {
			continue
		}
		if q.CalibrationExercise != "" && c.CalibrationExercise != q.CalibrationExercise {
			continue
		}
		if q.GameToken != "" && c.GameToken != q.GameToken {
			continue
		}
		out = append(out, c)
	}
	return store.Paginate(out, q.Page), nil
}

func (s *Store) InsertCalibrationOverview(_ context.Context, c *store.CalibrationOverview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	c.ID = store.NewID()
	c.CreatedAt = time.Now().UTC()
	s.calibrations = append(s.calibrations, *c)
	return nil
}

func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Store) Close(context.Context) error { return nil }
