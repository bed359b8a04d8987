// Package pgstore implements store.Store on PostgreSQL, keeping each document
// as JSONB next to the columns it is filtered by.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend-breathstats/internal/db"
	"backend-breathstats/internal/store"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

const (
	tableAccounts     = "useraccounts"
	tablePacients     = "pacients"
	tableSessions     = "plataform_overviews"
	tableDevices      = "flow_data_devices"
	tableMinigames    = "minigame_overviews"
	tableCalibrations = "calibration_overviews"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Store struct {
	pool db.Pool
}

var _ store.Store = (*Store)(nil)

func New(pool db.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) FindAccountByGameToken(ctx context.Context, token string) (store.Account, error) {
	query, args, err := psql.Select("id", "game_token", "created_at", "doc").
		From(tableAccounts).
		Where(sq.Eq{"game_token": token}).
		Limit(1).
		ToSql()
	if err != nil {
		return store.Account{}, err
	}

	var (
		acc           store.Account
		id, gameToken string
		createdAt     time.Time
		doc           []byte
	)
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&id, &gameToken, &createdAt, &doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Account{}, store.ErrNotFound
		}
		return store.Account{}, err
	}
	if err := decode(doc, &acc); err != nil {
		return store.Account{}, err
	}
	acc.ID, acc.GameToken, acc.CreatedAt = id, gameToken, createdAt
	return acc, nil
}

func (s *Store) FindPacient(ctx context.Context, id, gameToken string) (store.Pacient, error) {
	query, args, err := psql.Select("id", "game_token", "created_at", "doc").
		From(tablePacients).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"game_token": gameToken}).
		Limit(1).
		ToSql()
	if err != nil {
		return store.Pacient{}, err
	}

	var (
		p         store.Pacient
		doc       []byte
		pid, tok  string
		createdAt time.Time
	)
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&pid, &tok, &createdAt, &doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Pacient{}, store.ErrNotFound
		}
		return store.Pacient{}, err
	}
	if err := decode(doc, &p); err != nil {
		return store.Pacient{}, err
	}
	p.ID, p.GameToken, p.CreatedAt = pid, tok, createdAt
	return p, nil
}

func (s *Store) FindSessions(ctx context.Context, q store.SessionQuery) ([]store.SessionRecord, error) {
	query, args, err := sessionSelect(q).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.SessionRecord
	for rows.Next() {
		var (
			rec       store.SessionRecord
			id, tok   string
			createdAt time.Time
			doc       []byte
		)
		if err := rows.Scan(&id, &tok, &createdAt, &doc); err != nil {
			return nil, err
		}
		if err := decode(doc, &rec); err != nil {
			return nil, err
		}
		rec.ID, rec.GameToken, rec.CreatedAt = id, tok, createdAt
		out = append(out, rec)
	}
	return out, rows.Err()
}

type flowSampleJSON struct {
	FlowValue *float64  `json:"flowValue"`
	Timestamp time.Time `json:"timestamp"`
}

type deviceJSON struct {
	DeviceName string           `json:"deviceName"`
	FlowData   []flowSampleJSON `json:"flowData"`
}

func (s *Store) FindDevices(ctx context.Context, ids []string) ([]store.DeviceRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := psql.Select("id", "created_at", "doc").
		From(tableDevices).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.DeviceRecord
	for rows.Next() {
		var (
			id        string
			createdAt time.Time
			doc       []byte
			raw       deviceJSON
		)
		if err := rows.Scan(&id, &createdAt, &doc); err != nil {
			return nil, err
		}
		if err := decode(doc, &raw); err != nil {
			return nil, err
		}
		rec := store.DeviceRecord{ID: id, DeviceName: raw.DeviceName, CreatedAt: createdAt, FlowData: make([]store.FlowSample, 0, len(raw.FlowData))}
		for i, sample := range raw.FlowData {
			if sample.FlowValue == nil {
				return nil, fmt.Errorf("%w: device %s flowData[%d]: flowValue is missing", store.ErrMalformedDocument, id, i)
			}
			rec.FlowData = append(rec.FlowData, store.FlowSample{FlowValue: *sample.FlowValue, Timestamp: sample.Timestamp})
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) InsertDevice(ctx context.Context, d *store.DeviceRecord) error {
	d.ID = store.NewID()
	d.CreatedAt = time.Now().UTC()
	doc, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.exec(ctx, psql.Insert(tableDevices).
		Columns("id", "doc", "created_at").
		Values(d.ID, doc, d.CreatedAt))
}

func (s *Store) FindMinigameOverviews(ctx context.Context, q store.MinigameQuery) ([]store.MinigameOverview, error) {
	b := psql.Select("id", "game_token", "created_at", "doc").From(tableMinigames)
	b = whereIf(b, "pacient_id", q.PacientID)
	b = whereIf(b, "minigame_name", q.MinigameName)
	b = whereIf(b, "respiratory_exercise", q.RespiratoryExercise)
	b = whereIf(b, "game_token", q.GameToken)
	b = paginate(b.OrderBy("created_at DESC"), q.Page)

	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.MinigameOverview
	for rows.Next() {
		var (
			m         store.MinigameOverview
			id, tok   string
			createdAt time.Time
			doc       []byte
		)
		if err := rows.Scan(&id, &tok, &createdAt, &doc); err != nil {
			return nil, err
		}
		if err := decode(doc, &m); err != nil {
			return nil, err
		}
		m.ID, m.GameToken, m.CreatedAt = id, tok, createdAt
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) InsertMinigameOverview(ctx context.Context, m *store.MinigameOverview) error {
	m.ID = store.NewID()
	m.CreatedAt = time.Now().UTC()
	doc, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return s.exec(ctx, psql.Insert(tableMinigames).
		Columns("id", "pacient_id", "minigame_name", "respiratory_exercise", "game_token", "doc", "created_at").
		Values(m.ID, m.PacientID, m.MinigameName, m.RespiratoryExercise, m.GameToken, doc, m.CreatedAt))
}

func (s *Store) FindCalibrationOverviews(ctx context.Context, q store.CalibrationQuery) ([]store.CalibrationOverview, error) {
	b := psql.Select("id", "game_token", "created_at", "doc").From(tableCalibrations)
	b = whereIf(b, "id", q.ID)
	b = whereIf(b, "game_device", q.GameDevice)
	b = whereIf(b, "calibration_exercise", q.CalibrationExercise)
	b = whereIf(b, "game_token", q.GameToken)
	b = paginate(b.OrderBy("created_at DESC"), q.Page)

	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.CalibrationOverview
	for rows.Next() {
		var (
			c         store.CalibrationOverview
			id, tok   string
			createdAt time.Time
			doc       []byte
		)
		if err := rows.Scan(&id, &tok, &createdAt, &doc); err != nil {
			return nil, err
		}
		if err := decode(doc, &c); err != nil {
			return nil, err
		}
		c.ID, c.GameToken, c.CreatedAt = id, tok, createdAt
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) InsertCalibrationOverview(ctx context.Context, c *store.CalibrationOverview) error {
	c.ID = store.NewID()
	c.CreatedAt = time.Now().UTC()
	doc, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.exec(ctx, psql.Insert(tableCalibrations).
		Columns("id", "pacient_id", "game_device", "calibration_exercise", "game_token", "doc", "created_at").
		Values(c.ID, c.PacientID, c.GameDevice, c.CalibrationExercise, c.GameToken, doc, c.CreatedAt))
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close(context.Context) error {
	s.pool.Close()
	return nil
}

func (s *Store) exec(ctx context.Context, b sq.InsertBuilder) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, query, args...)
	return err
}

func sessionSelect(q store.SessionQuery) sq.SelectBuilder {
	b := psql.Select("id", "game_token", "created_at", "doc").From(tableSessions)
	b = whereIf(b, "pacient_id", q.PacientID)
	b = whereIf(b, "phase", q.Phase)
	b = whereIf(b, "level", q.Level)
	b = whereIf(b, "game_token", q.GameToken)
	if q.StageID != nil {
		b = b.Where(sq.Eq{"stage_id": *q.StageID})
	}
	if q.CreatedAt.From != nil {
		b = b.Where(sq.GtOrEq{"created_at": *q.CreatedAt.From})
	}
	if q.CreatedAt.To != nil {
		b = b.Where(sq.LtOrEq{"created_at": *q.CreatedAt.To})
	}
	switch q.Sort {
	case store.SortAscending:
		b = b.OrderBy("created_at ASC")
	case store.SortDescending:
		b = b.OrderBy("created_at DESC")
	}
	return paginate(b, q.Page)
}

func whereIf(b sq.SelectBuilder, column, value string) sq.SelectBuilder {
	if value == "" {
		return b
	}
	return b.Where(sq.Eq{column: value})
}

func paginate(b sq.SelectBuilder, p store.Page) sq.SelectBuilder {
	if p.Skip > 0 {
		b = b.Offset(uint64(p.Skip))
	}
	if p.Limit > 0 {
		b = b.Limit(uint64(p.Limit))
	}
	return b
}

func decode(doc []byte, v any) error {
	if err := json.Unmarshal(doc, v); err != nil {
		return fmt.Errorf("%w: %v", store.ErrMalformedDocument, err)
	}
	return nil
}
