// Package plataform lists the recorded game sessions of a token's account.
package plataform

import (
	"context"

	"backend-breathstats/internal/shared/apperr"
	"backend-breathstats/internal/shared/params"
	"backend-breathstats/internal/store"
)

type Service struct {
	sessions store.SessionStore
}

func NewService(sessions store.SessionStore) *Service {
	return &Service{sessions: sessions}
}

// ParseQuery builds a session query from list parameters, scoped to gameToken.
func ParseQuery(q map[string]string, gameToken string) (store.SessionQuery, error) {
	pacientID, err := params.OptionalID(q, "pacientId")
	if err != nil {
		return store.SessionQuery{}, err
	}
	stageID, err := params.OptionalInt(q, "stageId")
	if err != nil {
		return store.SessionQuery{}, err
	}
	sort, err := params.SortOrder(q[params.Sort])
	if err != nil {
		return store.SessionQuery{}, err
	}
	page, err := params.Page(q)
	if err != nil {
		return store.SessionQuery{}, err
	}
	return store.SessionQuery{
		PacientID: pacientID,
		Phase:     q["phase"],
		Level:     q["level"],
		StageID:   stageID,
		GameToken: gameToken,
		Sort:      sort,
		Page:      page,
	}, nil
}

func (s *Service) List(ctx context.Context, q store.SessionQuery) ([]store.SessionRecord, error) {
	sessions, err := s.sessions.FindSessions(ctx, q)
	if err != nil {
		return nil, apperr.Upstream("session lookup failed", err)
	}
	if sessions == nil {
		sessions = []store.SessionRecord{}
	}
	return sessions, nil
}
