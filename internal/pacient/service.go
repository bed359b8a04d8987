// Package pacient serves the pacient account owned by a game token.
package pacient

import (
	"context"
	"errors"

	"backend-breathstats/internal/shared/apperr"
	"backend-breathstats/internal/shared/envelope"
	"backend-breathstats/internal/store"
)

type Service struct {
	pacients store.PacientStore
}

func NewService(pacients store.PacientStore) *Service {
	return &Service{pacients: pacients}
}

// GetPacient returns the pacient with id when it belongs to gameToken's account.
func (s *Service) GetPacient(ctx context.Context, id, gameToken string) (store.Pacient, error) {
	p, err := s.pacients.FindPacient(ctx, id, gameToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Pacient{}, apperr.NotFound(envelope.MsgNotFound)
		}
		return store.Pacient{}, apperr.Upstream("pacient lookup failed", err)
	}
	return p, nil
}
