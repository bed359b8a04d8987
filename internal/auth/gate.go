// Package auth resolves the opaque game token sent by game clients into the
// account that owns it.
package auth

import (
	"context"
	"errors"

	"backend-breathstats/internal/shared/apperr"
	"backend-breathstats/internal/shared/envelope"
	"backend-breathstats/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ErrMissingToken = apperr.Unauthorized(envelope.MsgGameTokenHeaderNotFound)
	ErrInvalidToken = apperr.Unauthorized(envelope.MsgInvalidToken)
)

var gateDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "breathstats",
	Subsystem: "gate",
	Name:      "decisions_total",
	Help:      "Game token authorization decisions by outcome.",
}, []string{"outcome"})

// Identity is the account a game token resolved to.
type Identity struct {
	AccountID string `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	GameToken string `json:"-"`
}

type Gate struct {
	accounts store.AccountStore
}

func NewGate(accounts store.AccountStore) *Gate {
	return &Gate{accounts: accounts}
}

// Authorize looks up the account whose game token equals token exactly.
// Store failures are reported as upstream errors, never as an invalid token.
func (g *Gate) Authorize(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		gateDecisions.WithLabelValues("missing").Inc()
		return Identity{}, ErrMissingToken
	}

	acc, err := g.accounts.FindAccountByGameToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			gateDecisions.WithLabelValues("invalid").Inc()
			return Identity{}, ErrInvalidToken
		}
		gateDecisions.WithLabelValues("error").Inc()
		return Identity{}, apperr.Upstream("account lookup failed", err)
	}

	gateDecisions.WithLabelValues("authorized").Inc()
	return Identity{
		AccountID: acc.ID,
		Username:  acc.Username,
		Role:      acc.Role,
		GameToken: acc.GameToken,
	}, nil
}
