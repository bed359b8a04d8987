package auth

import (
	"context"
	"errors"
	"testing"

	"backend-breathstats/internal/shared/apperr"
	"backend-breathstats/internal/store"
	"backend-breathstats/internal/store/memstore"
)

func TestAuthorize(t *testing.T) {
	mem := memstore.New()
	acc := mem.AddAccount(store.Account{Username: "clinic", Role: "Pacient", GameToken: "tok-1"})
	gate := NewGate(mem)

	identity, err := gate.Authorize(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if identity.AccountID != acc.ID || identity.GameToken != "tok-1" || identity.Username != "clinic" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestAuthorizeRejections(t *testing.T) {
	mem := memstore.New()
	mem.AddAccount(store.Account{GameToken: "tok-1"})
	gate := NewGate(mem)

	if _, err := gate.Authorize(context.Background(), ""); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected missing token, got %v", err)
	}
	// exact match only
	for _, token := range []string{"TOK-1", "tok-1 ", "tok"} {
		if _, err := gate.Authorize(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("token %q: expected invalid token, got %v", token, err)
		}
	}
}

func TestAuthorizeStoreFailureIsUpstream(t *testing.T) {
	mem := memstore.New()
	cause := errors.New("connection refused")
	mem.FailWith(cause)

	_, err := NewGate(mem).Authorize(context.Background(), "tok-1")
	if apperr.KindOf(err) != apperr.KindUpstream {
		t.Fatalf("expected upstream kind, got %v", err)
	}
	if errors.Is(err, ErrInvalidToken) {
		t.Fatalf("store failure must not read as an invalid token")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be wrapped")
	}
}

func TestAuthorizeSkipsStoreOnEmptyToken(t *testing.T) {
	mem := memstore.New()
	mem.FailWith(errors.New("must not be called"))

	if _, err := NewGate(mem).Authorize(context.Background(), ""); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected missing token, got %v", err)
	}
}
