package pacient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"backend-breathstats/internal/auth"
	"backend-breathstats/internal/shared/apperr"
	"backend-breathstats/internal/shared/envelope"
	"backend-breathstats/internal/store"
	"backend-breathstats/internal/store/memstore"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const pacientID = "507f191e810c19729de860ea"

func newApp(mem *memstore.Store) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: envelope.ErrorHandler(zap.NewNop())})
	RegisterRoutes(app.Group("/pacients"), NewService(mem), auth.GameTokenMiddleware(auth.NewGate(mem)))
	return app
}

func get(t *testing.T, app *fiber.App, target, token string) (int, envelope.Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set(auth.HeaderGameToken, token)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var body envelope.Response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.StatusCode, body
}

func TestGetPacient(t *testing.T) {
	mem := memstore.New()
	mem.AddAccount(store.Account{GameToken: "tok-1"})
	mem.AddAccount(store.Account{GameToken: "tok-2"})
	mem.AddPacient(store.Pacient{ID: pacientID, Name: "Ana", GameToken: "tok-1"})
	app := newApp(mem)

	status, body := get(t, app, "/pacients/"+pacientID, "tok-1")
	if status != http.StatusOK || !body.Success {
		t.Fatalf("expected 200, got %d %+v", status, body)
	}
	data, _ := body.Data.(map[string]any)
	if data["name"] != "Ana" || data["_id"] != pacientID {
		t.Fatalf("unexpected pacient: %+v", body.Data)
	}
	if _, leaked := data["_gameToken"]; leaked {
		t.Fatalf("game token must not be rendered")
	}

	// owned by another account
	status, body = get(t, app, "/pacients/"+pacientID, "tok-2")
	if status != http.StatusNotFound || body.Success || !body.Authorized {
		t.Fatalf("expected 404, got %d %+v", status, body)
	}
}

func TestGetPacientRejections(t *testing.T) {
	mem := memstore.New()
	mem.AddAccount(store.Account{GameToken: "tok-1"})
	app := newApp(mem)

	status, body := get(t, app, "/pacients/"+pacientID, "")
	if status != http.StatusForbidden || body.Message != envelope.MsgGameTokenHeaderNotFound {
		t.Fatalf("expected 403 missing header, got %d %+v", status, body)
	}

	// id shape is checked before the token is resolved
	status, body = get(t, app, "/pacients/abc123", "unknown")
	if status != http.StatusBadRequest || body.Authorized {
		t.Fatalf("expected 400, got %d %+v", status, body)
	}

	status, body = get(t, app, "/pacients/"+pacientID, "unknown")
	if status != http.StatusForbidden || body.Message != envelope.MsgInvalidToken {
		t.Fatalf("expected 403 invalid token, got %d %+v", status, body)
	}
}

func TestGetPacientStoreFailure(t *testing.T) {
	_, err := NewService(failingPacients{}).GetPacient(context.Background(), pacientID, "tok-1")
	if apperr.KindOf(err) != apperr.KindUpstream {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

type failingPacients struct{}

func (failingPacients) FindPacient(context.Context, string, string) (store.Pacient, error) {
	return store.Pacient{}, errors.New("timeout")
}
