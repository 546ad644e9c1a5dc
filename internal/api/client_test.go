package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"bizarre-client/internal/model"
	"bizarre-client/pkg/apperrors"
	"bizarre-client/pkg/logger"
)

func init() {
	logger.InitLogger("release")
}

func countingServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestNoTokenSkipsNetwork(t *testing.T) {
	server, calls := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
	})

	ctx := context.Background()
	auth := NewAuthClient(server.URL, "")
	game := NewGameClient(server.URL, "")

	if user, err := auth.Me(ctx); user != nil || err != nil {
		t.Fatalf("Me with no token: got %v, %v", user, err)
	}
	if err := auth.Logout(ctx); err != nil {
		t.Fatalf("Logout with no token: %v", err)
	}
	if detail, err := game.GameDetail(ctx, 1); detail != nil || err != nil {
		t.Fatalf("GameDetail with no token: got %v, %v", detail, err)
	}
	if snapshot, err := game.Create(ctx, "classic"); snapshot != nil || err != nil {
		t.Fatalf("Create with no token: got %v, %v", snapshot, err)
	}
	if err := game.Join(ctx, 1); err != nil {
		t.Fatalf("Join with no token: %v", err)
	}
	if err := game.Post(ctx, "/api/v1/games/1/actions/bet/", nil); err != nil {
		t.Fatalf("Post with no token: %v", err)
	}
	if err := game.ForceContinue(ctx, 1, nil); err != nil {
		t.Fatalf("ForceContinue with no token: %v", err)
	}

	if got := calls.Load(); got != 0 {
		t.Fatalf("expected zero network calls, got %d", got)
	}
}

func TestLoginStoresNothingButReturnsToken(t *testing.T) {
	server, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/auth/token/login/" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["username"] != "alice" || body["password"] != "secret" {
			t.Errorf("unexpected login payload: %v", body)
		}
		writeJSON(w, http.StatusOK, map[string]string{"auth_token": "tok-abc"})
	})

	auth := NewAuthClient(server.URL, "")
	token, err := auth.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token != "tok-abc" {
		t.Fatalf("expected tok-abc, got %q", token)
	}
}

func TestLoginValidationErrorIsCaptured(t *testing.T) {
	server, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"username": {"This field may not be blank."},
			"password": {"This field may not be blank."},
		})
	})

	auth := NewAuthClient(server.URL, "")
	_, err := auth.Login(context.Background(), "", "")
	ve, ok := apperrors.AsValidation(err)
	if !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Fields["username"]) != 1 || len(ve.Fields["password"]) != 1 {
		t.Fatalf("field errors lost: %+v", ve.Fields)
	}
}

func TestUnauthorizedBecomesAPIError(t *testing.T) {
	server, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid token."})
	})

	auth := NewAuthClient(server.URL, "stale")
	_, err := auth.Me(context.Background())
	if !apperrors.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized APIError, got %v", err)
	}
}

func TestTokenHeaderAttached(t *testing.T) {
	server, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Token tok-abc" {
			t.Errorf("expected token header, got %q", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected a request id on every call")
		}
		writeJSON(w, http.StatusOK, model.User{Username: "alice"})
	})

	auth := NewAuthClient(server.URL, "tok-abc")
	user, err := auth.Me(context.Background())
	if err != nil || user.Username != "alice" {
		t.Fatalf("unexpected result: %v, %v", user, err)
	}
}

func TestGetAllIsPublic(t *testing.T) {
	server, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("game list must not require a token")
		}
		writeJSON(w, http.StatusOK, []model.GameSnapshot{{ID: 1}, {ID: 2}})
	})

	game := NewGameClient(server.URL, "")
	games, err := game.GetAll(context.Background())
	if err != nil || len(games) != 2 {
		t.Fatalf("unexpected list: %v, %v", games, err)
	}
}

func TestGameDetailMergesAllReads(t *testing.T) {
	server, calls := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/games/7/":
			writeJSON(w, http.StatusOK, model.GameSnapshot{ID: 7, Status: "gameplay"})
		case "/api/v1/games/7/players/":
			writeJSON(w, http.StatusOK, []model.PlayerView{{User: "alice"}, {User: "bob"}})
		case "/api/v1/games/7/players/me/":
			writeJSON(w, http.StatusOK, model.PlayerView{User: "alice", IsHost: true})
		case "/api/v1/games/7/players/other/":
			writeJSON(w, http.StatusOK, []model.PlayerView{{User: "bob"}})
		case "/api/v1/games/7/actions/":
			writeJSON(w, http.StatusOK, model.Actions{"start": {URL: "/api/v1/games/7/actions/start/", Available: true}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	game := NewGameClient(server.URL, "tok")
	detail, err := game.GameDetail(context.Background(), 7)
	if err != nil {
		t.Fatalf("detail load failed: %v", err)
	}
	if detail.Game == nil || detail.Game.ID != 7 {
		t.Fatalf("game missing from merge: %+v", detail.Game)
	}
	if len(detail.PlayersAll) != 2 || detail.PlayerMe == nil || !detail.PlayerMe.IsHost {
		t.Fatalf("player views missing from merge: %+v", detail)
	}
	if len(detail.PlayersOther) != 1 || detail.PlayersOther[0].User != "bob" {
		t.Fatalf("other players missing from merge: %+v", detail.PlayersOther)
	}
	if !detail.Actions["start"].Available {
		t.Fatalf("actions missing from merge: %+v", detail.Actions)
	}
	if got := calls.Load(); got != 5 {
		t.Fatalf("expected 5 sub-fetches, got %d", got)
	}
}

func TestGameDetailFailsWhole(t *testing.T) {
	server, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/games/7/actions/" {
			writeJSON(w, http.StatusForbidden, map[string]string{"detail": "not in game"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{})
	})

	game := NewGameClient(server.URL, "tok")
	detail, err := game.GameDetail(context.Background(), 7)
	if err == nil || detail != nil {
		t.Fatalf("expected merged load to fail as a whole, got %+v, %v", detail, err)
	}
}

func TestKickBuildsPlayerPath(t *testing.T) {
	server, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/v1/games/3/players/bob/" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	game := NewGameClient(server.URL, "tok")
	if err := game.Kick(context.Background(), 3, "bob"); err != nil {
		t.Fatalf("kick failed: %v", err)
	}
}
