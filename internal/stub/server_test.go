package stub_test

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bizarre-client/internal/api"
	"bizarre-client/internal/credentials"
	"bizarre-client/internal/session"
	"bizarre-client/internal/stub"
	"bizarre-client/internal/view"
	"bizarre-client/pkg/apperrors"
	"bizarre-client/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.InitLogger("release")
}

type fixture struct {
	base  string
	store *stub.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	store, err := stub.NewStore(dsn)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	tokens := stub.NewTokenIssuer("test-secret", 1)
	engine := gin.New()
	stub.NewServer(store, tokens).RegisterRoutes(engine)

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)
	return &fixture{base: server.URL, store: store}
}

func (f *fixture) signUp(t *testing.T, username, password string) string {
	t.Helper()
	auth := api.NewAuthClient(f.base, "")
	token, err := auth.SignUp(context.Background(), username, password)
	if err != nil {
		t.Fatalf("signup %s failed: %v", username, err)
	}
	return token
}

func TestLoginHappyPathStoresTokenAndProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signUp(t, "alice", "secret-pass")

	store := credentials.NewStoreWithFs(afero.NewMemMapFs(), "creds.json")
	controller := session.NewController(f.base, store)

	token, err := controller.Auth().Login(ctx, "alice", "secret-pass")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	controller.Set(&session.Session{Username: "alice", Token: token})

	if username, saved := store.Load(); username != "alice" || saved != token {
		t.Fatalf("credentials not persisted: %q / %q", username, saved)
	}

	user, err := controller.Auth().Me(ctx)
	if err != nil || user == nil || user.Username != "alice" || user.Profile == nil {
		t.Fatalf("profile fetch after login: %+v, %v", user, err)
	}
}

func TestLoginInvalidCredentialsLeavesTokenUnset(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "alice", "secret-pass")

	auth := api.NewAuthClient(f.base, "")
	token, err := auth.Login(context.Background(), "alice", "wrong")

	ve, ok := apperrors.AsValidation(err)
	if !ok {
		t.Fatalf("expected field-keyed validation error, got %v", err)
	}
	if len(ve.Fields["non_field_errors"]) == 0 {
		t.Fatalf("expected non_field_errors, got %+v", ve.Fields)
	}
	if token != "" {
		t.Fatalf("token must stay unset on bad login, got %q", token)
	}
}

func TestSignUpDuplicateUsername(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "alice", "secret-pass")

	auth := api.NewAuthClient(f.base, "")
	_, err := auth.SignUp(context.Background(), "alice", "other-pass")
	ve, ok := apperrors.AsValidation(err)
	if !ok || len(ve.Fields["username"]) == 0 {
		t.Fatalf("expected username validation error, got %v", err)
	}
}

func TestCreateChoicesAndGameLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token := f.signUp(t, "alice", "secret-pass")

	game := api.NewGameClient(f.base, token)

	choices, err := game.GetCreateChoices(ctx)
	if err != nil || len(choices) != 4 {
		t.Fatalf("create choices: %+v, %v", choices, err)
	}

	created, err := game.Create(ctx, "classic")
	if err != nil {
		t.Fatalf("create game failed: %v", err)
	}
	if created.Host != "alice" || len(created.Players) != 1 {
		t.Fatalf("creator must be seated as host: %+v", created)
	}
	if created.Config.BigBlind != 10 || len(created.Config.FlopsAmounts) != 3 {
		t.Fatalf("config not echoed: %+v", created.Config)
	}

	games, err := api.NewGameClient(f.base, "").GetAll(ctx)
	if err != nil || len(games) != 1 {
		t.Fatalf("public list: %+v, %v", games, err)
	}
}

func TestJoinApproveLifecycleAndTriState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hostToken := f.signUp(t, "alice", "secret-pass")
	guestToken := f.signUp(t, "bob", "secret-pass")

	hostClient := api.NewGameClient(f.base, hostToken)
	guestClient := api.NewGameClient(f.base, guestToken)

	created, err := hostClient.Create(ctx, "classic")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := guestClient.Join(ctx, created.ID); err != nil {
		t.Fatalf("join request failed: %v", err)
	}

	snap, err := guestClient.Game(ctx, created.ID)
	if err != nil {
		t.Fatalf("snapshot fetch failed: %v", err)
	}
	if button := view.JoinState(snap, "bob"); button.Kind != view.JoinWait || !button.Disabled {
		t.Fatalf("waiting bob should see disabled wait-for-approval, got %+v", button)
	}
	if button := view.JoinState(snap, "alice"); button.Kind != view.JoinContinue {
		t.Fatalf("seated alice should see continue, got %+v", button)
	}
	if button := view.JoinState(snap, "carol"); button.Kind != view.JoinRequest {
		t.Fatalf("stranger should see join, got %+v", button)
	}

	// Double join request is rejected with a field error.
	err = guestClient.Join(ctx, created.ID)
	if _, ok := apperrors.AsValidation(err); !ok {
		t.Fatalf("expected validation error on duplicate join, got %v", err)
	}

	// Only the host may approve.
	err = guestClient.ApproveJoin(ctx, created.ID, "bob")
	if !apperrors.IsUnauthorized(err) {
		t.Fatalf("guest approval must be forbidden, got %v", err)
	}
	if err := hostClient.ApproveJoin(ctx, created.ID, "bob"); err != nil {
		t.Fatalf("host approval failed: %v", err)
	}

	snap, err = guestClient.Game(ctx, created.ID)
	if err != nil {
		t.Fatalf("snapshot fetch failed: %v", err)
	}
	if button := view.JoinState(snap, "bob"); button.Kind != view.JoinContinue {
		t.Fatalf("approved bob should see continue, got %+v", button)
	}
}

func TestGameplayHistoryFeedsLatestActionScan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hostToken := f.signUp(t, "alice", "secret-pass")
	guestToken := f.signUp(t, "bob", "secret-pass")

	hostClient := api.NewGameClient(f.base, hostToken)
	guestClient := api.NewGameClient(f.base, guestToken)

	created, err := hostClient.Create(ctx, "classic")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := guestClient.Join(ctx, created.ID); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if err := hostClient.ApproveJoin(ctx, created.ID, "bob"); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	// Host starts the round through the server-declared action URL.
	actions, err := hostClient.GameActions(ctx, created.ID)
	if err != nil {
		t.Fatalf("actions fetch failed: %v", err)
	}
	start := actions["start"]
	if !start.Available {
		t.Fatalf("host should be able to start: %+v", actions)
	}
	if err := hostClient.Post(ctx, start.URL, nil); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	detail, err := hostClient.GameDetail(ctx, created.ID)
	if err != nil {
		t.Fatalf("detail load failed: %v", err)
	}
	if detail.Game.Status != "gameplay" {
		t.Fatalf("game should be running: %+v", detail.Game)
	}

	// The performer bets through the generic dispatcher.
	performer := detail.Game.Stage.Performer
	performerClient := hostClient
	if performer == "bob" {
		performerClient = guestClient
	}
	performerActions, err := performerClient.GameActions(ctx, created.ID)
	if err != nil {
		t.Fatalf("performer actions fetch failed: %v", err)
	}
	bet := performerActions["bet"]
	if !bet.Available || bet.Values == nil || bet.Values.Min != 10 {
		t.Fatalf("performer should have a bounded bet: %+v", bet)
	}
	if err := performerClient.Post(ctx, bet.URL, map[string]int{"value": 20}); err != nil {
		t.Fatalf("bet failed: %v", err)
	}

	detail, err = hostClient.GameDetail(ctx, created.ID)
	if err != nil {
		t.Fatalf("detail reload failed: %v", err)
	}
	stage, player := view.LatestActions(detail.Game.ActionsHistory)
	if stage == nil || stage.Message != "stage: BiddingsStage" {
		t.Fatalf("latest stage action: %+v", stage)
	}
	if player == nil || player.Message != performer+" bet 20" {
		t.Fatalf("latest player action: %+v", player)
	}
	if detail.Game.Bank != 20 || detail.Game.BankTotal != 20 {
		t.Fatalf("bank aggregates wrong: bank=%d total=%d", detail.Game.Bank, detail.Game.BankTotal)
	}
}

func TestHiddenHandsForOtherPlayers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hostToken := f.signUp(t, "alice", "secret-pass")
	guestToken := f.signUp(t, "bob", "secret-pass")

	hostClient := api.NewGameClient(f.base, hostToken)
	guestClient := api.NewGameClient(f.base, guestToken)

	created, err := hostClient.Create(ctx, "classic")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := guestClient.Join(ctx, created.ID); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if err := hostClient.ApproveJoin(ctx, created.ID, "bob"); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	actions, err := hostClient.GameActions(ctx, created.ID)
	if err != nil {
		t.Fatalf("actions fetch failed: %v", err)
	}
	if err := hostClient.Post(ctx, actions["start"].URL, nil); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	detail, err := hostClient.GameDetail(ctx, created.ID)
	if err != nil {
		t.Fatalf("detail load failed: %v", err)
	}
	if detail.PlayerMe == nil || len(detail.PlayerMe.Hand) == 0 || detail.PlayerMe.Hand[0] == nil {
		t.Fatalf("own hand must be visible: %+v", detail.PlayerMe)
	}
	if len(detail.PlayersOther) != 1 {
		t.Fatalf("expected one other player: %+v", detail.PlayersOther)
	}
	other := detail.PlayersOther[0]
	if len(other.Hand) == 0 {
		t.Fatal("hidden hand must preserve length")
	}
	for i, card := range other.Hand {
		if card != nil {
			t.Fatalf("hidden hand slot %d leaked a card: %+v", i, card)
		}
	}
	// A hidden hand still pads to the configured width for rendering.
	padded := view.PadCards(other.Hand, view.HandSlots(detail.Game.Config))
	if len(padded) != view.HandSlots(detail.Game.Config) {
		t.Fatalf("padded hand has wrong width: %d", len(padded))
	}
}

func TestForceContinueIsStaffOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hostToken := f.signUp(t, "alice", "secret-pass")

	if _, err := f.store.CreateUser("root", "root-pass", true); err != nil {
		t.Fatalf("seed staff failed: %v", err)
	}
	staffToken, err := api.NewAuthClient(f.base, "").Login(ctx, "root", "root-pass")
	if err != nil {
		t.Fatalf("staff login failed: %v", err)
	}

	hostClient := api.NewGameClient(f.base, hostToken)
	staffClient := api.NewGameClient(f.base, staffToken)

	created, err := hostClient.Create(ctx, "classic")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	actions, err := hostClient.GameActions(ctx, created.ID)
	if err != nil {
		t.Fatalf("actions fetch failed: %v", err)
	}
	if err := hostClient.Post(ctx, actions["start"].URL, nil); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	err = hostClient.ForceContinue(ctx, created.ID, nil)
	if !apperrors.IsUnauthorized(err) {
		t.Fatalf("non-staff force must be forbidden, got %v", err)
	}

	before, err := hostClient.Game(ctx, created.ID)
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if err := staffClient.ForceContinue(ctx, created.ID, nil); err != nil {
		t.Fatalf("staff force failed: %v", err)
	}
	after, err := hostClient.Game(ctx, created.ID)
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if len(after.ActionsHistory) != len(before.ActionsHistory)+1 {
		t.Fatalf("force must append exactly one entry: %d -> %d",
			len(before.ActionsHistory), len(after.ActionsHistory))
	}
}

func TestKickAndLeaveShareOneEndpoint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hostToken := f.signUp(t, "alice", "secret-pass")
	guestToken := f.signUp(t, "bob", "secret-pass")

	hostClient := api.NewGameClient(f.base, hostToken)
	guestClient := api.NewGameClient(f.base, guestToken)

	created, err := hostClient.Create(ctx, "classic")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := guestClient.Join(ctx, created.ID); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if err := hostClient.ApproveJoin(ctx, created.ID, "bob"); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	// Guest cannot kick the host.
	err = guestClient.Kick(ctx, created.ID, "alice")
	if !apperrors.IsUnauthorized(err) {
		t.Fatalf("guest kicking host must be forbidden, got %v", err)
	}

	// Leaving is kicking yourself.
	if err := guestClient.Kick(ctx, created.ID, "bob"); err != nil {
		t.Fatalf("leave failed: %v", err)
	}
	snap, err := hostClient.Game(ctx, created.ID)
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if len(snap.Players) != 1 || snap.Players[0] != "alice" {
		t.Fatalf("bob should be gone: %+v", snap.Players)
	}
}

func TestSessionHydrationAgainstStub(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token := f.signUp(t, "alice", "secret-pass")

	store := credentials.NewStoreWithFs(afero.NewMemMapFs(), "creds.json")
	if err := store.Save("alice", token); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	controller := session.NewController(f.base, store)
	controller.Hydrate(ctx)

	deadline := time.After(2 * time.Second)
	for {
		s := controller.Current()
		if s != nil && !s.IsLoading {
			if s.User == nil || s.User.Username != "alice" {
				t.Fatalf("profile not merged: %+v", s)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("hydration never completed")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
