package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"
	"sync/atomic"
	"time"

	"bizarre-client/internal/config"
	"bizarre-client/internal/credentials"
	"bizarre-client/internal/model"
	"bizarre-client/internal/notify"
	"bizarre-client/internal/poll"
	"bizarre-client/internal/session"
	"bizarre-client/internal/ui"
	"bizarre-client/internal/view"
	"bizarre-client/pkg/apperrors"
	"bizarre-client/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"go.uber.org/zap"
)

type app struct {
	ctx      context.Context
	cfg      *config.Config
	sessions *session.Controller
	reporter *notify.Reporter
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "path to config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system variables")
	}

	config.LoadConfig(configPath)
	cfg := config.GlobalConfig

	logger.InitLogger(cfg.Server.Mode)
	defer logger.Log.Sync()

	ctx := context.Background()

	store := credentials.NewStore(cfg.Credentials.Path)
	sessions := session.NewController(cfg.Server.BaseURL, store)
	sessions.Hydrate(ctx)

	a := &app{
		ctx:      ctx,
		cfg:      cfg,
		sessions: sessions,
		reporter: notify.NewReporter(),
	}

	pterm.DefaultHeader.Println("bizarre poker")
	a.mainLoop()
}

func (a *app) mainLoop() {
	for {
		ui.RenderError(a.reporter.Current())

		options := []string{"games"}
		if s := a.sessions.Current(); s != nil {
			options = append(options, "me", "logout")
		} else {
			options = append(options, "login", "sign up")
		}
		options = append(options, "quit")

		choice, _ := pterm.DefaultInteractiveSelect.WithOptions(options).Show("menu")
		switch choice {
		case "games":
			a.gamesPage()
		case "me":
			a.mePage()
		case "login":
			a.loginPage()
		case "sign up":
			a.signUpPage()
		case "logout":
			a.logout()
		case "quit":
			return
		}
	}
}

// loginPage is anonymous-only; an authenticated visitor is sent to the
// profile page instead, unless the session is still hydrating.
func (a *app) loginPage() {
	if allow, redirect := session.AnonymousOnly(a.sessions.Current()); !allow {
		pterm.Info.Printfln("already logged in, going to %s", redirect)
		a.mePage()
		return
	}

	username, _ := pterm.DefaultInteractiveTextInput.Show("username")
	password, _ := pterm.DefaultInteractiveTextInput.WithMask("*").Show("password")

	token, err := a.sessions.Auth().Login(a.ctx, username, password)
	if err != nil {
		if ve, ok := apperrors.AsValidation(err); ok {
			ui.RenderFieldErrors(ve.Fields)
			return
		}
		a.reporter.Report(err)
		return
	}

	a.completeSignIn(username, token)
}

func (a *app) signUpPage() {
	if allow, _ := session.AnonymousOnly(a.sessions.Current()); !allow {
		a.mePage()
		return
	}

	username, _ := pterm.DefaultInteractiveTextInput.Show("username")
	password, _ := pterm.DefaultInteractiveTextInput.WithMask("*").Show("password")

	token, err := a.sessions.Auth().SignUp(a.ctx, username, password)
	if err != nil {
		if ve, ok := apperrors.AsValidation(err); ok {
			ui.RenderFieldErrors(ve.Fields)
			return
		}
		a.reporter.Report(err)
		return
	}

	a.completeSignIn(username, token)
}

// completeSignIn replaces the session and enriches it with the profile the
// same way hydration does.
func (a *app) completeSignIn(username, token string) {
	a.sessions.Set(&session.Session{Username: username, Token: token})

	user, err := a.sessions.Auth().Me(a.ctx)
	if err != nil {
		logger.Log.Warn("profile fetch after sign-in failed", zap.Error(err))
	} else {
		a.sessions.Set(&session.Session{Username: username, Token: token, User: user})
	}
	pterm.Success.Printfln("hi, %s!", username)
}

// logout invalidates the server token but clears the local session no
// matter what came back.
func (a *app) logout() {
	if err := a.sessions.Auth().Logout(a.ctx); err != nil {
		logger.Log.Warn("server-side logout failed", zap.Error(err))
	}
	a.sessions.Set(nil)
	pterm.Info.Println("see ya")
}

func (a *app) mePage() {
	if allow, redirect := session.AuthRequired(a.sessions.Current()); !allow {
		pterm.Info.Printfln("login required, going to %s", redirect)
		a.loginPage()
		return
	}

	user, err := a.sessions.Auth().Me(a.ctx)
	if err != nil {
		a.reporter.Report(err)
		return
	}
	if user == nil {
		pterm.Info.Println("loading...")
		return
	}
	bank := 0
	if user.Profile != nil {
		bank = user.Profile.Bank
	}
	pterm.DefaultSection.Printfln("Hi, %s!", user.Username)
	pterm.Printfln("bank: %d$  staff: %v", bank, user.IsStaff)
}

func (a *app) gamesPage() {
	games, err := a.sessions.Game().GetAll(a.ctx)
	if err != nil {
		a.reporter.Report(err)
		return
	}
	ui.RenderGameList(games, a.sessions.Current())

	options := []string{"open game", "new game", "back"}
	choice, _ := pterm.DefaultInteractiveSelect.WithOptions(options).Show("games")
	switch choice {
	case "open game":
		input, _ := pterm.DefaultInteractiveTextInput.Show("game id")
		gameID, err := strconv.Atoi(input)
		if err != nil {
			pterm.Error.Println("not a game id")
			return
		}
		a.openGame(gameID, games)
	case "new game":
		a.newGame()
	}
}

func (a *app) newGame() {
	if allow, _ := session.AuthRequired(a.sessions.Current()); !allow {
		a.loginPage()
		return
	}

	choices, err := a.sessions.Game().GetCreateChoices(a.ctx)
	if err != nil {
		a.reporter.Report(err)
		return
	}
	names := make([]string, 0, len(choices))
	for _, choice := range choices {
		names = append(names, choice.Value)
	}
	configName, _ := pterm.DefaultInteractiveSelect.WithOptions(names).Show("choose game style")

	game, err := a.sessions.Game().Create(a.ctx, configName)
	if err != nil {
		if ve, ok := apperrors.AsValidation(err); ok {
			ui.RenderFieldErrors(ve.Fields)
			return
		}
		a.reporter.Report(err)
		return
	}
	if game != nil {
		a.gameView(game.ID)
	}
}

// openGame applies the join tri-state before entering the live view.
func (a *app) openGame(gameID int, games []model.GameSnapshot) {
	var snap *model.GameSnapshot
	for i := range games {
		if games[i].ID == gameID {
			snap = &games[i]
			break
		}
	}
	if snap == nil {
		pterm.Error.Println("no such game")
		return
	}

	s := a.sessions.Current()
	viewer := ""
	if s != nil {
		viewer = s.Username
	}

	// Joining while anonymous goes to login instead of the server.
	if allow, _ := session.AuthRequired(s); !allow {
		a.loginPage()
		return
	}

	switch view.JoinState(snap, viewer).Kind {
	case view.JoinContinue:
		a.gameView(gameID)
	case view.JoinWait:
		pterm.Info.Println("wait for approval")
	default:
		if err := a.sessions.Game().Join(a.ctx, gameID); err != nil {
			a.reporter.Report(err)
			return
		}
		pterm.Info.Println("join requested, wait for approval")
	}
}

// gameView is the live page: a poller refreshes the detail snapshot at the
// configured cadence, each completed reload replacing the previous one
// (last write wins), and rendering reads whatever is newest.
func (a *app) gameView(gameID int) {
	var latest atomic.Pointer[model.GameDetail]

	reload := func() {
		detail, err := a.sessions.Game().GameDetail(a.ctx, gameID)
		if err != nil {
			logger.Log.Warn("reload failed", zap.Int("gameID", gameID), zap.Error(err))
			return
		}
		if detail != nil {
			latest.Store(detail)
		}
	}
	reload()

	interval := time.Duration(a.cfg.Poll.IntervalMS) * time.Millisecond
	poller := poll.New(interval, reload)
	poller.Start()
	defer poller.Stop()

	for {
		ui.RenderError(a.reporter.Current())
		detail := latest.Load()
		ui.RenderGame(detail, a.sessions.Current())
		if detail == nil {
			return
		}
		ui.RenderActions(detail, a.sessions.Current())

		options := []string{"refresh", "act", "players", "history", "leave", "back"}
		choice, _ := pterm.DefaultInteractiveSelect.WithOptions(options).Show(fmt.Sprintf("game %d", gameID))
		switch choice {
		case "act":
			a.performAction(detail)
			reload()
		case "players":
			a.playersPanel(gameID, detail)
			reload()
		case "history":
			viewer := ""
			if s := a.sessions.Current(); s != nil {
				viewer = s.Username
			}
			ui.RenderHistory(detail.Game.ActionsHistory, viewer)
		case "leave":
			s := a.sessions.Current()
			if s != nil {
				if err := a.sessions.Game().Kick(a.ctx, gameID, s.Username); err != nil {
					a.reporter.Report(err)
					continue
				}
			}
			return
		case "back":
			return
		}
	}
}

func (a *app) performAction(detail *model.GameDetail) {
	names := []string{}
	for name, action := range detail.Actions {
		if name == "kick" || name == "leave" {
			continue
		}
		if action.Available {
			names = append(names, name)
		}
	}
	s := a.sessions.Current()
	var user *model.User
	if s != nil {
		user = s.User
	}
	if view.ForceContinueVisible(user) {
		names = append(names, "force")
	}
	if len(names) == 0 {
		pterm.Info.Println("nothing to do, wait your turn")
		return
	}

	name, _ := pterm.DefaultInteractiveSelect.WithOptions(names).Show("action")

	if name == "force" {
		if err := a.sessions.Game().ForceContinue(a.ctx, detail.Game.ID, nil); err != nil {
			a.reporter.Report(err)
		}
		return
	}

	value := 0
	if name == "bet" {
		if values := detail.Actions["bet"].Values; values != nil {
			input, _ := pterm.DefaultInteractiveTextInput.Show(
				fmt.Sprintf("bet value (%d..%d step %d)", values.Min, values.Max, values.Step))
			value, _ = strconv.Atoi(input)
		}
	}

	// The bet value rides along on every action; the server ignores it for
	// actions that do not take one.
	if err := a.sessions.Game().Post(a.ctx, detail.Actions[name].URL, map[string]int{"value": value}); err != nil {
		a.reporter.Report(err)
	}
}

func (a *app) playersPanel(gameID int, detail *model.GameDetail) {
	isHost := detail.PlayerMe != nil && detail.PlayerMe.IsHost
	if !isHost {
		for _, player := range detail.PlayersAll {
			pterm.Printfln("%d  %s", player.Position, player.User)
		}
		return
	}

	options := []string{"approve join", "kick", "back"}
	choice, _ := pterm.DefaultInteractiveSelect.WithOptions(options).Show("players")
	switch choice {
	case "approve join":
		if len(detail.Game.PlayersPreforms) == 0 {
			pterm.Info.Println("nobody is waiting")
			return
		}
		username, _ := pterm.DefaultInteractiveSelect.
			WithOptions(detail.Game.PlayersPreforms).Show("approve")
		if err := a.sessions.Game().ApproveJoin(a.ctx, gameID, username); err != nil {
			a.reporter.Report(err)
		}
	case "kick":
		names := []string{}
		for _, player := range detail.PlayersOther {
			names = append(names, player.User)
		}
		if len(names) == 0 {
			pterm.Info.Println("nobody to kick")
			return
		}
		username, _ := pterm.DefaultInteractiveSelect.WithOptions(names).Show("kick out")
		if err := a.sessions.Game().Kick(a.ctx, gameID, username); err != nil {
			a.reporter.Report(err)
		}
	}
}
