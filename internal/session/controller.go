package session

import (
	"context"
	"sync"

	"bizarre-client/internal/api"
	"bizarre-client/internal/credentials"
	"bizarre-client/internal/model"
	"bizarre-client/pkg/logger"

	"go.uber.org/zap"
)

// Session is the client's current authentication state. Exactly one is live
// process-wide; it is replaced wholesale on login/logout/signup and nil
// means logged out.
type Session struct {
	Username  string
	Token     string
	User      *model.User
	IsLoading bool
}

// Controller owns the session and derives both API clients from it. Every
// change goes through Set, which rebuilds the clients; consumers must fetch
// them again after any session change instead of caching across it.
type Controller struct {
	mu      sync.RWMutex
	baseURL string
	store   *credentials.Store

	session *Session
	auth    *api.AuthClient
	game    *api.GameClient
}

func NewController(baseURL string, store *credentials.Store) *Controller {
	c := &Controller{baseURL: baseURL, store: store}
	c.rebuildClients("")
	return c
}

// Hydrate restores the session from persisted credentials. When they exist
// the session becomes usable immediately with just username+token, and the
// full profile is fetched in the background and merged when it arrives. A
// failed profile fetch is logged and does not invalidate the session.
func (c *Controller) Hydrate(ctx context.Context) {
	username, token := c.store.Load()
	if token == "" {
		c.Set(nil)
		return
	}

	c.Set(&Session{Username: username, Token: token, IsLoading: true})

	// Capture the client bound to this token; a later Set must not redirect
	// the in-flight fetch.
	auth := c.Auth()
	go func() {
		user, err := auth.Me(ctx)
		if err != nil {
			logger.Log.Warn("background profile fetch failed, keeping token-only session",
				zap.String("username", username),
				zap.Error(err),
			)
			c.finishLoading(token, nil)
			return
		}
		c.finishLoading(token, user)
	}()
}

// finishLoading merges the fetched profile, but only if the session still
// holds the token the fetch was issued for. A login/logout that raced the
// fetch wins and the stale result is discarded.
func (c *Controller) finishLoading(token string, user *model.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || c.session.Token != token {
		return
	}
	merged := *c.session
	merged.User = user
	merged.IsLoading = false
	c.session = &merged
}

// Current returns the live session, or nil when logged out.
func (c *Controller) Current() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Set replaces the session wholesale and reconstructs both API clients so
// no client instance outlives its token. It also persists or clears the
// stored credentials to match.
func (c *Controller) Set(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session = s
	token := ""
	if s != nil {
		token = s.Token
	}
	c.rebuildClients(token)

	if s == nil {
		if err := c.store.Clear(); err != nil {
			logger.Log.Warn("failed to clear stored credentials", zap.Error(err))
		}
		return
	}
	if err := c.store.Save(s.Username, s.Token); err != nil {
		logger.Log.Warn("failed to persist credentials", zap.Error(err))
	}
}

func (c *Controller) rebuildClients(token string) {
	c.auth = api.NewAuthClient(c.baseURL, token)
	c.game = api.NewGameClient(c.baseURL, token)
}

// Auth returns the auth client bound to the current session's token.
func (c *Controller) Auth() *api.AuthClient {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth
}

// Game returns the game client bound to the current session's token.
func (c *Controller) Game() *api.GameClient {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.game
}
