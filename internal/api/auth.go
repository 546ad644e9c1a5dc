package api

import (
	"context"

	"bizarre-client/internal/model"
	"bizarre-client/pkg/logger"

	"go.uber.org/zap"
)

// AuthClient handles login, signup, logout and profile fetches. It is bound
// to one token for its whole lifetime; the session controller builds a fresh
// instance whenever the token changes.
type AuthClient struct {
	t *transport
}

func NewAuthClient(baseURL, token string) *AuthClient {
	return &AuthClient{t: newTransport(baseURL, token)}
}

func (c *AuthClient) Token() string {
	return c.t.token
}

// Login exchanges credentials for a token. A 400 comes back as a
// *apperrors.ValidationError with per-field messages; the caller renders it
// inline instead of treating it as a failure of the transport.
func (c *AuthClient) Login(ctx context.Context, username, password string) (string, error) {
	var out struct {
		AuthToken string `json:"auth_token"`
	}
	payload := map[string]string{"username": username, "password": password}
	if err := c.t.post(ctx, basePath+"auth/token/login/", payload, &out); err != nil {
		return "", err
	}
	return out.AuthToken, nil
}

// SignUp creates the account and immediately logs in with the same
// credentials, returning the fresh token.
func (c *AuthClient) SignUp(ctx context.Context, username, password string) (string, error) {
	payload := map[string]string{"username": username, "password": password}
	if err := c.t.post(ctx, basePath+"auth/users/", payload, nil); err != nil {
		return "", err
	}
	return c.Login(ctx, username, password)
}

// Logout invalidates the server-side token. Network failure here is
// tolerated: the caller clears the local credential either way.
func (c *AuthClient) Logout(ctx context.Context) error {
	if !c.t.hasToken() {
		return nil
	}
	if err := c.t.post(ctx, basePath+"auth/token/logout/", nil, nil); err != nil {
		logger.Log.Warn("logout request failed, clearing local credentials anyway", zap.Error(err))
		return err
	}
	return nil
}

// Me fetches the profile for the bound token. With no token it returns
// (nil, nil) without touching the network.
func (c *AuthClient) Me(ctx context.Context) (*model.User, error) {
	if !c.t.hasToken() {
		return nil, nil
	}
	var user model.User
	if err := c.t.get(ctx, basePath+"auth/users/me/", &user); err != nil {
		return nil, err
	}
	return &user, nil
}
