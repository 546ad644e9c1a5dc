package api

import (
	"context"
	"fmt"

	"bizarre-client/internal/model"

	"golang.org/x/sync/errgroup"
)

// GameClient covers the games resource and everything nested under it.
// Like AuthClient it is immutable once constructed; authenticated methods
// silently return nil when no token is bound.
type GameClient struct {
	t *transport
}

func NewGameClient(baseURL, token string) *GameClient {
	return &GameClient{t: newTransport(baseURL, token)}
}

func (c *GameClient) Token() string {
	return c.t.token
}

// GetAll lists games. The list is public, so no token is required.
func (c *GameClient) GetAll(ctx context.Context) ([]model.GameSnapshot, error) {
	var games []model.GameSnapshot
	if err := c.t.get(ctx, basePath+"games/", &games); err != nil {
		return nil, err
	}
	return games, nil
}

// GetCreateChoices asks OPTIONS games/ for the selectable game styles.
func (c *GameClient) GetCreateChoices(ctx context.Context) ([]model.CreateChoice, error) {
	if !c.t.hasToken() {
		return nil, nil
	}
	var out struct {
		Actions struct {
			Post struct {
				ConfigName struct {
					Choices []model.CreateChoice `json:"choices"`
				} `json:"config_name"`
			} `json:"POST"`
		} `json:"actions"`
	}
	if err := c.t.options(ctx, basePath+"games/", &out); err != nil {
		return nil, err
	}
	return out.Actions.Post.ConfigName.Choices, nil
}

func (c *GameClient) Create(ctx context.Context, configName string) (*model.GameSnapshot, error) {
	if !c.t.hasToken() {
		return nil, nil
	}
	var game model.GameSnapshot
	payload := map[string]string{"config_name": configName}
	if err := c.t.post(ctx, basePath+"games/", payload, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

// Join requests a seat; the user stays in players_preforms until the host
// approves.
func (c *GameClient) Join(ctx context.Context, gameID int) error {
	if !c.t.hasToken() {
		return nil
	}
	return c.t.post(ctx, gamePath(gameID, "playersPreforms/"), nil, nil)
}

// ApproveJoin promotes a waiting user to a seated player (host only).
func (c *GameClient) ApproveJoin(ctx context.Context, gameID int, username string) error {
	if !c.t.hasToken() {
		return nil
	}
	payload := map[string]string{"user": username}
	return c.t.post(ctx, gamePath(gameID, "players/"), payload, nil)
}

// Kick removes a player. Leaving is kicking yourself; the server tells the
// two cases apart by who sends the request.
func (c *GameClient) Kick(ctx context.Context, gameID int, username string) error {
	if !c.t.hasToken() {
		return nil
	}
	return c.t.delete(ctx, gamePath(gameID, fmt.Sprintf("players/%s/", username)))
}

// Post dispatches a server-declared action URL with an arbitrary payload.
// Every action accepts the bet value; the server ignores it for actions
// that do not take one.
func (c *GameClient) Post(ctx context.Context, url string, payload interface{}) error {
	if !c.t.hasToken() {
		return nil
	}
	return c.t.post(ctx, url, payload, nil)
}

// ForceContinue is the privileged stage-advance override.
func (c *GameClient) ForceContinue(ctx context.Context, gameID int, payload interface{}) error {
	if !c.t.hasToken() {
		return nil
	}
	return c.t.post(ctx, gamePath(gameID, "actions/forceContinue/"), payload, nil)
}

func (c *GameClient) Game(ctx context.Context, gameID int) (*model.GameSnapshot, error) {
	if !c.t.hasToken() {
		return nil, nil
	}
	var game model.GameSnapshot
	if err := c.t.get(ctx, gamePath(gameID, ""), &game); err != nil {
		return nil, err
	}
	return &game, nil
}

func (c *GameClient) Players(ctx context.Context, gameID int) ([]model.PlayerView, error) {
	if !c.t.hasToken() {
		return nil, nil
	}
	var players []model.PlayerView
	if err := c.t.get(ctx, gamePath(gameID, "players/"), &players); err != nil {
		return nil, err
	}
	return players, nil
}

func (c *GameClient) PlayerMe(ctx context.Context, gameID int) (*model.PlayerView, error) {
	if !c.t.hasToken() {
		return nil, nil
	}
	var player model.PlayerView
	if err := c.t.get(ctx, gamePath(gameID, "players/me/"), &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (c *GameClient) PlayersOther(ctx context.Context, gameID int) ([]model.PlayerView, error) {
	if !c.t.hasToken() {
		return nil, nil
	}
	var players []model.PlayerView
	if err := c.t.get(ctx, gamePath(gameID, "players/other/"), &players); err != nil {
		return nil, err
	}
	return players, nil
}

func (c *GameClient) GameActions(ctx context.Context, gameID int) (model.Actions, error) {
	if !c.t.hasToken() {
		return nil, nil
	}
	var actions model.Actions
	if err := c.t.get(ctx, gamePath(gameID, "actions/"), &actions); err != nil {
		return nil, err
	}
	return actions, nil
}

// GameDetail is the composite load behind the live game view: five reads
// issued in parallel and merged only after all have resolved. With no token
// it returns (nil, nil) so the caller can tell "not authenticated" from
// "fetch in progress".
func (c *GameClient) GameDetail(ctx context.Context, gameID int) (*model.GameDetail, error) {
	if !c.t.hasToken() {
		return nil, nil
	}

	detail := &model.GameDetail{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		game, err := c.Game(ctx, gameID)
		detail.Game = game
		return err
	})
	g.Go(func() error {
		players, err := c.Players(ctx, gameID)
		detail.PlayersAll = players
		return err
	})
	g.Go(func() error {
		me, err := c.PlayerMe(ctx, gameID)
		detail.PlayerMe = me
		return err
	})
	g.Go(func() error {
		other, err := c.PlayersOther(ctx, gameID)
		detail.PlayersOther = other
		return err
	})
	g.Go(func() error {
		actions, err := c.GameActions(ctx, gameID)
		detail.Actions = actions
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return detail, nil
}
