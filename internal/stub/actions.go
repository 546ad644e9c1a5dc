package stub

import (
	"fmt"
	"net/http"

	"bizarre-client/internal/model"
	"bizarre-client/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const actionURLFormat = "/api/v1/games/%d/actions/%s/"

var allActionNames = []string{
	"start", "end", "bet", "blind", "check", "reply", "vabank", "pass", "kick", "leave",
}

var actionHelp = map[string]string{
	"start":  "begin the round",
	"end":    "finish the round",
	"bet":    "place a bet of the chosen size",
	"blind":  "post the blind",
	"check":  "bet nothing",
	"reply":  "match the current bet",
	"vabank": "bet everything",
	"pass":   "fold this hand",
	"kick":   "remove a player between rounds",
	"leave":  "leave the game",
}

// cannedDeck feeds deterministic hands and flops. The stub replays cards,
// it never shuffles or evaluates them.
var cannedDeck = []model.Card{
	{Rank: 14, Suit: 1, String: "Ace|H"},
	{Rank: 13, Suit: 1, String: "King|H"},
	{Rank: 12, Suit: 2, String: "Queen|D"},
	{Rank: 11, Suit: 2, String: "Jack|D"},
	{Rank: 10, Suit: 3, String: "10|C"},
	{Rank: 9, Suit: 3, String: "9|C"},
	{Rank: 8, Suit: 4, String: "8|S"},
	{Rank: 7, Suit: 4, String: "7|S"},
	{Rank: 6, Suit: 1, String: "6|H"},
	{Rank: 5, Suit: 2, String: "5|D"},
	{Rank: 4, Suit: 3, String: "4|C"},
	{Rank: 3, Suit: 4, String: "3|S"},
	{Rank: 2, Suit: 1, String: "2|H"},
}

// dealtHand returns the canned hand for a seat once the game is running.
func dealtHand(body *gameBody, position int) []*model.Card {
	if body.Status != "gameplay" {
		return nil
	}
	amount := 0
	for _, n := range body.Config.DealCardsAmounts {
		amount += n
	}
	hand := make([]*model.Card, 0, amount)
	for i := 0; i < amount; i++ {
		card := cannedDeck[(position*amount+i)%len(cannedDeck)]
		hand = append(hand, &card)
	}
	return hand
}

func flopCards(config model.GameConfig) []*model.Card {
	if len(config.FlopsAmounts) == 0 {
		return nil
	}
	amount := config.FlopsAmounts[0]
	table := make([]*model.Card, 0, amount)
	for i := 0; i < amount; i++ {
		card := cannedDeck[len(cannedDeck)-1-i%len(cannedDeck)]
		table = append(table, &card)
	}
	return table
}

func actionURL(gameID int64, name string) string {
	return fmt.Sprintf(actionURLFormat, gameID, name)
}

// listActions reports every action name with its availability for the
// requesting player, matching the real service's always-complete map.
func (s *Server) listActions(c *gin.Context) {
	game, body, ok := s.gameAndBody(c)
	if !ok {
		return
	}
	viewer := currentUser(c)
	player, err := s.store.PlayerByName(game.ID, viewer.Username)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"detail": "User is not in the game."})
		return
	}

	actions := model.Actions{}
	for _, name := range allActionNames {
		actions[name] = model.ActionDescriptor{
			URL:       actionURL(game.ID, name),
			Available: false,
			Help:      actionHelp[name],
		}
	}

	enable := func(name string, values *model.ActionValues) {
		descriptor := actions[name]
		descriptor.Available = true
		descriptor.Values = values
		actions[name] = descriptor
	}

	enable("leave", nil)
	if player.IsHost {
		enable("kick", nil)
	}

	switch body.Status {
	case "setup":
		if player.IsHost {
			enable("start", nil)
		}
	case "gameplay":
		if player.IsHost {
			enable("end", nil)
		}
		if body.Stage.Performer == player.Username {
			enable("bet", &model.ActionValues{
				Min:  body.Config.BigBlind,
				Max:  viewer.Bank,
				Step: body.Config.BetMultiplicity,
			})
			enable("blind", nil)
			enable("check", nil)
			enable("reply", nil)
			enable("vabank", nil)
			enable("pass", nil)
		}
	}
	c.JSON(http.StatusOK, actions)
}

func (s *Server) performAction(c *gin.Context) {
	name := c.Param("name")
	if name == "forceContinue" {
		s.forceContinue(c)
		return
	}
	if _, known := actionHelp[name]; !known || name == "kick" || name == "leave" {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}

	game, body, ok := s.gameAndBody(c)
	if !ok {
		return
	}
	player, err := s.store.PlayerByName(game.ID, currentUser(c).Username)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"detail": "User is not in the game."})
		return
	}

	var payload struct {
		Value int `json:"value"`
	}
	// Every action accepts the bet value; only bet reads it.
	_ = c.ShouldBindJSON(&payload)

	switch name {
	case "start":
		if !player.IsHost || body.Status != "setup" {
			s.conflict(c, name)
			return
		}
		s.startGame(c, game, body, player)
	case "end":
		if !player.IsHost || body.Status != "gameplay" {
			s.conflict(c, name)
			return
		}
		body.Status = "setup"
		body.Stage = model.Stage{Name: "TearDownStage", Status: "round is over"}
		body.Table = nil
		body.History = append(body.History,
			model.ActionHistoryEntry{Performer: player.Username, Message: player.Username + " end"},
			model.ActionHistoryEntry{Message: "stage: TearDownStage"},
		)
		s.saveAndRespond(c, game, body)
	default:
		if body.Status != "gameplay" || body.Stage.Performer != player.Username {
			s.conflict(c, name)
			return
		}
		message := fmt.Sprintf("%s %s", player.Username, name)
		if name == "bet" {
			message = fmt.Sprintf("%s bet %d", player.Username, payload.Value)
			body.Bank += payload.Value
			body.BankTotal += payload.Value
			if err := s.store.AddBet(game.ID, player.Username, payload.Value); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
				return
			}
		}
		body.History = append(body.History, model.ActionHistoryEntry{Performer: player.Username, Message: message})
		s.advancePerformer(game, body)
		s.saveAndRespond(c, game, body)
	}
}

func (s *Server) startGame(c *gin.Context, game *Game, body *gameBody, host *Player) {
	body.Status = "gameplay"
	body.Table = flopCards(body.Config)
	body.Stage = model.Stage{
		Name:      "BiddingsStage",
		Status:    "waiting for bets",
		Performer: host.Username,
	}
	body.History = append(body.History,
		model.ActionHistoryEntry{Performer: host.Username, Message: host.Username + " start"},
		model.ActionHistoryEntry{Message: "stage: BiddingsStage"},
	)
	s.advancePerformer(game, body)
	s.saveAndRespond(c, game, body)
}

// advancePerformer rotates the turn to the next seat. The real service
// derives this from the stage machinery; the stub just goes around the
// table.
func (s *Server) advancePerformer(game *Game, body *gameBody) {
	players, err := s.store.Players(game.ID)
	if err != nil || len(players) == 0 {
		return
	}
	current := -1
	for i, p := range players {
		if p.Username == body.Stage.Performer {
			current = i
			break
		}
	}
	body.Stage.Performer = players[(current+1)%len(players)].Username
}

func (s *Server) conflict(c *gin.Context, name string) {
	c.JSON(http.StatusConflict, gin.H{"detail": "Action forbidden for current game state: " + name})
}

func (s *Server) saveAndRespond(c *gin.Context, game *Game, body *gameBody) {
	if err := s.store.saveBody(game, body); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	snap, err := s.snapshot(game)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// forceContinue lets staff push the game along by performing the current
// performer's action for them.
func (s *Server) forceContinue(c *gin.Context) {
	user := currentUser(c)
	if !user.IsStaff {
		c.JSON(http.StatusForbidden, gin.H{"detail": "You do not have permission to perform this action."})
		return
	}

	game, body, ok := s.gameAndBody(c)
	if !ok {
		return
	}
	if body.Status != "gameplay" {
		c.JSON(http.StatusConflict, gin.H{"detail": "Nothing to force outside of gameplay."})
		return
	}

	performer := body.Stage.Performer
	body.History = append(body.History,
		model.ActionHistoryEntry{Performer: performer, Message: performer + " check (forced)"},
	)
	s.advancePerformer(game, body)

	logger.Log.Info("stage advance forced",
		zap.Int64("gameID", game.ID),
		zap.String("by", user.Username),
		zap.String("for", performer),
		zap.String("requestID", c.GetHeader("X-Request-ID")),
	)
	s.saveAndRespond(c, game, body)
}

// AddBet accumulates a player's bet total for the round.
func (s *Store) AddBet(gameID int64, username string, value int) error {
	player, err := s.PlayerByName(gameID, username)
	if err != nil {
		return err
	}
	return s.db.Model(player).Update("bet_total", player.BetTotal+value).Error
}
