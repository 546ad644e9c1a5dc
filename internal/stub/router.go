package stub

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bizarre-client/internal/model"
	"bizarre-client/pkg/apperrors"
	"bizarre-client/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const contextUserKey = "stubUser"

// Server is a development stand-in for the real poker backend. It honors
// the auth and join contract and replays snapshot state; it does not
// evaluate hands or enforce betting rules.
type Server struct {
	store  *Store
	tokens *TokenIssuer
}

func NewServer(store *Store, tokens *TokenIssuer) *Server {
	return &Server{store: store, tokens: tokens}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	v1 := r.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/token/login/", s.login)
	auth.POST("/users/", s.signUp)
	auth.POST("/token/logout/", s.tokenRequired(), s.logout)
	auth.GET("/users/me/", s.tokenRequired(), s.me)

	games := v1.Group("/games")
	games.GET("/", s.listGames)
	games.OPTIONS("/", s.gameOptions)
	games.POST("/", s.tokenRequired(), s.createGame)
	games.GET("/:id/", s.tokenRequired(), s.getGame)
	games.GET("/:id/players/", s.tokenRequired(), s.listPlayers)
	games.GET("/:id/players/me/", s.tokenRequired(), s.playerMe)
	games.GET("/:id/players/other/", s.tokenRequired(), s.playersOther)
	games.POST("/:id/players/", s.tokenRequired(), s.approveJoin)
	games.DELETE("/:id/players/:username/", s.tokenRequired(), s.removePlayer)
	games.POST("/:id/playersPreforms/", s.tokenRequired(), s.requestJoin)
	games.GET("/:id/actions/", s.tokenRequired(), s.listActions)
	// forceContinue dispatches through the same generic route so the action
	// URL space stays one pattern.
	games.POST("/:id/actions/:name/", s.tokenRequired(), s.performAction)
}

// tokenRequired resolves "Authorization: Token <t>" to a user. The token is
// opaque on the wire; only the stub knows it is a JWT.
func (s *Server) tokenRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Token") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
			return
		}
		username, err := s.tokens.Parse(strings.TrimSpace(parts[1]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token."})
			return
		}
		user, err := s.store.UserByName(username)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token."})
			return
		}
		c.Set(contextUserKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *User {
	return c.MustGet(contextUserKey).(*User)
}

type credentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func validateCredentials(p credentialsPayload) map[string][]string {
	fields := map[string][]string{}
	if strings.TrimSpace(p.Username) == "" {
		fields["username"] = []string{"This field may not be blank."}
	}
	if strings.TrimSpace(p.Password) == "" {
		fields["password"] = []string{"This field may not be blank."}
	}
	return fields
}

func (s *Server) login(c *gin.Context) {
	var payload credentialsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"non_field_errors": []string{"Invalid request body."}})
		return
	}
	if fields := validateCredentials(payload); len(fields) > 0 {
		c.JSON(http.StatusBadRequest, fields)
		return
	}

	user, err := s.store.Authenticate(payload.Username, payload.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"non_field_errors": []string{"Unable to log in with provided credentials."},
		})
		return
	}

	token, err := s.tokens.Generate(user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"auth_token": token})
}

func (s *Server) signUp(c *gin.Context) {
	var payload credentialsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"non_field_errors": []string{"Invalid request body."}})
		return
	}
	if fields := validateCredentials(payload); len(fields) > 0 {
		c.JSON(http.StatusBadRequest, fields)
		return
	}
	if _, err := s.store.UserByName(payload.Username); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"username": []string{"A user with that username already exists."},
		})
		return
	}

	user, err := s.store.CreateUser(payload.Username, payload.Password, false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "username": user.Username})
}

func (s *Server) logout(c *gin.Context) {
	// Stateless tokens; nothing to revoke in a dev stub.
	c.Status(http.StatusNoContent)
}

func (s *Server) me(c *gin.Context) {
	user := currentUser(c)
	c.JSON(http.StatusOK, model.User{
		ID:       int(user.ID),
		Username: user.Username,
		IsStaff:  user.IsStaff,
		Profile:  &model.Profile{Bank: user.Bank},
	})
}

func (s *Server) gameID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return 0, false
	}
	return id, true
}

// snapshot assembles the wire GameSnapshot from the stored body plus the
// live seating rows.
func (s *Server) snapshot(game *Game) (*model.GameSnapshot, error) {
	body, err := s.store.gameBody(game)
	if err != nil {
		return nil, err
	}
	players, err := s.store.Players(game.ID)
	if err != nil {
		return nil, err
	}
	preforms, err := s.store.Preforms(game.ID)
	if err != nil {
		return nil, err
	}

	snap := &model.GameSnapshot{
		ID:             int(game.ID),
		Status:         body.Status,
		Stage:          body.Stage,
		Config:         body.Config,
		Table:          body.Table,
		Bank:           body.Bank,
		BankTotal:      body.BankTotal,
		ActionsHistory: body.History,
	}
	for _, p := range players {
		snap.Players = append(snap.Players, p.Username)
		if p.IsHost {
			snap.Host = p.Username
		}
	}
	for _, w := range preforms {
		snap.PlayersPreforms = append(snap.PlayersPreforms, w.Username)
	}
	return snap, nil
}

func (s *Server) listGames(c *gin.Context) {
	games, err := s.store.Games()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	snaps := make([]*model.GameSnapshot, 0, len(games))
	for i := range games {
		snap, err := s.snapshot(&games[i])
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
			return
		}
		snaps = append(snaps, snap)
	}
	c.JSON(http.StatusOK, snaps)
}

// gameOptions mimics the metadata response the client reads the create
// choices from.
func (s *Server) gameOptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name": "Game List",
		"actions": gin.H{
			"POST": gin.H{
				"config_name": gin.H{
					"type":     "choice",
					"required": false,
					"choices":  ConfigChoices,
				},
			},
		},
	})
}

func (s *Server) createGame(c *gin.Context) {
	var payload struct {
		ConfigName string `json:"config_name"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil || payload.ConfigName == "" {
		payload.ConfigName = "classic"
	}
	if _, ok := Configurations[payload.ConfigName]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"config_name": []string{"\"" + payload.ConfigName + "\" is not a valid choice."},
		})
		return
	}

	game, err := s.store.CreateGame(payload.ConfigName, currentUser(c).Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	snap, err := s.snapshot(game)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	logger.Log.Info("stub game created",
		zap.Int64("gameID", game.ID),
		zap.String("config", game.ConfigName),
		zap.String("host", currentUser(c).Username),
	)
	c.JSON(http.StatusCreated, snap)
}

func (s *Server) getGame(c *gin.Context) {
	id, ok := s.gameID(c)
	if !ok {
		return
	}
	game, err := s.store.GameByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	snap, err := s.snapshot(game)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// playerView serializes one seated player. Another player's hand comes out
// as nulls of the real length with no combo, like the real server's hidden
// serializer.
func (s *Server) playerView(p Player, body *gameBody, hidden bool) model.PlayerView {
	view := model.PlayerView{
		User:        p.Username,
		Position:    p.Position,
		BetTotal:    p.BetTotal,
		IsHost:      p.IsHost,
		IsDealer:    p.IsDealer,
		IsPerformer: body.Stage.Performer == p.Username,
	}
	if p.BetTotal > 0 {
		view.Bets = []int{p.BetTotal}
	}
	if user, err := s.store.UserByName(p.Username); err == nil {
		view.ProfileBank = user.Bank
	}

	hand := dealtHand(body, p.Position)
	if hidden {
		view.Hand = make([]*model.Card, len(hand))
	} else {
		view.Hand = hand
	}
	return view
}

func (s *Server) gameAndBody(c *gin.Context) (*Game, *gameBody, bool) {
	id, ok := s.gameID(c)
	if !ok {
		return nil, nil, false
	}
	game, err := s.store.GameByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return nil, nil, false
	}
	body, err := s.store.gameBody(game)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return nil, nil, false
	}
	return game, body, true
}

func (s *Server) listPlayers(c *gin.Context) {
	game, body, ok := s.gameAndBody(c)
	if !ok {
		return
	}
	players, err := s.store.Players(game.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	viewer := currentUser(c).Username
	views := make([]model.PlayerView, 0, len(players))
	for _, p := range players {
		views = append(views, s.playerView(p, body, p.Username != viewer))
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) playerMe(c *gin.Context) {
	game, body, ok := s.gameAndBody(c)
	if !ok {
		return
	}
	player, err := s.store.PlayerByName(game.ID, currentUser(c).Username)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	c.JSON(http.StatusOK, s.playerView(*player, body, false))
}

func (s *Server) playersOther(c *gin.Context) {
	game, body, ok := s.gameAndBody(c)
	if !ok {
		return
	}
	players, err := s.store.Players(game.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	viewer := currentUser(c).Username
	views := make([]model.PlayerView, 0, len(players))
	for _, p := range players {
		if p.Username == viewer {
			continue
		}
		views = append(views, s.playerView(p, body, true))
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) requestJoin(c *gin.Context) {
	id, ok := s.gameID(c)
	if !ok {
		return
	}
	if _, err := s.store.GameByID(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	err := s.store.RequestJoin(id, currentUser(c).Username)
	if errors.Is(err, apperrors.ErrAlreadyJoined) {
		c.JSON(http.StatusBadRequest, gin.H{
			"user": []string{"User can not make many requests to join a single game."},
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": currentUser(c).Username})
}

func (s *Server) approveJoin(c *gin.Context) {
	id, ok := s.gameID(c)
	if !ok {
		return
	}
	host, err := s.store.PlayerByName(id, currentUser(c).Username)
	if err != nil || !host.IsHost {
		c.JSON(http.StatusForbidden, gin.H{"detail": "Only the host may approve joining."})
		return
	}

	var payload struct {
		User string `json:"user"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil || payload.User == "" {
		c.JSON(http.StatusBadRequest, gin.H{"user": []string{"This field may not be blank."}})
		return
	}

	err = s.store.ApproveJoin(id, payload.User)
	if errors.Is(err, apperrors.ErrNotWaiting) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "User is not waiting to take part in game."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	if err := s.store.AppendHistory(id, model.ActionHistoryEntry{Message: payload.User + " joined the game"}, ""); err != nil {
		logger.Log.Warn("failed to record join", zap.Error(err))
	}
	c.JSON(http.StatusCreated, gin.H{"user": payload.User})
}

// removePlayer covers kick and leave; the server tells them apart only by
// who sends the DELETE.
func (s *Server) removePlayer(c *gin.Context) {
	id, ok := s.gameID(c)
	if !ok {
		return
	}
	target := c.Param("username")
	requester := currentUser(c).Username

	if target != requester {
		player, err := s.store.PlayerByName(id, requester)
		if err != nil || !player.IsHost {
			c.JSON(http.StatusForbidden, gin.H{"detail": "Only the host may kick players."})
			return
		}
	}

	err := s.store.RemovePlayer(id, target)
	if errors.Is(err, apperrors.ErrPlayerNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	message := target + " left the game"
	if target != requester {
		message = target + " was kicked out"
	}
	if err := s.store.AppendHistory(id, model.ActionHistoryEntry{Message: message}, ""); err != nil {
		logger.Log.Warn("failed to record removal", zap.Error(err))
	}
	c.Status(http.StatusNoContent)
}
