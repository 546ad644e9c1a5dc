package stub

import (
	"encoding/json"
	"errors"

	"bizarre-client/internal/model"
	"bizarre-client/pkg/apperrors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// The stub persists just enough to honor the REST contract: accounts, games
// and seating. It replays snapshot state, it does not play poker.

type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	IsStaff      bool
	Bank         int `gorm:"default:1000"`
}

type Game struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	ConfigName string `gorm:"not null"`
	BodyJSON   datatypes.JSON
}

type Player struct {
	ID       int64 `gorm:"primaryKey;autoIncrement"`
	GameID   int64 `gorm:"index;not null"`
	Username string
	Position int
	IsHost   bool
	IsDealer bool
	BetTotal int
}

// Preform is a pending join request awaiting host approval.
type Preform struct {
	ID       int64 `gorm:"primaryKey;autoIncrement"`
	GameID   int64 `gorm:"index;not null"`
	Username string
}

// gameBody is the server-owned part of a snapshot that the stub replays.
type gameBody struct {
	Status    string                     `json:"status"`
	Stage     model.Stage                `json:"stage"`
	Config    model.GameConfig           `json:"config"`
	Table     []*model.Card              `json:"table"`
	Bank      int                        `json:"bank"`
	BankTotal int                        `json:"bank_total"`
	History   []model.ActionHistoryEntry `json:"history"`
}

type Store struct {
	db *gorm.DB
}

func NewStore(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&User{}, &Game{}, &Player{}, &Preform{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) CreateUser(username, password string, staff bool) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := User{Username: username, PasswordHash: string(hash), IsStaff: staff}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// EnsureStaffUser seeds the privileged account the forceContinue override
// is tested with. Existing accounts are left alone.
func (s *Store) EnsureStaffUser(username, password string) error {
	if _, err := s.UserByName(username); err == nil {
		return nil
	}
	_, err := s.CreateUser(username, password, true)
	return err
}

func (s *Store) Authenticate(username, password string) (*User, error) {
	var user User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

func (s *Store) UserByName(username string) (*User, error) {
	var user User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) CreateGame(configName string, host string) (*Game, error) {
	config, ok := Configurations[configName]
	if !ok {
		return nil, apperrors.ErrGameNotFound
	}
	body := gameBody{
		Status: "setup",
		Stage:  model.Stage{Name: "SetupStage", Status: "wait while host start the game"},
		Config: config,
		History: []model.ActionHistoryEntry{
			{Message: "game created"},
		},
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	game := Game{ConfigName: configName, BodyJSON: data}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&game).Error; err != nil {
			return err
		}
		hostPlayer := Player{GameID: game.ID, Username: host, Position: 0, IsHost: true, IsDealer: true}
		return tx.Create(&hostPlayer).Error
	})
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func (s *Store) Games() ([]Game, error) {
	var games []Game
	if err := s.db.Order("id").Find(&games).Error; err != nil {
		return nil, err
	}
	return games, nil
}

func (s *Store) GameByID(id int64) (*Game, error) {
	var game Game
	if err := s.db.First(&game, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrGameNotFound
		}
		return nil, err
	}
	return &game, nil
}

func (s *Store) Players(gameID int64) ([]Player, error) {
	var players []Player
	if err := s.db.Where("game_id = ?", gameID).Order("position").Find(&players).Error; err != nil {
		return nil, err
	}
	return players, nil
}

func (s *Store) PlayerByName(gameID int64, username string) (*Player, error) {
	var player Player
	err := s.db.Where("game_id = ? AND username = ?", gameID, username).First(&player).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPlayerNotFound
		}
		return nil, err
	}
	return &player, nil
}

func (s *Store) Preforms(gameID int64) ([]Preform, error) {
	var waiting []Preform
	if err := s.db.Where("game_id = ?", gameID).Order("id").Find(&waiting).Error; err != nil {
		return nil, err
	}
	return waiting, nil
}

// RequestJoin records a join request. Seated players and duplicate requests
// are rejected.
func (s *Store) RequestJoin(gameID int64, username string) error {
	if _, err := s.PlayerByName(gameID, username); err == nil {
		return apperrors.ErrAlreadyJoined
	}
	var count int64
	s.db.Model(&Preform{}).Where("game_id = ? AND username = ?", gameID, username).Count(&count)
	if count > 0 {
		return apperrors.ErrAlreadyJoined
	}
	return s.db.Create(&Preform{GameID: gameID, Username: username}).Error
}

// ApproveJoin promotes a waiting user to a seated player.
func (s *Store) ApproveJoin(gameID int64, username string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var preform Preform
		err := tx.Where("game_id = ? AND username = ?", gameID, username).First(&preform).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotWaiting
			}
			return err
		}
		if err := tx.Delete(&preform).Error; err != nil {
			return err
		}
		var position int64
		tx.Model(&Player{}).Where("game_id = ?", gameID).Count(&position)
		return tx.Create(&Player{GameID: gameID, Username: username, Position: int(position)}).Error
	})
}

func (s *Store) RemovePlayer(gameID int64, username string) error {
	result := s.db.Where("game_id = ? AND username = ?", gameID, username).Delete(&Player{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrPlayerNotFound
	}
	return nil
}

func (s *Store) gameBody(game *Game) (*gameBody, error) {
	var body gameBody
	if err := json.Unmarshal(game.BodyJSON, &body); err != nil {
		return nil, err
	}
	return &body, nil
}

func (s *Store) saveBody(game *Game, body *gameBody) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	game.BodyJSON = data
	return s.db.Model(game).Update("body_json", game.BodyJSON).Error
}

// AppendHistory records one event on the game's append-only log and
// optionally moves the stage name along.
func (s *Store) AppendHistory(gameID int64, entry model.ActionHistoryEntry, status string) error {
	game, err := s.GameByID(gameID)
	if err != nil {
		return err
	}
	body, err := s.gameBody(game)
	if err != nil {
		return err
	}
	body.History = append(body.History, entry)
	if status != "" {
		body.Status = status
	}
	return s.saveBody(game, body)
}
