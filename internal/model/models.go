package model

// Wire types for the Bizarre Poker REST API (base path /api/v1/).
// The server owns every value here; the client treats a fetched snapshot as
// immutable and replaces it wholesale on each poll.

// Card is a single card as serialized by the server. A nil *Card in a hand
// or on the table is a face-down placeholder, not an error.
type Card struct {
	Rank     int    `json:"rank"`
	Suit     int    `json:"suit"`
	IsJoker  bool   `json:"is_joker"`
	Kind     *int   `json:"kind,omitempty"`      // jokers only
	IsMirror *bool  `json:"is_mirror,omitempty"` // jokers only
	String   string `json:"string"`
}

type Combo struct {
	Kind  string  `json:"kind"`
	Chain []*Card `json:"chain"`
}

type Stage struct {
	Name      string `json:"name"`
	Performer string `json:"performer"`
	Status    string `json:"status"`
}

type GameConfig struct {
	Name             string `json:"name"`
	SmallBlind       int    `json:"small_blind"`
	BigBlind         int    `json:"big_blind"`
	BetMultiplicity  int    `json:"bet_multiplicity"`
	DealCardsAmounts []int  `json:"deal_cards_amounts"`
	FlopsAmounts     []int  `json:"flops_amounts"`
}

// ActionHistoryEntry is one event in a game's append-only, oldest-first log.
// An empty Performer marks a stage transition; otherwise the entry is
// attributed to that player.
type ActionHistoryEntry struct {
	Performer string `json:"performer,omitempty"`
	Message   string `json:"message"`
}

type GameSnapshot struct {
	ID              int                  `json:"id"`
	Status          string               `json:"status"`
	Stage           Stage                `json:"stage"`
	Config          GameConfig           `json:"config"`
	Table           []*Card              `json:"table"`
	Bank            int                  `json:"bank"`
	BankTotal       int                  `json:"bank_total"`
	Host            string               `json:"host"`
	Players         []string             `json:"players"`
	PlayersPreforms []string             `json:"players_preforms"`
	ActionsHistory  []ActionHistoryEntry `json:"actions_history"`
}

// PlayerView is one seated player. Hands of other players arrive as arrays
// of nulls of the real length and with no combo.
type PlayerView struct {
	User        string  `json:"user"`
	Position    int     `json:"position"`
	ProfileBank int     `json:"profile_bank"`
	Hand        []*Card `json:"hand"`
	Combo       *Combo  `json:"combo,omitempty"`
	Bets        []int   `json:"bets"`
	BetTotal    int     `json:"bet_total"`
	IsHost      bool    `json:"is_host"`
	IsDealer    bool    `json:"is_dealer"`
	IsPerformer bool    `json:"is_performer"`
}

// ActionValues bounds the bet slider.
type ActionValues struct {
	Min  int `json:"min"`
	Max  int `json:"max"`
	Step int `json:"step"`
}

// ActionDescriptor is one server-declared, server-gated action. The client
// never invents an action name; it only POSTs the given URL.
type ActionDescriptor struct {
	URL       string        `json:"url"`
	Available bool          `json:"available"`
	Help      string        `json:"help,omitempty"`
	Values    *ActionValues `json:"values,omitempty"`
}

// Actions maps action name (bet, fold, call, start, kick, leave, ...) to its
// descriptor.
type Actions map[string]ActionDescriptor

type Profile struct {
	Bank int `json:"bank"`
}

type User struct {
	ID       int      `json:"id"`
	Username string   `json:"username"`
	IsStaff  bool     `json:"is_staff"`
	Profile  *Profile `json:"profile,omitempty"`
}

// CreateChoice is one selectable game style from OPTIONS games/.
type CreateChoice struct {
	Value       string `json:"value"`
	DisplayName string `json:"display_name"`
}

// GameDetail is the merged result of the composite detail load: the game
// snapshot plus the three player projections and the current action map.
type GameDetail struct {
	Game         *GameSnapshot `json:"game"`
	PlayersAll   []PlayerView  `json:"playersAll"`
	PlayerMe     *PlayerView   `json:"playerMe"`
	PlayersOther []PlayerView  `json:"playersOther"`
	Actions      Actions       `json:"actions"`
}
