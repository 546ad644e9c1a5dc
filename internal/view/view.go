package view

import (
	"sort"

	"bizarre-client/internal/model"
)

// Pure snapshot-to-presentation derivations. Everything here is idempotent
// on the same inputs and touches no shared state.

// LatestActions scans the history from newest to oldest and picks the most
// recent stage-level entry (no performer) and the most recent
// player-attributed entry. The scan stops as soon as both are found. Either
// result may be nil. Ties resolve to the entry nearest the end; that is a
// policy, not an accident of iteration order.
func LatestActions(history []model.ActionHistoryEntry) (stage, player *model.ActionHistoryEntry) {
	for i := len(history) - 1; i >= 0; i-- {
		entry := history[i]
		if entry.Performer == "" {
			if stage == nil {
				stage = &entry
			}
		} else if player == nil {
			player = &entry
		}
		if stage != nil && player != nil {
			break
		}
	}
	return stage, player
}

// LatestActionBy returns the newest history entry performed by the given
// player, or nil if they have not acted yet.
func LatestActionBy(history []model.ActionHistoryEntry, user string) *model.ActionHistoryEntry {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Performer == user {
			entry := history[i]
			return &entry
		}
	}
	return nil
}

// PadCards pads missing trailing slots with nil so the renderer always
// draws a fixed-width hand or board no matter how many cards the server
// has revealed. For any input of length <= total the result has length
// exactly total with the originals preserved in order.
func PadCards(cards []*model.Card, total int) []*model.Card {
	if len(cards) >= total {
		return cards
	}
	padded := make([]*model.Card, total)
	copy(padded, cards)
	return padded
}

// HandSlots is the fixed hand width: the sum of the configured per-stage
// deal amounts.
func HandSlots(config model.GameConfig) int {
	return sum(config.DealCardsAmounts)
}

// TableSlots is the fixed board width: the sum of the configured flop
// amounts.
func TableSlots(config model.GameConfig) int {
	return sum(config.FlopsAmounts)
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}

// ActionButton is the rendered affordance for one server-declared action.
type ActionButton struct {
	Name      string
	URL       string
	Help      string
	Variant   string // primary when available, outline-primary otherwise
	Disabled  bool
	ShowValue bool // bet shows the current slider value on the button
}

// ActionButtons derives the main action row. Kick and leave never render
// here (they live on the players panel), and start/end render only while
// available. Buttons come out name-sorted so rendering is stable across
// polls.
func ActionButtons(actions model.Actions) []ActionButton {
	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	sort.Strings(names)

	buttons := make([]ActionButton, 0, len(names))
	for _, name := range names {
		action := actions[name]
		if name == "kick" || name == "leave" {
			continue
		}
		if (name == "start" || name == "end") && !action.Available {
			continue
		}

		variant := "outline-primary"
		if action.Available {
			variant = "primary"
		}
		buttons = append(buttons, ActionButton{
			Name:      name,
			URL:       action.URL,
			Help:      action.Help,
			Variant:   variant,
			Disabled:  !action.Available,
			ShowValue: name == "bet" && action.Available,
		})
	}
	return buttons
}

// BetSlider is the state of the bet-amount input. Only the bet action's
// availability gates it; no other action blocks the slider and the slider
// blocks no other action.
type BetSlider struct {
	Min      int
	Max      int
	Step     int
	Disabled bool
}

func BetSliderState(actions model.Actions) BetSlider {
	bet, ok := actions["bet"]
	if !ok {
		return BetSlider{Disabled: true}
	}
	slider := BetSlider{Disabled: !bet.Available}
	if bet.Values != nil {
		slider.Min = bet.Values.Min
		slider.Max = bet.Values.Max
		slider.Step = bet.Values.Step
	}
	return slider
}

// ForceContinueVisible decides whether the privileged stage-advance button
// shows. Staff see it; so does a viewer whose profile has not resolved,
// because the hiding condition cannot be evaluated yet. That fail-open is
// observable behavior inherited from the original UI and is preserved
// as-is rather than silently tightened.
func ForceContinueVisible(user *model.User) bool {
	if user == nil {
		return true
	}
	return user.IsStaff
}

// JoinKind is the mutually exclusive join-button state for a (viewer, game)
// pair.
type JoinKind int

const (
	// JoinRequest: not seated and not waiting; clicking submits a join
	// request, or redirects to login for anonymous viewers.
	JoinRequest JoinKind = iota
	// JoinWait: a join request is pending host approval.
	JoinWait
	// JoinContinue: already seated; clicking navigates into the game.
	JoinContinue
)

type JoinButton struct {
	Kind     JoinKind
	Label    string
	Disabled bool
}

// JoinState picks exactly one of the three join-button configurations.
func JoinState(game *model.GameSnapshot, viewer string) JoinButton {
	for _, player := range game.Players {
		if viewer != "" && player == viewer {
			return JoinButton{Kind: JoinContinue, Label: "continue"}
		}
	}
	for _, waiting := range game.PlayersPreforms {
		if viewer != "" && waiting == viewer {
			return JoinButton{Kind: JoinWait, Label: "wait for approval", Disabled: true}
		}
	}
	return JoinButton{Kind: JoinRequest, Label: "join"}
}

// HistoryTone classifies one history entry for rendering: stage transitions
// read neutral, the viewer's own actions read loud, everyone else's read
// muted.
func HistoryTone(entry model.ActionHistoryEntry, viewer string) string {
	switch {
	case entry.Performer == "":
		return "light"
	case entry.Performer == viewer:
		return "primary"
	default:
		return "secondary"
	}
}
