package stub

import "bizarre-client/internal/model"

// Configurations mirrors the server's selectable game styles. Values are
// representative, not authoritative; the real service owns them.
var Configurations = map[string]model.GameConfig{
	"classic": {
		Name:             "classic",
		SmallBlind:       5,
		BigBlind:         10,
		BetMultiplicity:  5,
		DealCardsAmounts: []int{2},
		FlopsAmounts:     []int{3, 1, 1},
	},
	"bizarre": {
		Name:             "bizarre",
		SmallBlind:       5,
		BigBlind:         10,
		BetMultiplicity:  5,
		DealCardsAmounts: []int{2, 1},
		FlopsAmounts:     []int{3, 2, 1},
	},
	"cheeky": {
		Name:             "cheeky",
		SmallBlind:       10,
		BigBlind:         20,
		BetMultiplicity:  10,
		DealCardsAmounts: []int{3},
		FlopsAmounts:     []int{5},
	},
	"foolish": {
		Name:             "foolish",
		SmallBlind:       1,
		BigBlind:         2,
		BetMultiplicity:  1,
		DealCardsAmounts: []int{2},
		FlopsAmounts:     []int{3, 1, 1, 1},
	},
}

// ConfigChoices lists the styles in the order OPTIONS games/ reports them.
var ConfigChoices = []model.CreateChoice{
	{Value: "bizarre", DisplayName: "Bizarre"},
	{Value: "cheeky", DisplayName: "Cheeky"},
	{Value: "foolish", DisplayName: "Foolish"},
	{Value: "classic", DisplayName: "Classic"},
}
