package ui

import (
	"fmt"
	"strings"

	"bizarre-client/internal/model"
	"bizarre-client/internal/session"
	"bizarre-client/internal/view"

	"github.com/pterm/pterm"
)

// Terminal rendering of the derived view-model. Everything here is
// presentational; all decisions were already made by the view package.

const faceDown = "[##]"

func cardString(card *model.Card) string {
	if card == nil {
		return faceDown
	}
	return card.String
}

func cardRow(cards []*model.Card) string {
	parts := make([]string, 0, len(cards))
	for _, card := range cards {
		parts = append(parts, cardString(card))
	}
	return strings.Join(parts, " ")
}

// RenderGameList prints the lobby with each game's join tri-state for the
// viewer.
func RenderGameList(games []model.GameSnapshot, s *session.Session) {
	if len(games) == 0 {
		pterm.Info.Println("No games")
		return
	}

	viewer := ""
	if s != nil {
		viewer = s.Username
	}

	rows := pterm.TableData{{"id", "status", "players", "action"}}
	for _, game := range games {
		button := view.JoinState(&game, viewer)
		label := button.Label
		if button.Disabled {
			label = pterm.Gray(label)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", game.ID),
			game.Status,
			strings.Join(game.Players, ", "),
			label,
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

// RenderGame draws one poll's worth of game state: stage banner, table,
// bank, players and the latest activity lines.
func RenderGame(detail *model.GameDetail, s *session.Session) {
	if detail == nil || detail.Game == nil {
		pterm.Info.Println("loading...")
		return
	}
	game := detail.Game

	pterm.DefaultSection.Printfln("game %d: %s (%s)", game.ID, game.Config.Name, game.Status)
	pterm.Info.Println(game.Stage.Status)

	table := view.PadCards(game.Table, view.TableSlots(game.Config))
	pterm.DefaultBox.WithTitle("table").Println(cardRow(table))
	pterm.Printfln("bank: %d (round) / %d (total)", game.Bank, game.BankTotal)

	if detail.PlayerMe != nil {
		renderPlayer(*detail.PlayerMe, game, true)
	}
	for _, player := range detail.PlayersOther {
		renderPlayer(player, game, false)
	}

	stage, player := view.LatestActions(game.ActionsHistory)
	if stage != nil {
		pterm.Println(pterm.LightYellow(stage.Message))
	}
	if player != nil {
		pterm.Println(pterm.LightCyan(player.Message))
	}

	if len(game.PlayersPreforms) > 0 {
		pterm.Info.Printfln("waiting for approval: %s", strings.Join(game.PlayersPreforms, ", "))
	}
}

func renderPlayer(player model.PlayerView, game *model.GameSnapshot, me bool) {
	hand := view.PadCards(player.Hand, view.HandSlots(game.Config))

	badges := []string{fmt.Sprintf("%d$", player.ProfileBank)}
	if player.IsHost {
		badges = append(badges, "host")
	}
	if player.IsDealer {
		badges = append(badges, "dealer")
	}
	if player.BetTotal > 0 {
		badges = append(badges, fmt.Sprintf("bet %d", player.BetTotal))
	}
	if player.Combo != nil {
		badges = append(badges, player.Combo.Kind)
	}

	name := player.User
	if me {
		name = name + " (you)"
	}
	if player.IsPerformer {
		name = pterm.LightGreen("> " + name)
	}

	line := fmt.Sprintf("%s  %s  [%s]", name, cardRow(hand), strings.Join(badges, ", "))
	if last := view.LatestActionBy(game.ActionsHistory, player.User); last != nil {
		line += "  " + pterm.Gray(last.Message)
	}
	pterm.Println(line)
}

// RenderActions prints the action row plus the bet slider state and, when
// visible for this viewer, the force override.
func RenderActions(detail *model.GameDetail, s *session.Session) {
	buttons := view.ActionButtons(detail.Actions)
	parts := make([]string, 0, len(buttons)+1)
	for _, button := range buttons {
		label := button.Name
		if button.ShowValue {
			label = "bet$"
		}
		switch {
		case button.Disabled:
			label = pterm.Gray(label)
		case button.Variant == "primary":
			label = pterm.LightGreen(label)
		}
		parts = append(parts, label)
	}

	var user *model.User
	if s != nil {
		user = s.User
	}
	if view.ForceContinueVisible(user) {
		parts = append(parts, pterm.LightRed("force"))
	}
	pterm.Println(strings.Join(parts, "  "))

	slider := view.BetSliderState(detail.Actions)
	if !slider.Disabled {
		pterm.Printfln("bet range: %d..%d step %d", slider.Min, slider.Max, slider.Step)
	}
}

// RenderHistory prints the full log with the viewer's entries highlighted.
func RenderHistory(history []model.ActionHistoryEntry, viewer string) {
	for _, entry := range history {
		switch view.HistoryTone(entry, viewer) {
		case "primary":
			pterm.Println(pterm.LightCyan(entry.Message))
		case "secondary":
			pterm.Println(entry.Message)
		default:
			pterm.Println(pterm.Gray(entry.Message))
		}
	}
}

// RenderError shows the transient error surface, if anything is on it.
func RenderError(err error) {
	if err == nil {
		return
	}
	pterm.Warning.Println(err.Error())
}

// RenderFieldErrors prints a field-keyed validation failure next to the
// form that caused it.
func RenderFieldErrors(fields map[string][]string) {
	for field, messages := range fields {
		pterm.Error.Printfln("%s: %s", field, strings.Join(messages, "; "))
	}
}
