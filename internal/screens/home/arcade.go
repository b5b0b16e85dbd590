package home

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/adaptiq/internal/mastery"
	"github.com/abhisek/adaptiq/internal/ui/theme"
)

const titleFull = `  ___      _             _   ___ ___
 / _ \  __| | __ _ _ __ | |_|_ _/ _ \
| |_| |/ _' |/ _' | '_ \| __|| | | | |
|  _  | (_| | (_| | |_) | |_ | | |_| |
|_| |_|\__,_|\__,_| .__/ \__|___\__\_\
                  |_|`

const titleCompact = "A · D · A · P · T · I · Q"

func renderTitle(cw int, compact bool) string {
	style := lipgloss.NewStyle().
		Foreground(theme.ArcadeYellow).
		Bold(true)

	text := titleFull
	if compact {
		text = titleCompact
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(style.Render(text))
}

// renderStatsBar shows the student and how many chapters are loaded.
func renderStatsBar(student string, chapters, cw int) string {
	who := lipgloss.NewStyle().Foreground(theme.ArcadeYellow).Bold(true)
	dim := lipgloss.NewStyle().Foreground(theme.ArcadeCyan).Bold(true)

	stats := fmt.Sprintf("%s  %s",
		who.Render("● "+strings.ToUpper(student)),
		dim.Render(fmt.Sprintf("%d CHAPTERS", chapters)),
	)
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.ArcadeCyan).
		Width(cw - 2).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(stats)
}

// masteryBadge renders a concept's state and proficiency for the concept
// list.
func masteryBadge(m mastery.ConceptMastery) string {
	switch m.State() {
	case mastery.StateMastered:
		return fmt.Sprintf("★ mastered %d%%", m.ProficiencyScore)
	case mastery.StateLearning:
		return fmt.Sprintf("◐ learning %d%%", m.ProficiencyScore)
	default:
		return "○ new"
	}
}

func renderMessage(text string, c lipgloss.Style, cw int) string {
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(c.Render(text))
}
