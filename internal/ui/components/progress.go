package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/adaptiq/internal/ui/theme"
)

// ProgressBar displays a labelled horizontal bar for a 0-100 score.
type ProgressBar struct {
	Label string
	Score int
	Width int
	// Done switches the fill color to mark a finished goal.
	Done bool
}

// NewProgressBar creates a bar for score, clamped to 0-100.
func NewProgressBar(label string, score, width int) ProgressBar {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return ProgressBar{Label: label, Score: score, Width: width}
}

func (p ProgressBar) View() string {
	var result string
	if p.Label != "" {
		result += lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label) + "  "
	}

	// " 100%"
	const percentWidth = 6
	barWidth := p.Width - lipgloss.Width(result) - percentWidth
	if barWidth < 4 {
		barWidth = 4
	}
	filled := barWidth * p.Score / 100
	empty := barWidth - filled

	fill := theme.ProgressFilled
	if p.Done {
		fill = fill.Background(theme.Success)
	}
	result += fill.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", empty))

	result += lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("  %d%%", p.Score))
	return result
}
