package summary

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/adaptiq/internal/router"
	"github.com/abhisek/adaptiq/internal/screen"
	"github.com/abhisek/adaptiq/internal/session"
	"github.com/abhisek/adaptiq/internal/stars"
	"github.com/abhisek/adaptiq/internal/ui/layout"
	"github.com/abhisek/adaptiq/internal/ui/theme"
)

// SummaryScreen displays the result of an ended session.
type SummaryScreen struct {
	summary *session.Summary
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

func New(summary *session.Summary) *SummaryScreen {
	return &SummaryScreen{summary: summary}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Session Summary"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Continue"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "enter", "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.summary
	if sum == nil {
		return ""
	}

	var b strings.Builder
	line := func(style lipgloss.Style, text string) {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(text)))
		b.WriteString("\n")
	}

	line(lipgloss.NewStyle().Foreground(theme.Primary).Bold(true), "Session complete!")
	b.WriteString("\n")

	mins := int(sum.Duration.Minutes())
	secs := int(sum.Duration.Seconds()) % 60
	line(lipgloss.NewStyle().Foreground(theme.TextDim), fmt.Sprintf("Duration: %d:%02d", mins, secs))
	b.WriteString("\n")

	line(lipgloss.NewStyle().Foreground(theme.Text), fmt.Sprintf(
		"Questions: %d        Correct: %d        Accuracy: %.0f%%",
		sum.TotalAttempts, sum.TotalCorrect, sum.Accuracy*100))
	line(lipgloss.NewStyle(), starTally(stars.Counts(sum.Stars)))
	b.WriteString("\n")

	divider := strings.Repeat("─", min(width-8, 60))
	line(lipgloss.NewStyle().Foreground(theme.TextDim), "Concepts")
	line(lipgloss.NewStyle().Foreground(theme.Border), divider)
	b.WriteString("\n")

	for _, c := range sum.Concepts {
		status := fmt.Sprintf("%d%%", c.ProficiencyScore)
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if c.Mastered {
			status = "★ mastered"
			style = style.Foreground(theme.Success)
		}
		line(style, fmt.Sprintf("%-24s  %d/%d correct   %s   %s",
			truncate(c.ConceptName, 24), c.Correct, c.Attempts, starTally(c.Stars), status))
	}
	if len(sum.Concepts) == 0 {
		line(lipgloss.NewStyle().Foreground(theme.TextDim), "No questions answered.")
	}
	return b.String()
}

// starTally renders counts per star type, best first.
func starTally(counts map[stars.Type]int) string {
	types := stars.AllTypes()
	parts := make([]string, 0, len(types))
	for i := len(types) - 1; i >= 0; i-- {
		t := types[i]
		parts = append(parts, lipgloss.NewStyle().
			Foreground(theme.StarColor(t)).
			Render(fmt.Sprintf("%s %d", t.Icon(), counts[t])))
	}
	return strings.Join(parts, "  ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
