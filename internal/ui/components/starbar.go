package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/adaptiq/internal/stars"
	"github.com/abhisek/adaptiq/internal/ui/theme"
)

// StarBar renders the recent stars of a streak, oldest first, followed by
// the milestone markers.
func StarBar(st stars.Streak) string {
	var icons []string
	for _, s := range st.Recent {
		icons = append(icons, lipgloss.NewStyle().
			Foreground(theme.StarColor(s.Type)).
			Render(s.Type.Icon()))
	}
	empty := stars.RecentWindow - len(st.Recent)
	for i := 0; i < empty; i++ {
		icons = append(icons, lipgloss.NewStyle().Foreground(theme.Border).Render("·"))
	}

	var marks []string
	for _, m := range stars.Milestones {
		style := lipgloss.NewStyle().Foreground(theme.TextDim)
		if st.Total >= m {
			style = lipgloss.NewStyle().Foreground(theme.ArcadeYellow).Bold(true)
		}
		marks = append(marks, style.Render(fmt.Sprintf("%d", m)))
	}

	line := strings.Join(icons, " ") + "   " + strings.Join(marks, " ")
	if st.Run > 1 {
		line += lipgloss.NewStyle().Foreground(theme.Accent).Render(fmt.Sprintf("   run ×%d", st.Run))
	}
	return line
}
