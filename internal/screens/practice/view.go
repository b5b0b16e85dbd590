package practice

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/adaptiq/internal/ui/components"
	"github.com/abhisek/adaptiq/internal/ui/theme"
)

func (p *PracticeScreen) View(width, height int) string {
	if p.errMsg != "" {
		return centered(width, lipgloss.NewStyle().Foreground(theme.Error),
			fmt.Sprintf("\n\n\nError: %s\n\nPress any key to go back.", p.errMsg))
	}
	if p.confirmQuit {
		return renderQuitConfirm(width)
	}

	var b strings.Builder
	b.WriteString(p.renderStatusLine(width))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n\n")

	switch p.phase {
	case phaseStarting, phaseLoading, phaseSubmitting, phaseEnding:
		b.WriteString(centered(width, lipgloss.NewStyle().Foreground(theme.TextDim),
			p.spinner.View()+" "+loadingText(p.phase)))
	case phaseQuestion:
		b.WriteString(p.renderQuestion(width))
	case phaseFeedback:
		b.WriteString(p.renderQuestion(width))
		b.WriteString("\n")
		b.WriteString(p.renderFeedback(width))
	case phaseDone:
		b.WriteString(p.renderDone(width))
	}
	return b.String()
}

func loadingText(ph phase) string {
	switch ph {
	case phaseStarting:
		return "Starting session..."
	case phaseSubmitting:
		return "Checking your answer..."
	case phaseEnding:
		return "Wrapping up..."
	default:
		return "Picking the next question..."
	}
}

// renderStatusLine shows the proficiency bar and the star streak.
func (p *PracticeScreen) renderStatusLine(width int) string {
	bar := components.NewProgressBar("Proficiency", p.mastery.ProficiencyScore, min(width/2, 40))
	bar.Done = p.mastery.Mastered

	left := "  " + bar.View()
	right := components.StarBar(p.streak)
	pad := width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if pad < 2 {
		return left + "\n  " + right
	}
	return left + strings.Repeat(" ", pad) + right
}

func (p *PracticeScreen) renderQuestion(width int) string {
	q := p.question
	if q == nil {
		return ""
	}
	var b strings.Builder

	level := lipgloss.NewStyle().Foreground(theme.TextDim).
		Render(fmt.Sprintf("%s · %s", q.Bloom, q.Difficulty))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, level))
	b.WriteString("\n\n")

	stem := lipgloss.NewStyle().
		Width(min(width-8, 72)).
		Foreground(theme.Text).
		Bold(true).
		Render(q.Stem)
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, stem))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, p.choice.View()))
	return b.String()
}

func (p *PracticeScreen) renderFeedback(width int) string {
	sc := p.scored
	if sc == nil {
		return ""
	}
	var b strings.Builder

	star := lipgloss.NewStyle().Foreground(theme.StarColor(sc.Star.Type)).Bold(true).
		Render(fmt.Sprintf("%s %s star", sc.Star.Type.Icon(), sc.Star.Type.DisplayName()))
	if sc.Attempt.IsCorrect {
		b.WriteString(centered(width, theme.Correct, "Correct!"))
	} else {
		b.WriteString(centered(width, theme.Incorrect, "Not quite"))
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, star))
	b.WriteString("\n")

	if p.milestone > 0 {
		b.WriteString("\n")
		b.WriteString(centered(width, lipgloss.NewStyle().Foreground(theme.ArcadeYellow).Bold(true),
			fmt.Sprintf("Milestone: %d stars!", p.milestone)))
		b.WriteString("\n")
	}

	if ex := p.explanation; ex != nil && ex.Text != "" {
		text := lipgloss.NewStyle().
			Width(min(width-8, 72)).
			Foreground(theme.Text).
			Render(ex.Text)
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, text))
		b.WriteString("\n")
	} else if sc.Question.Explanation != "" {
		text := lipgloss.NewStyle().
			Width(min(width-8, 72)).
			Foreground(theme.TextDim).
			Render(sc.Question.Explanation)
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, text))
		b.WriteString("\n")
	}

	if p.justMastered() {
		b.WriteString("\n")
		b.WriteString(centered(width, lipgloss.NewStyle().Foreground(theme.Accent).Bold(true),
			fmt.Sprintf("%q mastered!", p.concept.Name)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(centered(width, lipgloss.NewStyle().Foreground(theme.TextDim), "Press any key to continue..."))
	return b.String()
}

func (p *PracticeScreen) renderDone(width int) string {
	var title, body string
	switch p.done {
	case doneMastered:
		title = "Concept complete!"
		body = fmt.Sprintf("You mastered %s with %d%% proficiency.", p.concept.Name, p.mastery.ProficiencyScore)
	case doneExhausted:
		title = "All questions answered"
		body = "You have answered every question of this concept in this session."
	default:
		title = "No questions"
		body = "This concept has no questions yet."
	}

	var b strings.Builder
	b.WriteString(centered(width, lipgloss.NewStyle().Foreground(theme.Accent).Bold(true), title))
	b.WriteString("\n\n")
	b.WriteString(centered(width, lipgloss.NewStyle().Foreground(theme.Text), body))
	b.WriteString("\n\n")
	b.WriteString(centered(width, lipgloss.NewStyle().Foreground(theme.TextDim), "Press Enter to see your summary."))
	return b.String()
}

func renderQuitConfirm(width int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(centered(width, lipgloss.NewStyle().Foreground(theme.Text).Bold(true), "End session?"))
	b.WriteString("\n")
	b.WriteString(centered(width, lipgloss.NewStyle().Foreground(theme.TextDim), "Your stars and progress are saved."))
	b.WriteString("\n\n")
	b.WriteString(centered(width, lipgloss.NewStyle().Foreground(theme.Success), "[Y] Yes, end session"))
	b.WriteString("\n")
	b.WriteString(centered(width, lipgloss.NewStyle().Foreground(theme.Primary), "[N] No, keep going"))
	return b.String()
}

func centered(width int, style lipgloss.Style, text string) string {
	return style.Width(width).Align(lipgloss.Center).Render(text)
}
