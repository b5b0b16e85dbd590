// Package layout draws the frame shared by every screen: a header bar with
// the screen title, the screen body and a footer of key hints.
package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/adaptiq/internal/ui/theme"
)

// A question card with four options needs this much room.
const (
	MinWidth  = 60
	MinHeight = 20
)

type KeyHint struct {
	Key         string
	Description string
}

func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

func RenderMinSizeMessage(width, height int) string {
	msg := fmt.Sprintf("Make the window a little bigger\n\nneeds %d × %d, have %d × %d",
		MinWidth, MinHeight, width, height)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.TextDim).Align(lipgloss.Center).Render(msg))
}

var bar = lipgloss.NewStyle().
	Background(theme.BgCard).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(theme.Border).
	Padding(0, 1)

// RenderHeader puts the app name left, title centered and status right.
// The status is dropped before the title when the bar is too narrow.
func RenderHeader(title, status string, width int) string {
	inner := max(width-bar.GetHorizontalFrameSize(), 0)

	brand := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render("AdaptIQ")
	center := lipgloss.NewStyle().Foreground(theme.Text).Render(title)
	right := lipgloss.NewStyle().Foreground(theme.Accent).Render(status)

	bw, cw, rw := lipgloss.Width(brand), lipgloss.Width(center), lipgloss.Width(right)
	if bw+cw+rw+2 > inner {
		right, rw = "", 0
	}

	// Center the title on the bar, not on the space left by the brand.
	leftPad := max((inner-cw)/2-bw, 1)
	rightPad := max(inner-bw-leftPad-cw-rw, 1)
	line := brand + strings.Repeat(" ", leftPad) + center + strings.Repeat(" ", rightPad) + right

	return bar.Width(width).Render(line)
}

// RenderFooter lists key hints, wrapping onto a second line when they do
// not fit.
func RenderFooter(hints []KeyHint, width int) string {
	inner := max(width-bar.GetHorizontalFrameSize(), 0)
	key := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	desc := lipgloss.NewStyle().Foreground(theme.TextDim)

	var lines []string
	var cur string
	for _, h := range hints {
		part := key.Render(h.Key) + " " + desc.Render(h.Description)
		switch {
		case cur == "":
			cur = part
		case lipgloss.Width(cur)+3+lipgloss.Width(part) <= inner:
			cur += "   " + part
		default:
			lines = append(lines, cur)
			cur = part
		}
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return bar.Width(width).Render(strings.Join(lines, "\n"))
}

// RenderFrame stacks header, body and footer, sizing the body to fill
// whatever height is left.
func RenderFrame(header, content, footer string, width, height int) string {
	bodyHeight := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	body := lipgloss.NewStyle().Width(width).Height(bodyHeight).MaxHeight(bodyHeight).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}
