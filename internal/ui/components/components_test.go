package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/adaptiq/internal/stars"
)

func key(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func TestMultiChoiceNumberKeySubmits(t *testing.T) {
	m := NewMultiChoice([]string{"1/2", "2/4", "3/4", "4/4"})
	m, _ = m.Update(key('3'))
	if !m.Submitted || m.ChosenIndex != 2 {
		t.Fatalf("submitted=%v chosen=%d, want option 3", m.Submitted, m.ChosenIndex)
	}
	if m.IsCorrect() {
		t.Error("not correct before reveal")
	}
	m.Reveal(2)
	if !m.IsCorrect() {
		t.Error("chosen option was the correct one")
	}

	// Submitted choices ignore further keys.
	m, _ = m.Update(key('1'))
	if m.ChosenIndex != 2 {
		t.Errorf("chosen = %d after submit, want 2", m.ChosenIndex)
	}
}

func TestMultiChoiceArrowsAndEnter(t *testing.T) {
	m := NewMultiChoice([]string{"a", "b", "c", "d"})
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.ChosenIndex != 1 {
		t.Errorf("chosen = %d, want 1", m.ChosenIndex)
	}
	if !strings.Contains(m.View(), "B)  b") {
		t.Error("view should label options A-D")
	}
}

func TestMenuSkipsDisabled(t *testing.T) {
	ran := ""
	m := NewMenu([]MenuItem{
		{Label: "off", Disabled: true},
		{Label: "one", Action: func() tea.Cmd { ran = "one"; return nil }},
		{Label: "off2", Disabled: true},
		{Label: "two", Detail: "★ mastered", Action: func() tea.Cmd { ran = "two"; return nil }},
	})
	if m.Selected != 1 {
		t.Fatalf("selected = %d, want first enabled item", m.Selected)
	}
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if m.Selected != 3 {
		t.Fatalf("selected = %d, want 3", m.Selected)
	}
	m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if ran != "two" {
		t.Errorf("ran %q, want two", ran)
	}
	if !strings.Contains(m.View(), "★ mastered") {
		t.Error("view should show details")
	}
}

func TestProgressBarClamps(t *testing.T) {
	if p := NewProgressBar("x", 140, 30); p.Score != 100 {
		t.Errorf("score = %d, want 100", p.Score)
	}
	if p := NewProgressBar("x", -3, 30); p.Score != 0 {
		t.Errorf("score = %d, want 0", p.Score)
	}
	if !strings.Contains(NewProgressBar("Proficiency", 67, 40).View(), "67%") {
		t.Error("view should show the percentage")
	}
}

func TestStarBar(t *testing.T) {
	ss := []stars.Star{{Type: stars.Gold}, {Type: stars.White}, {Type: stars.Silver}, {Type: stars.Bronze}}
	out := StarBar(stars.NewStreak(ss))
	if !strings.Contains(out, "run ×2") {
		t.Errorf("expected a run of two colored stars in %q", out)
	}
	if strings.Contains(StarBar(stars.NewStreak(nil)), "run") {
		t.Error("no run without stars")
	}
}
