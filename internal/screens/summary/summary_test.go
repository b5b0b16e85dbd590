package summary

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/adaptiq/internal/router"
	"github.com/abhisek/adaptiq/internal/session"
	"github.com/abhisek/adaptiq/internal/stars"
)

func testSummary() *session.Summary {
	return &session.Summary{
		SessionID:     "s-1",
		ChapterID:     "ch-1",
		Duration:      12*time.Minute + 5*time.Second,
		TotalAttempts: 5,
		TotalCorrect:  4,
		Accuracy:      0.8,
		Stars: []stars.Star{
			{Type: stars.White}, {Type: stars.Bronze}, {Type: stars.Silver},
			{Type: stars.Gold}, {Type: stars.Gold},
		},
		Concepts: []session.ConceptResult{
			{
				ConceptID:        "frac",
				ConceptName:      "Equivalent fractions",
				Attempts:         3,
				Correct:          3,
				Stars:            map[stars.Type]int{stars.Bronze: 1, stars.Gold: 2},
				ProficiencyScore: 100,
				Mastered:         true,
			},
			{
				ConceptID:        "cmp",
				ConceptName:      "Comparing fractions",
				Attempts:         2,
				Correct:          1,
				Stars:            map[stars.Type]int{stars.White: 1, stars.Silver: 1},
				ProficiencyScore: 50,
			},
		},
	}
}

func TestSummaryScreen_Title(t *testing.T) {
	s := New(testSummary())
	if s.Title() != "Session Summary" {
		t.Errorf("Title = %q, want %q", s.Title(), "Session Summary")
	}
}

func TestSummaryScreen_Display(t *testing.T) {
	view := New(testSummary()).View(100, 30)
	for _, want := range []string{"Session complete!", "12:05", "Accuracy: 80%", "Equivalent fractions", "3/3 correct", "mastered", "50%"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestSummaryScreen_Empty(t *testing.T) {
	view := New(&session.Summary{}).View(80, 24)
	if !strings.Contains(view, "No questions answered.") {
		t.Error("expected empty-session message")
	}
	if New(nil).View(80, 24) != "" {
		t.Error("nil summary should render nothing")
	}
}

func TestSummaryScreen_Navigation(t *testing.T) {
	for _, key := range []tea.KeyPressMsg{{Code: tea.KeyEnter}, {Code: tea.KeyEscape}} {
		_, cmd := New(testSummary()).Update(key)
		if cmd == nil {
			t.Fatalf("expected a command on %s", key.String())
		}
		if _, ok := cmd().(router.PopScreenMsg); !ok {
			t.Errorf("%s: expected PopScreenMsg", key.String())
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("a very long concept name", 6); got != "a ver…" {
		t.Errorf("truncate = %q", got)
	}
}
