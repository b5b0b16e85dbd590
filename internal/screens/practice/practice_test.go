package practice

import (
	"encoding/json"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/adaptiq/internal/content"
	"github.com/abhisek/adaptiq/internal/content/contenttest"
	"github.com/abhisek/adaptiq/internal/ledger/ledgertest"
	"github.com/abhisek/adaptiq/internal/llm"
	"github.com/abhisek/adaptiq/internal/misconception"
	"github.com/abhisek/adaptiq/internal/router"
	"github.com/abhisek/adaptiq/internal/screens/summary"
	"github.com/abhisek/adaptiq/internal/session"
	"github.com/abhisek/adaptiq/internal/stars"
	"github.com/abhisek/adaptiq/internal/store/storetest"
)

var fractions = content.Concept{ID: "fractions", ChapterID: "ch-1", Name: "Fractions"}

func newScreen(t *testing.T, misc *misconception.Service) (*PracticeScreen, *contenttest.MemRepo) {
	t.Helper()
	repo := contenttest.NewMemRepo()
	repo.AddConcept(fractions)
	repo.AddQuestions(contenttest.Grid("fractions")...)
	repo.AddConcept(content.Concept{ID: "empty", ChapterID: "ch-1", Name: "Empty"})

	st := ledgertest.NewMemStore(repo)
	svc := session.NewService("alice", session.Deps{
		Content:  repo,
		Sessions: st,
		History:  st,
		Events:   storetest.NewEvents(),
	})
	return New(Deps{Service: svc, Misconceptions: misc}, "ch-1", fractions), repo
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

// feed runs cmd and hands its message to the screen, returning the next
// command.
func feed(t *testing.T, p *PracticeScreen, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	_, next := p.Update(cmd())
	return next
}

// ready starts the session and loads the first question.
func ready(t *testing.T, p *PracticeScreen) {
	t.Helper()
	next := feed(t, p, p.startSession())
	if next := feed(t, p, next); next != nil {
		t.Fatalf("unexpected command after question load")
	}
	if p.phase != phaseQuestion {
		t.Fatalf("phase = %d, want question", p.phase)
	}
}

func TestFirstQuestionIsRecallEasy(t *testing.T) {
	p, _ := newScreen(t, nil)
	ready(t, p)

	if p.sess == nil || p.sess.ChapterID != "ch-1" {
		t.Fatalf("session not started: %+v", p.sess)
	}
	if want := contenttest.GridID(content.BloomRecall, content.Easy); p.question.ID != want {
		t.Errorf("question = %s, want %s", p.question.ID, want)
	}
	if len(p.choice.Options) != 4 {
		t.Errorf("options = %d, want 4", len(p.choice.Options))
	}
	view := p.View(100, 30)
	if !strings.Contains(view, "Question "+p.question.ID) {
		t.Error("view should show the stem")
	}
}

func TestWrongAnswerShowsFallbackExplanation(t *testing.T) {
	p, _ := newScreen(t, nil)
	ready(t, p)

	_, submit := p.Update(keyPress('2'))
	if cmd := feed(t, p, submit); cmd != nil {
		t.Error("no explanation wait expected without an LLM")
	}
	if p.phase != phaseFeedback {
		t.Fatalf("phase = %d, want feedback", p.phase)
	}
	if p.scored.Attempt.IsCorrect {
		t.Error("option b is incorrect")
	}
	if p.scored.Star.Type != stars.White {
		t.Errorf("star = %s, want white", p.scored.Star.Type)
	}
	if p.explanation == nil || p.explanation.Tag != "calculation-error" || p.explanation.Source != misconception.SourceFallback {
		t.Errorf("explanation = %+v", p.explanation)
	}
	if p.choice.CorrectIndex != 0 {
		t.Errorf("correct option should be revealed, got %d", p.choice.CorrectIndex)
	}
	if p.streak.Total != 1 {
		t.Errorf("streak total = %d, want 1", p.streak.Total)
	}
	if !strings.Contains(p.View(100, 40), "Not quite") {
		t.Error("feedback view missing")
	}

	// Any key moves on to the next question.
	_, next := p.Update(keyPress('x'))
	feed(t, p, next)
	if p.phase != phaseQuestion {
		t.Errorf("phase = %d, want question", p.phase)
	}
}

func TestGeneratedExplanationArrivesLater(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"explanation":"Check the denominators again."}`)})
	misc := misconception.NewService(misconception.NewExplainer(mock, misconception.DefaultExplainerConfig(), nil), nil)
	t.Cleanup(misc.Close)

	p, _ := newScreen(t, misc)
	ready(t, p)

	_, submit := p.Update(keyPress('3'))
	wait := feed(t, p, submit)
	if wait == nil {
		t.Fatal("expected to wait for a generated explanation")
	}
	if p.explanation.Source != misconception.SourceFallback {
		t.Errorf("first explanation should be the fallback, got %s", p.explanation.Source)
	}

	feed(t, p, wait)
	if p.explanation.Source != misconception.SourceLLM {
		t.Fatalf("explanation source = %s, want llm", p.explanation.Source)
	}
	if p.explanation.Text != "Check the denominators again." {
		t.Errorf("text = %q", p.explanation.Text)
	}
}

func TestStaleExplanationIgnored(t *testing.T) {
	p, _ := newScreen(t, nil)
	ready(t, p)

	p.Update(explanationMsg{Explanation: &misconception.Explanation{QuestionID: "other", Text: "nope"}})
	if p.explanation != nil {
		t.Error("explanation for another question must be ignored")
	}
}

func TestMasteringConceptCompletes(t *testing.T) {
	p, repo := newScreen(t, nil)
	ready(t, p)

	hard, err := repo.QuestionByID(t.Context(), contenttest.GridID(content.BloomRecall, content.Hard))
	if err != nil {
		t.Fatal(err)
	}
	p.Update(questionMsg{Question: hard})

	_, submit := p.Update(keyPress('1'))
	feed(t, p, submit)
	if !p.justMastered() {
		t.Fatal("a correct hard answer should master the concept")
	}
	if p.scored.Star.Type != stars.Gold {
		t.Errorf("star = %s, want gold", p.scored.Star.Type)
	}

	p.Update(keyPress(' '))
	if p.phase != phaseDone || p.done != doneMastered {
		t.Fatalf("phase = %d done = %d, want mastered", p.phase, p.done)
	}
	if !strings.Contains(p.View(100, 30), "Concept complete!") {
		t.Error("completion view missing")
	}

	// C keeps practicing.
	_, next := p.Update(keyPress('c'))
	feed(t, p, next)
	if p.phase != phaseQuestion {
		t.Errorf("phase = %d, want question", p.phase)
	}
}

func TestNoQuestions(t *testing.T) {
	p, _ := newScreen(t, nil)
	p.concept = content.Concept{ID: "empty", ChapterID: "ch-1", Name: "Empty"}

	next := feed(t, p, p.startSession())
	feed(t, p, next)
	if p.phase != phaseDone || p.done != doneNoContent {
		t.Fatalf("phase = %d done = %d, want no content", p.phase, p.done)
	}
	if !strings.Contains(p.View(100, 30), "No questions") {
		t.Error("no-questions view missing")
	}
}

func TestQuitConfirmEndsSession(t *testing.T) {
	p, _ := newScreen(t, nil)
	ready(t, p)

	_, submit := p.Update(keyPress('1'))
	feed(t, p, submit)

	p.Update(specialKey(tea.KeyEscape))
	if !p.confirmQuit {
		t.Fatal("esc should ask for confirmation")
	}
	p.Update(keyPress('n'))
	if p.confirmQuit {
		t.Fatal("n should cancel")
	}

	p.Update(specialKey(tea.KeyEscape))
	_, end := p.Update(keyPress('y'))
	replace := feed(t, p, end)
	if replace == nil {
		t.Fatal("expected navigation to the summary")
	}
	msg, ok := replace().(router.ReplaceScreenMsg)
	if !ok {
		t.Fatalf("expected ReplaceScreenMsg, got %T", replace())
	}
	if _, ok := msg.Screen.(*summary.SummaryScreen); !ok {
		t.Errorf("expected summary screen, got %T", msg.Screen)
	}
	if p.deps.Service.CurrentSession() != nil {
		t.Error("session should be ended")
	}
}

func TestReusesCurrentChapterSession(t *testing.T) {
	p, _ := newScreen(t, nil)
	ready(t, p)
	first := p.sess.ID

	again := New(p.deps, "ch-1", fractions)
	ready(t, again)
	if again.sess.ID != first {
		t.Errorf("session = %s, want reuse of %s", again.sess.ID, first)
	}
}

func TestKeyHints(t *testing.T) {
	p, _ := newScreen(t, nil)
	ready(t, p)
	if len(p.KeyHints()) != 4 {
		t.Errorf("question hints = %d, want 4", len(p.KeyHints()))
	}
	p.confirmQuit = true
	if hints := p.KeyHints(); len(hints) != 2 || hints[0].Key != "Y" {
		t.Errorf("quit hints = %+v", hints)
	}
}
