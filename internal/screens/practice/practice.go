// Package practice is the question loop for one concept.
package practice

import (
	"context"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/adaptiq/internal/content"
	"github.com/abhisek/adaptiq/internal/ledger"
	"github.com/abhisek/adaptiq/internal/mastery"
	"github.com/abhisek/adaptiq/internal/misconception"
	"github.com/abhisek/adaptiq/internal/router"
	"github.com/abhisek/adaptiq/internal/screen"
	"github.com/abhisek/adaptiq/internal/screens/summary"
	"github.com/abhisek/adaptiq/internal/selector"
	"github.com/abhisek/adaptiq/internal/session"
	"github.com/abhisek/adaptiq/internal/stars"
	"github.com/abhisek/adaptiq/internal/ui/components"
	"github.com/abhisek/adaptiq/internal/ui/layout"
	"github.com/abhisek/adaptiq/internal/ui/theme"
)

// explanationWait bounds how long the screen listens for a generated
// explanation.
const explanationWait = 30 * time.Second

type phase int

const (
	phaseStarting phase = iota
	phaseLoading
	phaseQuestion
	phaseSubmitting
	phaseFeedback
	phaseDone
	phaseEnding
)

type doneReason int

const (
	doneNoContent doneReason = iota
	doneExhausted
	doneMastered
)

// Deps are the engine services the screen drives.
type Deps struct {
	Service        *session.Service
	Misconceptions *misconception.Service
}

// PracticeScreen serves questions for one concept inside a chapter session.
type PracticeScreen struct {
	deps      Deps
	chapterID string
	concept   content.Concept

	phase       phase
	done        doneReason
	confirmQuit bool
	errMsg      string

	sess        *ledger.Session
	question    *content.Question
	choice      components.MultiChoice
	scored      *session.Scored
	explanation *misconception.Explanation
	streak      stars.Streak
	milestone   int
	mastery     mastery.ConceptMastery

	spinner      spinner.Model
	explanations chan *misconception.Explanation
}

var _ screen.Screen = (*PracticeScreen)(nil)
var _ screen.KeyHintProvider = (*PracticeScreen)(nil)
var _ screen.BackHandler = (*PracticeScreen)(nil)

// New creates the screen. The chapter session is started, or reused when
// it is already current, in Init.
func New(deps Deps, chapterID string, concept content.Concept) *PracticeScreen {
	if deps.Misconceptions == nil {
		deps.Misconceptions = misconception.NewService(nil, nil)
	}
	return &PracticeScreen{
		deps:      deps,
		chapterID: chapterID,
		concept:   concept,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.Primary)),
		),
		explanations: make(chan *misconception.Explanation, 1),
	}
}

func (p *PracticeScreen) Init() tea.Cmd {
	return tea.Batch(p.startSession(), p.spinner.Tick)
}

func (p *PracticeScreen) Title() string {
	return p.concept.Name
}

func (p *PracticeScreen) HandlesBack() bool {
	return true
}

func (p *PracticeScreen) KeyHints() []layout.KeyHint {
	switch {
	case p.confirmQuit:
		return []layout.KeyHint{
			{Key: "Y", Description: "End session"},
			{Key: "N", Description: "Keep going"},
		}
	case p.phase == phaseQuestion:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Choose"},
			{Key: "1-4", Description: "Answer"},
			{Key: "Enter", Description: "Submit"},
			{Key: "Esc", Description: "Quit"},
		}
	case p.phase == phaseFeedback:
		return []layout.KeyHint{
			{Key: "any key", Description: "Continue"},
			{Key: "Esc", Description: "Quit"},
		}
	case p.phase == phaseDone && p.done == doneMastered:
		return []layout.KeyHint{
			{Key: "C", Description: "Keep practicing"},
			{Key: "Enter", Description: "Finish"},
		}
	case p.phase == phaseDone:
		return []layout.KeyHint{{Key: "Enter", Description: "Finish"}}
	}
	return []layout.KeyHint{{Key: "Esc", Description: "Quit"}}
}

func (p *PracticeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionReadyMsg:
		return p.handleSessionReady(msg)
	case questionMsg:
		return p.handleQuestion(msg)
	case answeredMsg:
		return p.handleAnswered(msg)
	case explanationMsg:
		if p.question != nil && msg.Explanation != nil && msg.Explanation.QuestionID == p.question.ID {
			p.explanation = msg.Explanation
		}
		return p, nil
	case sessionEndedMsg:
		return p.handleSessionEnded(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		return p, cmd
	case tea.KeyMsg:
		return p.handleKey(msg)
	}
	return p, nil
}

func (p *PracticeScreen) startSession() tea.Cmd {
	svc, chapterID, conceptID := p.deps.Service, p.chapterID, p.concept.ID
	return func() tea.Msg {
		ctx := context.Background()
		sess := svc.CurrentSession()
		if sess == nil || sess.ChapterID != chapterID {
			var err error
			if sess, err = svc.StartSession(ctx, chapterID); err != nil {
				return sessionReadyMsg{Err: err}
			}
		}
		st, err := svc.Streak(ctx, sess)
		if err != nil {
			return sessionReadyMsg{Err: err}
		}
		m, err := svc.Mastery(ctx, conceptID)
		if err != nil {
			return sessionReadyMsg{Err: err}
		}
		return sessionReadyMsg{Session: sess, Streak: st, Mastery: m}
	}
}

func (p *PracticeScreen) nextQuestion() tea.Cmd {
	p.phase = phaseLoading
	svc, sess, conceptID := p.deps.Service, p.sess, p.concept.ID
	return func() tea.Msg {
		q, outcome, err := svc.ComputeNextQuestion(context.Background(), svc.StudentID(), conceptID, sess)
		return questionMsg{Question: q, Outcome: outcome, Err: err}
	}
}

func (p *PracticeScreen) submit(optionID string) tea.Cmd {
	p.phase = phaseSubmitting
	svc, misc, sess, q := p.deps.Service, p.deps.Misconceptions, p.sess, p.question
	conceptName, out := p.concept.Name, p.explanations
	return func() tea.Msg {
		ctx := context.Background()
		scored, err := svc.Answer(ctx, sess, q.ID, optionID)
		if err != nil {
			return answeredMsg{Err: err}
		}
		st, err := svc.Streak(ctx, sess)
		if err != nil {
			return answeredMsg{Err: err}
		}
		var ex *misconception.Explanation
		if !scored.Attempt.IsCorrect {
			ex = misc.Request(ctx, q, conceptName, optionID, func(gen *misconception.Explanation) {
				select {
				case out <- gen:
				default:
				}
			})
		}
		return answeredMsg{Scored: scored, Streak: st, Explanation: ex}
	}
}

func (p *PracticeScreen) endSession() tea.Cmd {
	p.phase = phaseEnding
	svc := p.deps.Service
	return func() tea.Msg {
		sum, err := svc.EndSession(context.Background())
		return sessionEndedMsg{Summary: sum, Err: err}
	}
}

func waitForExplanation(ch <-chan *misconception.Explanation) tea.Cmd {
	return func() tea.Msg {
		select {
		case ex := <-ch:
			return explanationMsg{Explanation: ex}
		case <-time.After(explanationWait):
			return nil
		}
	}
}

func (p *PracticeScreen) handleSessionReady(msg sessionReadyMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		p.errMsg = msg.Err.Error()
		return p, nil
	}
	p.sess = msg.Session
	p.streak = msg.Streak
	p.mastery = msg.Mastery
	return p, p.nextQuestion()
}

func (p *PracticeScreen) handleQuestion(msg questionMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		p.errMsg = msg.Err.Error()
		return p, nil
	}
	if msg.Question == nil {
		p.phase = phaseDone
		p.done = doneNoContent
		if msg.Outcome == selector.OutcomeExhausted {
			p.done = doneExhausted
		}
		return p, nil
	}

	p.question = msg.Question
	p.scored = nil
	p.explanation = nil
	p.milestone = 0
	opts := make([]string, len(msg.Question.Options))
	for i, o := range msg.Question.Options {
		opts[i] = o.Text
	}
	p.choice = components.NewMultiChoice(opts)
	p.phase = phaseQuestion
	return p, nil
}

func (p *PracticeScreen) handleAnswered(msg answeredMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		p.errMsg = msg.Err.Error()
		return p, nil
	}
	p.milestone = stars.CrossedMilestone(p.streak.Total, msg.Streak.Total)
	p.scored = msg.Scored
	p.streak = msg.Streak
	p.mastery = msg.Scored.Mastery
	p.explanation = msg.Explanation
	for i, o := range p.question.Options {
		if o.IsCorrect {
			p.choice.Reveal(i)
		}
	}
	p.phase = phaseFeedback

	if msg.Explanation != nil && p.deps.Misconceptions.Async() {
		return p, waitForExplanation(p.explanations)
	}
	return p, nil
}

func (p *PracticeScreen) handleSessionEnded(msg sessionEndedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		p.errMsg = msg.Err.Error()
		return p, nil
	}
	return p, func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: summary.New(msg.Summary)}
	}
}

// justMastered reports whether the last answer moved the concept to
// mastered.
func (p *PracticeScreen) justMastered() bool {
	return p.scored != nil && p.scored.Transition != nil && p.scored.Transition.To == mastery.StateMastered
}

func (p *PracticeScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if p.errMsg != "" {
		return p, func() tea.Msg { return router.PopScreenMsg{} }
	}

	if p.confirmQuit {
		switch key {
		case "y", "Y":
			p.confirmQuit = false
			if p.sess == nil {
				return p, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return p, p.endSession()
		case "n", "N", "esc":
			p.confirmQuit = false
		}
		return p, nil
	}

	if key == "esc" {
		if p.phase == phaseEnding || p.phase == phaseSubmitting {
			return p, nil
		}
		p.confirmQuit = true
		return p, nil
	}

	switch p.phase {
	case phaseQuestion:
		var cmd tea.Cmd
		p.choice, cmd = p.choice.Update(msg)
		if p.choice.Submitted {
			return p, p.submit(p.question.Options[p.choice.ChosenIndex].ID)
		}
		return p, cmd

	case phaseFeedback:
		if p.justMastered() {
			p.phase = phaseDone
			p.done = doneMastered
			return p, nil
		}
		return p, p.nextQuestion()

	case phaseDone:
		switch key {
		case "c", "C":
			if p.done == doneMastered {
				return p, p.nextQuestion()
			}
		case "enter", "q":
			return p, p.endSession()
		}
	}
	return p, nil
}
