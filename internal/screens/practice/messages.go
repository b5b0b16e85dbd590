package practice

import (
	"github.com/abhisek/adaptiq/internal/content"
	"github.com/abhisek/adaptiq/internal/ledger"
	"github.com/abhisek/adaptiq/internal/mastery"
	"github.com/abhisek/adaptiq/internal/misconception"
	"github.com/abhisek/adaptiq/internal/selector"
	"github.com/abhisek/adaptiq/internal/session"
	"github.com/abhisek/adaptiq/internal/stars"
)

// sessionReadyMsg carries the session practice runs in.
type sessionReadyMsg struct {
	Session *ledger.Session
	Streak  stars.Streak
	Mastery mastery.ConceptMastery
	Err     error
}

// questionMsg is the selector's choice. Question is nil for no_content and
// exhausted.
type questionMsg struct {
	Question *content.Question
	Outcome  selector.Outcome
	Err      error
}

// answeredMsg is sent once the attempt is recorded.
type answeredMsg struct {
	Scored      *session.Scored
	Streak      stars.Streak
	Explanation *misconception.Explanation
	Err         error
}

// explanationMsg delivers a generated explanation after the fallback was
// shown.
type explanationMsg struct {
	Explanation *misconception.Explanation
}

// sessionEndedMsg carries the summary of the closed session.
type sessionEndedMsg struct {
	Summary *session.Summary
	Err     error
}
