// Package ledger implements the session-scoped attempt ledger: the
// append-only, ordered record of what a student answered during one
// practice session.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/abhisek/adaptiq/internal/content"
)

// ErrNoActiveSession is returned when an attempt is recorded without a
// current session. Callers must start a session first.
var ErrNoActiveSession = errors.New("no active session")

// Session is a bounded practice interval of one student within a chapter.
// Its attempts live in the repository; see Ledger.AttemptsForConcept.
type Session struct {
	ID        string     `json:"id"`
	StudentID string     `json:"student_id"`
	ChapterID string     `json:"chapter_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Ended reports whether the session has been closed.
func (s *Session) Ended() bool {
	return s.EndedAt != nil
}

// Duration returns how long the session lasted, or 0 if it is still open.
func (s *Session) Duration() time.Duration {
	if s.EndedAt == nil {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// Attempt is one recorded answer. Attempts are never mutated once stored.
type Attempt struct {
	ID               string    `json:"id"`
	SessionID        string    `json:"session_id"`
	QuestionID       string    `json:"question_id"`
	IsCorrect        bool      `json:"is_correct"`
	SelectedOptionID string    `json:"selected_option_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`

	// Sequence is the store-assigned global order of the attempt.
	Sequence int64 `json:"sequence"`
}

// HistoricalAttempt is an attempt joined with the tags of its question,
// as seen across all sessions of a student.
type HistoricalAttempt struct {
	Attempt
	StudentID  string             `json:"student_id"`
	ConceptID  string             `json:"concept_id"`
	Bloom      content.BloomLevel `json:"bloom_level"`
	Difficulty content.Difficulty `json:"difficulty"`
}

// Repo is the append-only attempt store the ledger writes through.
type Repo interface {
	// AppendAttempt stores a new attempt at the end of the session's log.
	// It fails with ErrNoActiveSession when the session is unknown or has
	// ended.
	AppendAttempt(ctx context.Context, sessionID, questionID string, isCorrect bool, selectedOptionID string) (*Attempt, error)

	// Attempts returns the session's attempts in insertion order.
	Attempts(ctx context.Context, sessionID string) ([]Attempt, error)
}

// Ledger records attempts and answers per-concept queries for the current
// session of one student.
type Ledger struct {
	repo    Repo
	content content.Repo

	mu      sync.Mutex
	current *Session
}

// New creates a Ledger. The content repository resolves which concept an
// attempted question belongs to.
func New(repo Repo, contentRepo content.Repo) *Ledger {
	return &Ledger{repo: repo, content: contentRepo}
}

// Current returns the current session, or nil when none is active.
func (l *Ledger) Current() *Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Begin makes s the current session.
func (l *Ledger) Begin(s *Session) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current = s
}

// End marks s ended at the given time and clears it if it is current.
// Callers holding s see Ended() from then on.
func (l *Ledger) End(s *Session, at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s.EndedAt == nil {
		t := at
		s.EndedAt = &t
	}
	if l.current != nil && l.current.ID == s.ID {
		l.current = nil
	}
}

// AttemptsForConcept returns the session's attempts on questions of the
// given concept, oldest first. A nil session has no attempts.
func (l *Ledger) AttemptsForConcept(ctx context.Context, sess *Session, conceptID string) ([]Attempt, error) {
	if sess == nil {
		return nil, nil
	}
	all, err := l.repo.Attempts(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("load attempts for session %s: %w", sess.ID, err)
	}
	if len(all) == 0 {
		return nil, nil
	}

	qs, err := l.content.QuestionsByConcept(ctx, conceptID)
	if err != nil {
		if content.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load questions for concept %s: %w", conceptID, err)
	}
	ids := make(map[string]bool, len(qs))
	for _, q := range qs {
		ids[q.ID] = true
	}
	return FilterByQuestions(all, ids), nil
}

// Record appends an attempt to the session. It fails with
// ErrNoActiveSession when sess is nil or already ended.
func (l *Ledger) Record(ctx context.Context, sess *Session, questionID string, isCorrect bool, selectedOptionID string) (*Attempt, error) {
	if sess == nil {
		return nil, ErrNoActiveSession
	}
	if sess.Ended() {
		return nil, fmt.Errorf("session %s has ended: %w", sess.ID, ErrNoActiveSession)
	}
	a, err := l.repo.AppendAttempt(ctx, sess.ID, questionID, isCorrect, selectedOptionID)
	if err != nil {
		return nil, fmt.Errorf("append attempt: %w", err)
	}
	return a, nil
}

// FilterByQuestions keeps attempts whose question id is in ids, in
// chronological order.
func FilterByQuestions(attempts []Attempt, ids map[string]bool) []Attempt {
	var out []Attempt
	for _, a := range attempts {
		if ids[a.QuestionID] {
			out = append(out, a)
		}
	}
	SortChronological(out)
	return out
}

// SortChronological orders attempts by store sequence, falling back to
// creation time when sequences are absent.
func SortChronological(attempts []Attempt) {
	sort.SliceStable(attempts, func(i, j int) bool {
		a, b := attempts[i], attempts[j]
		if a.Sequence != 0 && b.Sequence != 0 {
			return a.Sequence < b.Sequence
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

// Last returns the chronologically last attempt, or nil.
func Last(attempts []Attempt) *Attempt {
	if len(attempts) == 0 {
		return nil
	}
	return &attempts[len(attempts)-1]
}

// AttemptedIDs returns the set of question ids that appear in attempts.
func AttemptedIDs(attempts []Attempt) map[string]bool {
	ids := make(map[string]bool, len(attempts))
	for _, a := range attempts {
		ids[a.QuestionID] = true
	}
	return ids
}
