// Package ledgertest provides an in-memory session and history store for
// tests.
package ledgertest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/abhisek/adaptiq/internal/content"
	"github.com/abhisek/adaptiq/internal/ledger"
)

// MemStore keeps sessions and attempts in memory. It satisfies the
// session and history repository contracts of the store package.
type MemStore struct {
	mu       sync.Mutex
	content  content.Repo
	sessions []*ledger.Session
	attempts []ledger.Attempt
	seq      int64
	ids      int

	// Now returns the clock used for timestamps. Defaults to time.Now.
	Now func() time.Time
	// AppendErr, when set, fails AppendAttempt.
	AppendErr error
	// EndErr, when set, fails EndSession.
	EndErr error
}

// NewMemStore creates a store that resolves question tags via contentRepo.
func NewMemStore(contentRepo content.Repo) *MemStore {
	return &MemStore{content: contentRepo, Now: time.Now}
}

func (m *MemStore) nextID(prefix string) string {
	m.ids++
	return fmt.Sprintf("%s-%d", prefix, m.ids)
}

func (m *MemStore) StartSession(_ context.Context, studentID, chapterID string) (*ledger.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.Now()
	for _, s := range m.sessions {
		if s.StudentID == studentID && s.EndedAt == nil {
			ended := now
			s.EndedAt = &ended
		}
	}
	s := &ledger.Session{
		ID:        m.nextID("session"),
		StudentID: studentID,
		ChapterID: chapterID,
		StartedAt: now,
	}
	m.sessions = append(m.sessions, s)
	cp := *s
	return &cp, nil
}

func (m *MemStore) CurrentSession(_ context.Context, studentID string) (*ledger.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sessions) - 1; i >= 0; i-- {
		s := m.sessions[i]
		if s.StudentID == studentID && s.EndedAt == nil {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemStore) EndSession(_ context.Context, sessionID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EndErr != nil {
		return m.EndErr
	}
	for _, s := range m.sessions {
		if s.ID == sessionID {
			if s.EndedAt == nil {
				ended := at
				s.EndedAt = &ended
			}
			return nil
		}
	}
	return fmt.Errorf("session %s: %w", sessionID, content.ErrNotFound)
}

func (m *MemStore) SessionsByStudent(_ context.Context, studentID string) ([]ledger.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ledger.Session
	for _, s := range m.sessions {
		if s.StudentID == studentID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *MemStore) AppendAttempt(_ context.Context, sessionID, questionID string, isCorrect bool, selectedOptionID string) (*ledger.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return nil, m.AppendErr
	}
	if !m.open(sessionID) {
		return nil, fmt.Errorf("session %s is not open: %w", sessionID, ledger.ErrNoActiveSession)
	}
	m.seq++
	a := ledger.Attempt{
		ID:               m.nextID("attempt"),
		SessionID:        sessionID,
		QuestionID:       questionID,
		IsCorrect:        isCorrect,
		SelectedOptionID: selectedOptionID,
		CreatedAt:        m.Now(),
		Sequence:         m.seq,
	}
	m.attempts = append(m.attempts, a)
	return &a, nil
}

func (m *MemStore) open(sessionID string) bool {
	for _, s := range m.sessions {
		if s.ID == sessionID {
			return s.EndedAt == nil
		}
	}
	return false
}

func (m *MemStore) Attempts(_ context.Context, sessionID string) ([]ledger.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ledger.Attempt
	for _, a := range m.attempts {
		if a.SessionID == sessionID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MemStore) AttemptsByStudent(ctx context.Context, studentID string) ([]ledger.HistoricalAttempt, error) {
	return m.history(ctx, studentID, "")
}

func (m *MemStore) AttemptsForConceptByStudent(ctx context.Context, studentID, conceptID string) ([]ledger.HistoricalAttempt, error) {
	return m.history(ctx, studentID, conceptID)
}

func (m *MemStore) StudentsByChapter(_ context.Context, chapterID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, s := range m.sessions {
		if s.ChapterID == chapterID && !seen[s.StudentID] {
			seen[s.StudentID] = true
			out = append(out, s.StudentID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemStore) history(ctx context.Context, studentID, conceptID string) ([]ledger.HistoricalAttempt, error) {
	m.mu.Lock()
	owner := make(map[string]string, len(m.sessions))
	for _, s := range m.sessions {
		owner[s.ID] = s.StudentID
	}
	attempts := append([]ledger.Attempt(nil), m.attempts...)
	m.mu.Unlock()

	var out []ledger.HistoricalAttempt
	for _, a := range attempts {
		if owner[a.SessionID] != studentID {
			continue
		}
		q, err := m.content.QuestionByID(ctx, a.QuestionID)
		if err != nil {
			if content.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if conceptID != "" && q.ConceptID != conceptID {
			continue
		}
		out = append(out, ledger.HistoricalAttempt{
			Attempt:    a,
			StudentID:  studentID,
			ConceptID:  q.ConceptID,
			Bloom:      q.Bloom,
			Difficulty: q.Difficulty,
		})
	}
	return out, nil
}
