package session

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/adaptiq/internal/ledger"
	"github.com/abhisek/adaptiq/internal/store"
)

// Session lifecycle actions recorded in the session event log.
const (
	ActionStart = "start"
	ActionEnd   = "end"
)

// CurrentSession returns the current session, or nil if none is active.
func (s *Service) CurrentSession() *ledger.Session {
	return s.ledger.Current()
}

// Restore makes the student's open session in the repository current, if
// there is one. It returns the restored session or nil.
func (s *Service) Restore(ctx context.Context) (*ledger.Session, error) {
	sess, err := s.sessions.CurrentSession(ctx, s.studentID)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	if sess != nil {
		s.ledger.Begin(sess)
		s.log.Debug("session restored", "session_id", sess.ID)
	}
	return sess, nil
}

// StartSession opens a new session in chapterID and makes it current. A
// session still open for the student is ended first. The current session
// only changes once the new one and its start event are stored.
func (s *Service) StartSession(ctx context.Context, chapterID string) (*ledger.Session, error) {
	if prev := s.ledger.Current(); prev != nil {
		if _, err := s.EndSession(ctx); err != nil {
			return nil, err
		}
	}

	sess, err := s.sessions.StartSession(ctx, s.studentID, chapterID)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	if err := s.appendSessionEvent(ctx, store.SessionEventData{
		SessionID: sess.ID,
		StudentID: s.studentID,
		ChapterID: chapterID,
		Action:    ActionStart,
	}); err != nil {
		if endErr := s.sessions.EndSession(ctx, sess.ID, time.Now().UTC()); endErr != nil {
			s.log.Warn("could not close unlogged session", "session_id", sess.ID, "error", endErr)
		}
		return nil, err
	}

	s.ledger.Begin(sess)
	s.log.Info("session started", "session_id", sess.ID, "chapter_id", chapterID)
	return sess, nil
}

// EndSession closes the current session and returns its summary. It fails
// with ledger.ErrNoActiveSession when no session is current. If the store
// cannot close it, the session stays current so the call can be retried.
func (s *Service) EndSession(ctx context.Context) (*Summary, error) {
	sess := s.ledger.Current()
	if sess == nil {
		return nil, ledger.ErrNoActiveSession
	}

	now := time.Now().UTC()
	if err := s.sessions.EndSession(ctx, sess.ID, now); err != nil {
		return nil, fmt.Errorf("end session: %w", err)
	}
	s.ledger.End(sess, now)

	sum, err := s.Summary(ctx, sess)
	if err != nil {
		return nil, err
	}
	if err := s.appendSessionEvent(ctx, store.SessionEventData{
		SessionID:    sess.ID,
		StudentID:    s.studentID,
		ChapterID:    sess.ChapterID,
		Action:       ActionEnd,
		Attempts:     sum.TotalAttempts,
		Correct:      sum.TotalCorrect,
		DurationSecs: int(sum.Duration.Seconds()),
	}); err != nil {
		return nil, err
	}
	s.log.Info("session ended",
		"session_id", sess.ID,
		"attempts", sum.TotalAttempts,
		"correct", sum.TotalCorrect,
	)
	return sum, nil
}

func (s *Service) appendSessionEvent(ctx context.Context, data store.SessionEventData) error {
	if s.events == nil {
		return nil
	}
	if err := s.events.AppendSessionEvent(ctx, data); err != nil {
		return fmt.Errorf("append session event: %w", err)
	}
	return nil
}
