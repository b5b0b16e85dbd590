package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/abhisek/adaptiq/internal/ledger"
)

// sessionRepo implements SessionRepo. Attempts take their order from the
// global sequence counter.
type sessionRepo struct {
	drv *entsql.Driver
	sql *entsql.DialectBuilder
	seq *sequenceCounter
}

var sessionColumns = []string{"id", "student_id", "chapter_id", "started_at", "ended_at"}

func (r *sessionRepo) StartSession(ctx context.Context, studentID, chapterID string) (*ledger.Session, error) {
	now := time.Now().UTC()

	_, err := execResult(ctx, r.drv, r.sql.Update(SessionsTable.Name).
		Set("ended_at", now).
		Where(entsql.And(entsql.EQ("student_id", studentID), entsql.IsNull("ended_at"))))
	if err != nil {
		return nil, fmt.Errorf("end open sessions of %s: %w", studentID, err)
	}

	s := &ledger.Session{
		ID:        uuid.NewString(),
		StudentID: studentID,
		ChapterID: chapterID,
		StartedAt: now,
	}
	_, err = execResult(ctx, r.drv, r.sql.Insert(SessionsTable.Name).
		Columns("id", "student_id", "chapter_id", "started_at").
		Values(s.ID, s.StudentID, s.ChapterID, s.StartedAt))
	if err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return s, nil
}

func (r *sessionRepo) CurrentSession(ctx context.Context, studentID string) (*ledger.Session, error) {
	q := r.sql.Select(sessionColumns...).
		From(r.sql.Table(SessionsTable.Name)).
		Where(entsql.And(entsql.EQ("student_id", studentID), entsql.IsNull("ended_at"))).
		OrderBy(entsql.Desc("started_at")).
		Limit(1)
	ss, err := r.scanSessions(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query current session of %s: %w", studentID, err)
	}
	if len(ss) == 0 {
		return nil, nil
	}
	return &ss[0], nil
}

func (r *sessionRepo) EndSession(ctx context.Context, sessionID string, at time.Time) error {
	res, err := execResult(ctx, r.drv, r.sql.Update(SessionsTable.Name).
		Set("ended_at", at.UTC()).
		Where(entsql.And(entsql.EQ("id", sessionID), entsql.IsNull("ended_at"))))
	if err != nil {
		return fmt.Errorf("end session %s: %w", sessionID, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	// Nothing updated: either already ended or unknown.
	ss, err := r.scanSessions(ctx, r.sql.Select(sessionColumns...).
		From(r.sql.Table(SessionsTable.Name)).
		Where(entsql.EQ("id", sessionID)))
	if err != nil {
		return fmt.Errorf("query session %s: %w", sessionID, err)
	}
	if len(ss) == 0 {
		return fmt.Errorf("end session %s: %w", sessionID, ErrSessionNotFound)
	}
	return nil
}

func (r *sessionRepo) SessionsByStudent(ctx context.Context, studentID string) ([]ledger.Session, error) {
	q := r.sql.Select(sessionColumns...).
		From(r.sql.Table(SessionsTable.Name)).
		Where(entsql.EQ("student_id", studentID)).
		OrderBy("started_at", "id")
	ss, err := r.scanSessions(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query sessions of %s: %w", studentID, err)
	}
	return ss, nil
}

// AppendAttempt inserts the attempt only while the session is open. The
// session row is touched first inside the transaction so a concurrent
// EndSession either lands before the check or waits for the insert.
func (r *sessionRepo) AppendAttempt(ctx context.Context, sessionID, questionID string, isCorrect bool, selectedOptionID string) (a *ledger.Attempt, err error) {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("next sequence: %w", err)
	}

	tx, err := r.drv.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := execResult(ctx, tx, r.sql.Update(SessionsTable.Name).
		SetNull("ended_at").
		Where(entsql.And(entsql.EQ("id", sessionID), entsql.IsNull("ended_at"))))
	if err != nil {
		return nil, fmt.Errorf("lock session %s: %w", sessionID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("lock session %s: %w", sessionID, err)
	} else if n == 0 {
		return nil, fmt.Errorf("session %s is not open: %w", sessionID, ledger.ErrNoActiveSession)
	}

	a = &ledger.Attempt{
		ID:               uuid.NewString(),
		SessionID:        sessionID,
		QuestionID:       questionID,
		IsCorrect:        isCorrect,
		SelectedOptionID: selectedOptionID,
		CreatedAt:        time.Now().UTC(),
		Sequence:         seqNum,
	}
	var selected any
	if selectedOptionID != "" {
		selected = selectedOptionID
	}
	_, err = execResult(ctx, tx, r.sql.Insert(AttemptsTable.Name).
		Columns("id", "sequence", "session_id", "question_id", "is_correct", "selected_option_id", "created_at").
		Values(a.ID, a.Sequence, a.SessionID, a.QuestionID, a.IsCorrect, selected, a.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("save attempt: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return a, nil
}

func (r *sessionRepo) Attempts(ctx context.Context, sessionID string) ([]ledger.Attempt, error) {
	q := r.sql.Select("id", "session_id", "question_id", "is_correct", "selected_option_id", "created_at", "sequence").
		From(r.sql.Table(AttemptsTable.Name)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("sequence")
	var out []ledger.Attempt
	err := queryRows(ctx, r.drv, q, func(rows *entsql.Rows) error {
		var (
			a        ledger.Attempt
			selected sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.IsCorrect, &selected, &a.CreatedAt, &a.Sequence); err != nil {
			return err
		}
		a.SelectedOptionID = selected.String
		out = append(out, a)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query attempts of session %s: %w", sessionID, err)
	}
	return out, nil
}

func (r *sessionRepo) scanSessions(ctx context.Context, q querier) ([]ledger.Session, error) {
	var out []ledger.Session
	err := queryRows(ctx, r.drv, q, func(rows *entsql.Rows) error {
		var (
			s     ledger.Session
			ended sql.NullTime
		)
		if err := rows.Scan(&s.ID, &s.StudentID, &s.ChapterID, &s.StartedAt, &ended); err != nil {
			return err
		}
		if ended.Valid {
			t := ended.Time
			s.EndedAt = &t
		}
		out = append(out, s)
		return nil
	})
	return out, err
}
