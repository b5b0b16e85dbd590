package store

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/adaptiq/internal/content"
	"github.com/abhisek/adaptiq/internal/ledger"
)

// historyRepo implements HistoryRepo by joining attempts with their session
// and question.
type historyRepo struct {
	drv dialect.ExecQuerier
	sql *entsql.DialectBuilder
}

func (r *historyRepo) AttemptsForConceptByStudent(ctx context.Context, studentID, conceptID string) ([]ledger.HistoricalAttempt, error) {
	out, err := r.history(ctx, studentID, conceptID)
	if err != nil {
		return nil, fmt.Errorf("query history of %s on %s: %w", studentID, conceptID, err)
	}
	return out, nil
}

func (r *historyRepo) AttemptsByStudent(ctx context.Context, studentID string) ([]ledger.HistoricalAttempt, error) {
	out, err := r.history(ctx, studentID, "")
	if err != nil {
		return nil, fmt.Errorf("query history of %s: %w", studentID, err)
	}
	return out, nil
}

func (r *historyRepo) history(ctx context.Context, studentID, conceptID string) ([]ledger.HistoricalAttempt, error) {
	a := r.sql.Table(AttemptsTable.Name).As("a")
	s := r.sql.Table(SessionsTable.Name).As("s")
	q := r.sql.Table(QuestionsTable.Name).As("q")

	where := entsql.EQ(s.C("student_id"), studentID)
	if conceptID != "" {
		where = entsql.And(where, entsql.EQ(q.C("concept_id"), conceptID))
	}
	sel := r.sql.Select(
		a.C("id"), a.C("session_id"), a.C("question_id"), a.C("is_correct"),
		a.C("selected_option_id"), a.C("created_at"), a.C("sequence"),
		s.C("student_id"), q.C("concept_id"), q.C("bloom_level"), q.C("difficulty"),
	).
		From(a).
		Join(s).On(a.C("session_id"), s.C("id")).
		Join(q).On(a.C("question_id"), q.C("id")).
		Where(where).
		OrderBy(a.C("sequence"))

	var out []ledger.HistoricalAttempt
	err := queryRows(ctx, r.drv, sel, func(rows *entsql.Rows) error {
		var (
			h          ledger.HistoricalAttempt
			selected   sql.NullString
			bloom, dif int
		)
		err := rows.Scan(&h.ID, &h.SessionID, &h.QuestionID, &h.IsCorrect, &selected, &h.CreatedAt, &h.Sequence,
			&h.StudentID, &h.ConceptID, &bloom, &dif)
		if err != nil {
			return err
		}
		h.SelectedOptionID = selected.String
		h.Bloom = content.BloomLevel(bloom)
		h.Difficulty = content.Difficulty(dif)
		out = append(out, h)
		return nil
	})
	return out, err
}

func (r *historyRepo) StudentsByChapter(ctx context.Context, chapterID string) ([]string, error) {
	q := r.sql.Select("student_id").
		Distinct().
		From(r.sql.Table(SessionsTable.Name)).
		Where(entsql.EQ("chapter_id", chapterID)).
		OrderBy("student_id")
	var out []string
	err := queryRows(ctx, r.drv, q, func(rows *entsql.Rows) error {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		out = append(out, id)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query students of chapter %s: %w", chapterID, err)
	}
	return out, nil
}
