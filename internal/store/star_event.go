package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

func (r *eventRepo) AppendStarEvent(ctx context.Context, data StarEventData) error {
	err := r.appendEvent(ctx, StarEventsTable.Name,
		[]string{"student_id", "session_id", "attempt_id", "question_id", "concept_id", "star_type", "difficulty"},
		data.StudentID, data.SessionID, data.AttemptID, data.QuestionID, data.ConceptID, data.StarType, data.Difficulty,
	)
	if err != nil {
		return fmt.Errorf("save star event: %w", err)
	}
	return nil
}

var starEventColumns = []string{
	"id", "sequence", "timestamp", "student_id", "session_id", "attempt_id",
	"question_id", "concept_id", "star_type", "difficulty",
}

func (r *eventRepo) StarsForSession(ctx context.Context, sessionID string) ([]StarEventRecord, error) {
	q := r.sql.Select(starEventColumns...).
		From(r.sql.Table(StarEventsTable.Name)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("sequence")
	out, err := r.scanStars(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query stars of session %s: %w", sessionID, err)
	}
	return out, nil
}

func (r *eventRepo) StarsForStudent(ctx context.Context, studentID string, limit int) ([]StarEventRecord, error) {
	q := r.sql.Select(starEventColumns...).
		From(r.sql.Table(StarEventsTable.Name)).
		Where(entsql.EQ("student_id", studentID)).
		OrderBy(entsql.Desc("sequence"))
	if limit > 0 {
		q.Limit(limit)
	}
	out, err := r.scanStars(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query stars of %s: %w", studentID, err)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *eventRepo) scanStars(ctx context.Context, q querier) ([]StarEventRecord, error) {
	var out []StarEventRecord
	err := queryRows(ctx, r.drv, q, func(rows *entsql.Rows) error {
		var e StarEventRecord
		err := rows.Scan(&e.ID, &e.Sequence, &e.Timestamp, &e.StudentID, &e.SessionID, &e.AttemptID,
			&e.QuestionID, &e.ConceptID, &e.StarType, &e.Difficulty)
		if err != nil {
			return err
		}
		out = append(out, e)
		return nil
	})
	return out, err
}
