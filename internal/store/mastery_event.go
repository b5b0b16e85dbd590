package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

func (r *eventRepo) AppendMasteryEvent(ctx context.Context, data MasteryEventData) error {
	err := r.appendEvent(ctx, MasteryEventsTable.Name,
		[]string{"student_id", "session_id", "concept_id", "from_state", "to_state", "trigger", "proficiency_score"},
		data.StudentID, data.SessionID, data.ConceptID, data.FromState, data.ToState, data.Trigger, data.ProficiencyScore,
	)
	if err != nil {
		return fmt.Errorf("save mastery event: %w", err)
	}
	return nil
}

func (r *eventRepo) MasteryEvents(ctx context.Context, studentID string) ([]MasteryEventRecord, error) {
	q := r.sql.Select("id", "sequence", "timestamp", "student_id", "session_id", "concept_id",
		"from_state", "to_state", "trigger", "proficiency_score").
		From(r.sql.Table(MasteryEventsTable.Name)).
		Where(entsql.EQ("student_id", studentID)).
		OrderBy("sequence")

	var out []MasteryEventRecord
	err := queryRows(ctx, r.drv, q, func(rows *entsql.Rows) error {
		var e MasteryEventRecord
		err := rows.Scan(&e.ID, &e.Sequence, &e.Timestamp, &e.StudentID, &e.SessionID, &e.ConceptID,
			&e.FromState, &e.ToState, &e.Trigger, &e.ProficiencyScore)
		if err != nil {
			return err
		}
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query mastery events of %s: %w", studentID, err)
	}
	return out, nil
}
