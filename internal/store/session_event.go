package store

import (
	"context"
	"fmt"
)

func (r *eventRepo) AppendSessionEvent(ctx context.Context, data SessionEventData) error {
	err := r.appendEvent(ctx, SessionEventsTable.Name,
		[]string{"session_id", "student_id", "chapter_id", "action", "attempts", "correct", "duration_secs"},
		data.SessionID, data.StudentID, data.ChapterID, data.Action, data.Attempts, data.Correct, data.DurationSecs,
	)
	if err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}
