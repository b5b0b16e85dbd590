package session

import (
	"context"
	"fmt"

	"github.com/abhisek/adaptiq/internal/ledger"
	"github.com/abhisek/adaptiq/internal/stars"
)

// Streak returns the star streak of sess from the star event log.
func (s *Service) Streak(ctx context.Context, sess *ledger.Session) (stars.Streak, error) {
	if sess == nil || s.events == nil {
		return stars.NewStreak(nil), nil
	}
	recs, err := s.events.StarsForSession(ctx, sess.ID)
	if err != nil {
		return stars.Streak{}, fmt.Errorf("load stars of session %s: %w", sess.ID, err)
	}
	ss := make([]stars.Star, 0, len(recs))
	for _, r := range recs {
		t, ok := stars.ParseType(r.StarType)
		if !ok {
			continue
		}
		ss = append(ss, stars.Star{
			Type:       t,
			EarnedAt:   r.Timestamp,
			QuestionID: r.QuestionID,
			AttemptID:  r.AttemptID,
		})
	}
	return stars.NewStreak(ss), nil
}
