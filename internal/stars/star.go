package stars

import (
	"time"

	"github.com/abhisek/adaptiq/internal/content"
	"github.com/abhisek/adaptiq/internal/ledger"
)

// Star is the reward attached to a single attempt.
type Star struct {
	Type       Type      `json:"type"`
	EarnedAt   time.Time `json:"earned_at"`
	QuestionID string    `json:"question_id"`
	AttemptID  string    `json:"attempt_id,omitempty"`
}

// FromAttempt derives the star for a recorded attempt on a question of
// difficulty d. The same inputs always yield the same star.
func FromAttempt(a *ledger.Attempt, d content.Difficulty) Star {
	return Star{
		Type:       For(a.IsCorrect, d),
		EarnedAt:   a.CreatedAt,
		QuestionID: a.QuestionID,
		AttemptID:  a.ID,
	}
}

// Counts tallies stars by type.
func Counts(ss []Star) map[Type]int {
	out := make(map[Type]int, len(AllTypes()))
	for _, s := range ss {
		out[s.Type]++
	}
	return out
}
