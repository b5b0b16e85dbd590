package session

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/adaptiq/internal/content"
	"github.com/abhisek/adaptiq/internal/ledger"
	"github.com/abhisek/adaptiq/internal/stars"
)

// ConceptResult is one concept's line on the session summary.
type ConceptResult struct {
	ConceptID   string
	ConceptName string
	Attempts    int
	Correct     int
	Stars       map[stars.Type]int

	// ProficiencyScore and Mastered cover all sessions, not just this one.
	ProficiencyScore int
	Mastered         bool
}

// Summary holds the data displayed when a session ends.
type Summary struct {
	SessionID     string
	ChapterID     string
	Duration      time.Duration
	TotalAttempts int
	TotalCorrect  int
	Accuracy      float64
	Stars         []stars.Star
	Concepts      []ConceptResult
}

// Summary builds the summary of sess from its attempts. Concepts are listed
// in the order they were first practiced.
func (s *Service) Summary(ctx context.Context, sess *ledger.Session) (*Summary, error) {
	attempts, err := s.sessions.Attempts(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("load attempts of session %s: %w", sess.ID, err)
	}
	ledger.SortChronological(attempts)

	sum := &Summary{
		SessionID: sess.ID,
		ChapterID: sess.ChapterID,
		Duration:  sess.Duration(),
	}
	if !sess.Ended() {
		sum.Duration = time.Since(sess.StartedAt)
	}

	questions := make(map[string]*content.Question)
	byConcept := make(map[string]*ConceptResult)
	var order []string
	for i := range attempts {
		a := &attempts[i]
		q, ok := questions[a.QuestionID]
		if !ok {
			q, err = s.pool.QuestionByID(ctx, a.QuestionID)
			if err != nil {
				return nil, err
			}
			questions[a.QuestionID] = q
		}

		star := stars.FromAttempt(a, q.Difficulty)
		sum.Stars = append(sum.Stars, star)
		sum.TotalAttempts++

		cr := byConcept[q.ConceptID]
		if cr == nil {
			cr = &ConceptResult{ConceptID: q.ConceptID, Stars: make(map[stars.Type]int)}
			byConcept[q.ConceptID] = cr
			order = append(order, q.ConceptID)
		}
		cr.Attempts++
		cr.Stars[star.Type]++
		if a.IsCorrect {
			cr.Correct++
			sum.TotalCorrect++
		}
	}

	for _, id := range order {
		cr := byConcept[id]
		cm, err := s.tracker.Mastery(ctx, sess.StudentID, id)
		if err != nil {
			return nil, err
		}
		cr.ConceptName = cm.ConceptName
		cr.ProficiencyScore = cm.ProficiencyScore
		cr.Mastered = cm.Mastered
		sum.Concepts = append(sum.Concepts, *cr)
	}

	if sum.TotalAttempts > 0 {
		sum.Accuracy = float64(sum.TotalCorrect) / float64(sum.TotalAttempts)
	}
	return sum, nil
}
