package mastery

import (
	"context"
	"fmt"

	"github.com/abhisek/adaptiq/internal/content"
	"github.com/abhisek/adaptiq/internal/ledger"
	"github.com/abhisek/adaptiq/internal/store"
)

// Tracker computes mastery on demand from the history repository.
type Tracker struct {
	history   store.HistoryRepo
	pool      *content.Pool
	eventRepo store.EventRepo
}

// NewTracker creates a Tracker. eventRepo may be nil, in which case
// transitions are reported but not persisted.
func NewTracker(history store.HistoryRepo, contentRepo content.Repo, eventRepo store.EventRepo) *Tracker {
	return &Tracker{
		history:   history,
		pool:      content.NewPool(contentRepo),
		eventRepo: eventRepo,
	}
}

// Mastery returns the student's aggregate for a concept over all sessions.
func (t *Tracker) Mastery(ctx context.Context, studentID, conceptID string) (ConceptMastery, error) {
	attempts, err := t.history.AttemptsForConceptByStudent(ctx, studentID, conceptID)
	if err != nil {
		return ConceptMastery{}, fmt.Errorf("load history for %s: %w", conceptID, err)
	}
	name, err := t.pool.ConceptName(ctx, conceptID)
	if err != nil {
		return ConceptMastery{}, err
	}
	return Compute(conceptID, name, attempts), nil
}

// IsMastered reports whether the student has mastered the concept.
func (t *Tracker) IsMastered(ctx context.Context, studentID, conceptID string) (bool, error) {
	attempts, err := t.history.AttemptsForConceptByStudent(ctx, studentID, conceptID)
	if err != nil {
		return false, fmt.Errorf("load history for %s: %w", conceptID, err)
	}
	return Mastered(attempts), nil
}

// ForConcepts returns the student's aggregate for each concept, in the
// given order, from a single history read.
func (t *Tracker) ForConcepts(ctx context.Context, studentID string, concepts []content.Concept) ([]ConceptMastery, error) {
	attempts, err := t.history.AttemptsByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", studentID, err)
	}
	byConcept := make(map[string][]ledger.HistoricalAttempt)
	for _, a := range attempts {
		byConcept[a.ConceptID] = append(byConcept[a.ConceptID], a)
	}
	out := make([]ConceptMastery, 0, len(concepts))
	for _, c := range concepts {
		out = append(out, Compute(c.ID, c.Name, byConcept[c.ID]))
	}
	return out, nil
}

// AfterAttempt recomputes the concept's aggregate once attemptID has been
// recorded and reports the state change it caused, if any. Transitions are
// appended to the event log.
func (t *Tracker) AfterAttempt(ctx context.Context, studentID, sessionID, conceptID, attemptID string) (ConceptMastery, *StateTransition, error) {
	attempts, err := t.history.AttemptsForConceptByStudent(ctx, studentID, conceptID)
	if err != nil {
		return ConceptMastery{}, nil, fmt.Errorf("load history for %s: %w", conceptID, err)
	}
	name, err := t.pool.ConceptName(ctx, conceptID)
	if err != nil {
		return ConceptMastery{}, nil, err
	}

	prior := make([]ledger.HistoricalAttempt, 0, len(attempts))
	for _, a := range attempts {
		if a.ID != attemptID {
			prior = append(prior, a)
		}
	}
	before := Compute(conceptID, name, prior)
	after := Compute(conceptID, name, attempts)

	if before.State() == after.State() {
		return after, nil, nil
	}
	tr := &StateTransition{
		ConceptID:   conceptID,
		ConceptName: name,
		From:        before.State(),
		To:          after.State(),
		Trigger:     TriggerFirstAttempt,
	}
	if tr.To == StateMastered {
		tr.Trigger = TriggerThreshold
	}

	if t.eventRepo != nil {
		err := t.eventRepo.AppendMasteryEvent(ctx, store.MasteryEventData{
			StudentID:        studentID,
			SessionID:        sessionID,
			ConceptID:        conceptID,
			FromState:        string(tr.From),
			ToState:          string(tr.To),
			Trigger:          tr.Trigger,
			ProficiencyScore: after.ProficiencyScore,
		})
		if err != nil {
			return after, tr, fmt.Errorf("append mastery event: %w", err)
		}
	}
	return after, tr, nil
}
