package mastery

// State represents a concept's position in the mastery lifecycle.
type State string

const (
	StateNew      State = "new"
	StateLearning State = "learning"
	StateMastered State = "mastered"
)

// Transition triggers.
const (
	TriggerFirstAttempt = "first-attempt"
	TriggerThreshold    = "mastery-threshold"
)

// StateTransition records a mastery state change for display and event logging.
type StateTransition struct {
	ConceptID   string
	ConceptName string
	From        State
	To          State
	Trigger     string
}

// Mastered reports whether the transition reached the mastered state.
func (t *StateTransition) Mastered() bool {
	return t != nil && t.To == StateMastered
}
