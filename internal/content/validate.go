package content

import (
	"fmt"
	"strings"
)

// ValidationError lists every structural problem found in one question.
type ValidationError struct {
	QuestionID string
	Problems   []string
}

func (e *ValidationError) Error() string {
	id := e.QuestionID
	if id == "" {
		id = "(no id)"
	}
	return fmt.Sprintf("question %s: %s", id, strings.Join(e.Problems, "; "))
}

// Validate performs the structural checks every stored question must pass:
// a valid Bloom level and difficulty, a stem, exactly four options with
// unique ids, and exactly one correct option.
// Returns a *ValidationError describing all problems found, or nil.
func Validate(q Question) error {
	var errs []string

	if strings.TrimSpace(q.Stem) == "" {
		errs = append(errs, "empty stem")
	}
	if !q.Bloom.Valid() {
		errs = append(errs, fmt.Sprintf("invalid bloom level %d", int(q.Bloom)))
	}
	if !q.Difficulty.Valid() {
		errs = append(errs, fmt.Sprintf("invalid difficulty %d", int(q.Difficulty)))
	}
	if len(q.Options) != OptionsPerQuestion {
		errs = append(errs, fmt.Sprintf("has %d options, want %d", len(q.Options), OptionsPerQuestion))
	}

	seen := make(map[string]bool, len(q.Options))
	correct := 0
	for i, o := range q.Options {
		if o.ID == "" {
			errs = append(errs, fmt.Sprintf("option %d has no id", i))
		} else if seen[o.ID] {
			errs = append(errs, fmt.Sprintf("duplicate option id %q", o.ID))
		}
		seen[o.ID] = true
		if strings.TrimSpace(o.Text) == "" {
			errs = append(errs, fmt.Sprintf("option %d has empty text", i))
		}
		if o.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		errs = append(errs, fmt.Sprintf("has %d correct options, want exactly 1", correct))
	}

	if len(errs) > 0 {
		return &ValidationError{QuestionID: q.ID, Problems: errs}
	}
	return nil
}
