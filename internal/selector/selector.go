// Package selector picks the next concrete question for a concept by
// combining the progression policy with the concept's question pool and the
// attempts already made in the current session.
package selector

import (
	"context"
	"fmt"

	"github.com/abhisek/adaptiq/internal/content"
	"github.com/abhisek/adaptiq/internal/ledger"
	"github.com/abhisek/adaptiq/internal/progression"
)

// Outcome tells the caller why a selection did or did not yield a question.
type Outcome int

const (
	// OutcomeUnknown is reported alongside an error; no selection ran.
	OutcomeUnknown Outcome = iota
	// OutcomeSelected means a question was chosen.
	OutcomeSelected
	// OutcomeNoContent means the concept has no questions at all.
	OutcomeNoContent
	// OutcomeExhausted means every question was attempted this session.
	OutcomeExhausted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnknown:
		return "unknown"
	case OutcomeSelected:
		return "selected"
	case OutcomeNoContent:
		return "no_content"
	case OutcomeExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Rule identifies which preference rule produced the selection.
type Rule int

const (
	RuleNone Rule = iota
	// RuleExact matches both target Bloom level and difficulty.
	RuleExact
	// RuleBloom matches the target Bloom level only.
	RuleBloom
	// RuleDifficulty matches the target difficulty only.
	RuleDifficulty
	// RuleAny takes any unattempted question.
	RuleAny
)

func (r Rule) String() string {
	switch r {
	case RuleExact:
		return "exact"
	case RuleBloom:
		return "bloom"
	case RuleDifficulty:
		return "difficulty"
	case RuleAny:
		return "any"
	default:
		return "none"
	}
}

func (r Rule) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Result is the outcome of one selection.
type Result struct {
	Question *content.Question
	Outcome  Outcome
	Target   progression.Target
	Rule     Rule

	// PoolSize and Remaining describe the snapshot the choice was made on.
	PoolSize  int
	Remaining int
}

// Selector chooses questions from a content pool.
type Selector struct {
	pool *content.Pool
}

// New creates a Selector reading questions from repo.
func New(repo content.Repo) *Selector {
	return &Selector{pool: content.NewPool(repo)}
}

// Next picks the next question for conceptID given the attempts of the
// current session. Attempts may include other concepts; they are filtered
// against the pool. A nil or empty attempts slice starts at (Recall, Easy).
//
// A missing or empty concept is reported as OutcomeNoContent, not as an
// error. Other storage errors are returned unchanged.
func (s *Selector) Next(ctx context.Context, conceptID string, attempts []ledger.Attempt) (Result, error) {
	pool, err := s.pool.QuestionsForConcept(ctx, conceptID)
	if err != nil {
		if content.IsNotFound(err) {
			return Result{Outcome: OutcomeNoContent, Target: progression.Start}, nil
		}
		return Result{}, err
	}
	if len(pool) == 0 {
		return Result{Outcome: OutcomeNoContent, Target: progression.Start}, nil
	}

	byID := make(map[string]*content.Question, len(pool))
	inPool := make(map[string]bool, len(pool))
	for i := range pool {
		byID[pool[i].ID] = &pool[i]
		inPool[pool[i].ID] = true
	}
	mine := ledger.FilterByQuestions(attempts, inPool)

	attempted := ledger.AttemptedIDs(mine)
	var remaining []content.Question
	for _, q := range pool {
		if !attempted[q.ID] {
			remaining = append(remaining, q)
		}
	}

	res := Result{PoolSize: len(pool), Remaining: len(remaining)}
	if len(remaining) == 0 {
		res.Outcome = OutcomeExhausted
		return res, nil
	}

	var last *progression.Target
	lastCorrect := false
	if a := ledger.Last(mine); a != nil {
		q := byID[a.QuestionID]
		t := progression.Of(q)
		last = &t
		lastCorrect = a.IsCorrect
	}
	res.Target = progression.NextTarget(last, lastCorrect)

	q, rule := Choose(remaining, res.Target)
	res.Question = q
	res.Rule = rule
	res.Outcome = OutcomeSelected
	return res, nil
}

// Choose applies the preference rules to candidates, which must be sorted
// by id. Rules a-c pick the first candidate in id order; rule d picks the
// candidate nearest to the target, then the lowest id.
func Choose(candidates []content.Question, target progression.Target) (*content.Question, Rule) {
	if len(candidates) == 0 {
		return nil, RuleNone
	}

	if q := first(candidates, func(q *content.Question) bool {
		return q.Bloom == target.Bloom && q.Difficulty == target.Difficulty
	}); q != nil {
		return q, RuleExact
	}
	if q := first(candidates, func(q *content.Question) bool {
		return q.Bloom == target.Bloom
	}); q != nil {
		return q, RuleBloom
	}
	if q := first(candidates, func(q *content.Question) bool {
		return q.Difficulty == target.Difficulty
	}); q != nil {
		return q, RuleDifficulty
	}

	best := &candidates[0]
	bestDist := progression.Of(best).Distance(target)
	for i := 1; i < len(candidates); i++ {
		d := progression.Of(&candidates[i]).Distance(target)
		if d < bestDist {
			best, bestDist = &candidates[i], d
		}
	}
	return copyOf(best), RuleAny
}

func first(candidates []content.Question, match func(*content.Question) bool) *content.Question {
	for i := range candidates {
		if match(&candidates[i]) {
			return copyOf(&candidates[i])
		}
	}
	return nil
}

func copyOf(q *content.Question) *content.Question {
	cp := *q
	cp.Options = append([]content.Option(nil), q.Options...)
	return &cp
}
