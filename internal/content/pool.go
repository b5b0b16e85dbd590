package content

import (
	"context"
	"errors"
	"fmt"
)

// Repo is the read-only content collaborator the engine consumes.
type Repo interface {
	// QuestionsByConcept returns every question of the concept. Order is
	// not guaranteed.
	QuestionsByConcept(ctx context.Context, conceptID string) ([]Question, error)

	// QuestionByID returns the question or an error wrapping ErrNotFound.
	QuestionByID(ctx context.Context, id string) (*Question, error)

	// ConceptName returns the display name of a concept or an error
	// wrapping ErrNotFound.
	ConceptName(ctx context.Context, id string) (string, error)
}

// Pool is a read-only view over the questions of each concept.
type Pool struct {
	repo Repo
}

// NewPool creates a Pool backed by repo.
func NewPool(repo Repo) *Pool {
	return &Pool{repo: repo}
}

// QuestionsForConcept returns the concept's questions sorted by id.
// An unknown concept yields an error wrapping ErrNotFound.
func (p *Pool) QuestionsForConcept(ctx context.Context, conceptID string) ([]Question, error) {
	qs, err := p.repo.QuestionsByConcept(ctx, conceptID)
	if err != nil {
		return nil, fmt.Errorf("questions for concept %s: %w", conceptID, err)
	}
	SortByID(qs)
	return qs, nil
}

// QuestionByID resolves a single question.
func (p *Pool) QuestionByID(ctx context.Context, id string) (*Question, error) {
	q, err := p.repo.QuestionByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("question %s: %w", id, err)
	}
	if q == nil {
		return nil, fmt.Errorf("question %s: %w", id, ErrNotFound)
	}
	return q, nil
}

// ConceptName returns the concept's display name, or "" if the concept
// does not exist.
func (p *Pool) ConceptName(ctx context.Context, id string) (string, error) {
	name, err := p.repo.ConceptName(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("concept name %s: %w", id, err)
	}
	return name, nil
}

// IsNotFound reports whether err signals a missing chapter, concept or question.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
