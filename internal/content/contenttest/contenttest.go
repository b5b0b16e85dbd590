// Package contenttest provides an in-memory content repository and
// question fixtures for tests.
package contenttest

import (
	"context"
	"fmt"
	"sync"

	"github.com/abhisek/adaptiq/internal/content"
)

// MemRepo is an in-memory content.Repo.
type MemRepo struct {
	mu        sync.Mutex
	concepts  map[string]content.Concept
	questions map[string]content.Question

	// Err, when set, is returned by every call.
	Err error
	// Calls counts QuestionsByConcept invocations.
	Calls int
}

// NewMemRepo creates an empty repository.
func NewMemRepo() *MemRepo {
	return &MemRepo{
		concepts:  make(map[string]content.Concept),
		questions: make(map[string]content.Question),
	}
}

// AddConcept registers a concept.
func (r *MemRepo) AddConcept(c content.Concept) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.concepts[c.ID] = c
}

// AddQuestions registers questions, creating their concepts if needed.
func (r *MemRepo) AddQuestions(qs ...content.Question) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range qs {
		if _, ok := r.concepts[q.ConceptID]; !ok {
			r.concepts[q.ConceptID] = content.Concept{ID: q.ConceptID, Name: q.ConceptID}
		}
		r.questions[q.ID] = q
	}
}

func (r *MemRepo) QuestionsByConcept(_ context.Context, conceptID string) ([]content.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	if r.Err != nil {
		return nil, r.Err
	}
	if _, ok := r.concepts[conceptID]; !ok {
		return nil, fmt.Errorf("concept %s: %w", conceptID, content.ErrNotFound)
	}
	var out []content.Question
	// Map iteration keeps the order unspecified, like a real store.
	for _, q := range r.questions {
		if q.ConceptID == conceptID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *MemRepo) QuestionByID(_ context.Context, id string) (*content.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	q, ok := r.questions[id]
	if !ok {
		return nil, fmt.Errorf("question %s: %w", id, content.ErrNotFound)
	}
	return &q, nil
}

func (r *MemRepo) ConceptName(_ context.Context, id string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return "", r.Err
	}
	c, ok := r.concepts[id]
	if !ok {
		return "", fmt.Errorf("concept %s: %w", id, content.ErrNotFound)
	}
	return c.Name, nil
}

// Question builds a valid question whose first option is correct.
// Option ids are "<id>-a" .. "<id>-d"; option b carries the
// "calculation-error" misconception tag.
func Question(id, conceptID string, b content.BloomLevel, d content.Difficulty) content.Question {
	return content.Question{
		ID:         id,
		ConceptID:  conceptID,
		Bloom:      b,
		Difficulty: d,
		Stem:       "Question " + id,
		Options: []content.Option{
			{ID: id + "-a", Text: "right", IsCorrect: true},
			{ID: id + "-b", Text: "wrong 1", MisconceptionTag: "calculation-error"},
			{ID: id + "-c", Text: "wrong 2", MisconceptionTag: "overgeneralization"},
			{ID: id + "-d", Text: "wrong 3"},
		},
	}
}

// GridID returns the fixture id of the grid question at (b, d), e.g. "q-1-2"
// for (Recall, Medium).
func GridID(b content.BloomLevel, d content.Difficulty) string {
	return fmt.Sprintf("q-%d-%d", int(b), int(d))
}

// Grid returns twelve questions for conceptID, one per Bloom×difficulty cell.
func Grid(conceptID string) []content.Question {
	var qs []content.Question
	for _, b := range content.AllBloomLevels() {
		for _, d := range content.AllDifficulties() {
			qs = append(qs, Question(GridID(b, d), conceptID, b, d))
		}
	}
	return qs
}
