package content

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNotFound is returned when a chapter, concept or question does not exist.
var ErrNotFound = errors.New("not found")

// OptionsPerQuestion is the number of answer options every question carries.
const OptionsPerQuestion = 4

// Chapter groups the concepts extracted from one uploaded chapter.
type Chapter struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Subject string `json:"subject,omitempty"`
	Grade   int    `json:"grade,omitempty"`
}

// Concept is a single teachable idea within a chapter.
type Concept struct {
	ID        string `json:"id"`
	ChapterID string `json:"chapter_id"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
}

// Option is one of the four answer choices of a question.
type Option struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`

	// MisconceptionTag names the misconception an incorrect option reveals.
	// Empty for the correct option and for untagged distractors.
	MisconceptionTag string `json:"misconception_tag,omitempty"`
}

// Question is an immutable multiple-choice question tagged with a Bloom
// level and a difficulty.
type Question struct {
	ID          string     `json:"id"`
	ConceptID   string     `json:"concept_id"`
	Bloom       BloomLevel `json:"bloom_level"`
	Difficulty  Difficulty `json:"difficulty"`
	Stem        string     `json:"stem"`
	Options     []Option   `json:"options"`
	Explanation string     `json:"explanation,omitempty"`
}

// CorrectOption returns the option marked correct, or nil if none is.
func (q *Question) CorrectOption() *Option {
	for i := range q.Options {
		if q.Options[i].IsCorrect {
			return &q.Options[i]
		}
	}
	return nil
}

// Option returns the option with the given id, or nil.
func (q *Question) Option(id string) *Option {
	for i := range q.Options {
		if q.Options[i].ID == id {
			return &q.Options[i]
		}
	}
	return nil
}

// Grade reports whether selecting optionID answers q correctly.
func (q *Question) Grade(optionID string) (bool, error) {
	opt := q.Option(optionID)
	if opt == nil {
		return false, fmt.Errorf("option %q of question %s: %w", optionID, q.ID, ErrNotFound)
	}
	return opt.IsCorrect, nil
}

// SortByID orders questions by ascending id in place. Pools have set
// semantics; callers that need a reproducible order sort first.
func SortByID(qs []Question) {
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].ID < qs[j].ID })
}
