package content_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/abhisek/adaptiq/internal/content"
	"github.com/abhisek/adaptiq/internal/content/contenttest"
)

func TestBloomOrdering(t *testing.T) {
	levels := content.AllBloomLevels()
	for i := 1; i < len(levels); i++ {
		if levels[i-1] >= levels[i] {
			t.Errorf("%s should be below %s", levels[i-1], levels[i])
		}
		if levels[i-1].Next() != levels[i] {
			t.Errorf("%s.Next() = %s, want %s", levels[i-1], levels[i-1].Next(), levels[i])
		}
		if levels[i].Prev() != levels[i-1] {
			t.Errorf("%s.Prev() = %s, want %s", levels[i], levels[i].Prev(), levels[i-1])
		}
	}
	if content.BloomAnalysis.Next() != content.BloomAnalysis {
		t.Error("Next() at the top should saturate")
	}
	if content.BloomRecall.Prev() != content.BloomRecall {
		t.Error("Prev() at the bottom should saturate")
	}
}

func TestDifficultyOrdering(t *testing.T) {
	if content.Easy.Next() != content.Medium || content.Medium.Next() != content.Hard {
		t.Error("difficulty Next() out of order")
	}
	if content.Hard.Next() != content.Hard || content.Easy.Prev() != content.Easy {
		t.Error("difficulty should saturate at both ends")
	}
	if !content.Hard.IsMax() || !content.Easy.IsMin() || content.Medium.IsMax() {
		t.Error("IsMax/IsMin wrong")
	}
}

func TestParseLevels(t *testing.T) {
	tests := []struct {
		in   string
		want content.BloomLevel
	}{
		{"recall", content.BloomRecall},
		{"Conceptual", content.BloomConceptual},
		{" APPLICATION ", content.BloomApplication},
		{"analysis", content.BloomAnalysis},
	}
	for _, tt := range tests {
		got, err := content.ParseBloomLevel(tt.in)
		if err != nil {
			t.Errorf("ParseBloomLevel(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseBloomLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
	if _, err := content.ParseBloomLevel("synthesis"); err == nil {
		t.Error("expected error for unknown bloom level")
	}
	if d, err := content.ParseDifficulty("Medium"); err != nil || d != content.Medium {
		t.Errorf("ParseDifficulty(Medium) = %v, %v", d, err)
	}
	if _, err := content.ParseDifficulty("extreme"); err == nil {
		t.Error("expected error for unknown difficulty")
	}
}

func TestQuestionJSON(t *testing.T) {
	q := contenttest.Question("q1", "c1", content.BloomApplication, content.Hard)
	raw, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"bloom_level":"application"`) {
		t.Errorf("bloom level should marshal by name, got %s", raw)
	}
	if !strings.Contains(string(raw), `"difficulty":"hard"`) {
		t.Errorf("difficulty should marshal by name, got %s", raw)
	}
}

func TestValidate(t *testing.T) {
	valid := contenttest.Question("q1", "c1", content.BloomRecall, content.Easy)
	if err := content.Validate(valid); err != nil {
		t.Fatalf("valid question rejected: %v", err)
	}

	twoCorrect := contenttest.Question("q2", "c1", content.BloomRecall, content.Easy)
	twoCorrect.Options[1].IsCorrect = true

	threeOptions := contenttest.Question("q3", "c1", content.BloomRecall, content.Easy)
	threeOptions.Options = threeOptions.Options[:3]

	noCorrect := contenttest.Question("q4", "c1", content.BloomRecall, content.Easy)
	noCorrect.Options[0].IsCorrect = false

	badLevel := contenttest.Question("q5", "c1", 0, content.Easy)

	dupOption := contenttest.Question("q6", "c1", content.BloomRecall, content.Easy)
	dupOption.Options[2].ID = dupOption.Options[1].ID

	tests := []struct {
		name string
		q    content.Question
		want string
	}{
		{"two correct", twoCorrect, "2 correct options"},
		{"three options", threeOptions, "has 3 options"},
		{"no correct", noCorrect, "0 correct options"},
		{"bad bloom", badLevel, "invalid bloom level"},
		{"duplicate option", dupOption, "duplicate option id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := content.Validate(tt.q)
			if err == nil {
				t.Fatal("expected validation error")
			}
			var verr *content.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.QuestionID != tt.q.ID {
				t.Errorf("QuestionID = %q, want %q", verr.QuestionID, tt.q.ID)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestGrade(t *testing.T) {
	q := contenttest.Question("q1", "c1", content.BloomRecall, content.Easy)
	ok, err := q.Grade("q1-a")
	if err != nil || !ok {
		t.Errorf("Grade(correct) = %v, %v", ok, err)
	}
	ok, err = q.Grade("q1-c")
	if err != nil || ok {
		t.Errorf("Grade(wrong) = %v, %v", ok, err)
	}
	if _, err := q.Grade("nope"); !content.IsNotFound(err) {
		t.Errorf("Grade(unknown) error = %v, want not found", err)
	}
}

func TestPoolSortsAndReportsNotFound(t *testing.T) {
	repo := contenttest.NewMemRepo()
	repo.AddQuestions(contenttest.Grid("c1")...)
	pool := content.NewPool(repo)
	ctx := context.Background()

	qs, err := pool.QuestionsForConcept(ctx, "c1")
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(qs) != 12 {
		t.Fatalf("got %d questions, want 12", len(qs))
	}
	for i := 1; i < len(qs); i++ {
		if qs[i-1].ID >= qs[i].ID {
			t.Fatalf("pool not sorted by id at %d: %s >= %s", i, qs[i-1].ID, qs[i].ID)
		}
	}

	if _, err := pool.QuestionsForConcept(ctx, "missing"); !content.IsNotFound(err) {
		t.Errorf("missing concept error = %v, want not found", err)
	}
	if _, err := pool.QuestionByID(ctx, "missing"); !content.IsNotFound(err) {
		t.Errorf("missing question error = %v, want not found", err)
	}
	name, err := pool.ConceptName(ctx, "missing")
	if err != nil || name != "" {
		t.Errorf("ConceptName(missing) = %q, %v; want empty, nil", name, err)
	}
}
