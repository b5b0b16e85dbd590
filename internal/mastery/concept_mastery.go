// Package mastery derives per-(student, concept) proficiency and the
// mastered flag from the student's full attempt history.
package mastery

import (
	"math"

	"github.com/abhisek/adaptiq/internal/content"
	"github.com/abhisek/adaptiq/internal/ledger"
)

const (
	// MediumOrHardCorrectRequired correct answers at Medium or Hard master a concept.
	MediumOrHardCorrectRequired = 2
	// HardCorrectRequired correct answers at Hard master a concept.
	HardCorrectRequired = 1
)

// ConceptMastery is the derived aggregate for one student and concept.
// It is always rebuilt from history and never stored.
type ConceptMastery struct {
	ConceptID        string `json:"concept_id"`
	ConceptName      string `json:"concept_name"`
	TotalStars       int    `json:"total_stars"`
	ColoredStars     int    `json:"colored_stars"`
	ProficiencyScore int    `json:"proficiency_score"`
	Mastered         bool   `json:"mastered"`
}

// State maps the aggregate onto the mastery lifecycle.
func (m ConceptMastery) State() State {
	switch {
	case m.Mastered:
		return StateMastered
	case m.TotalStars > 0:
		return StateLearning
	default:
		return StateNew
	}
}

// Compute replays attempts on a single concept.
func Compute(conceptID, conceptName string, attempts []ledger.HistoricalAttempt) ConceptMastery {
	m := ConceptMastery{
		ConceptID:   conceptID,
		ConceptName: conceptName,
		TotalStars:  len(attempts),
	}
	for _, a := range attempts {
		if a.IsCorrect {
			m.ColoredStars++
		}
	}
	m.ProficiencyScore = Proficiency(m.ColoredStars, m.TotalStars)
	m.Mastered = Mastered(attempts)
	return m
}

// Mastered applies the mastery rule: at least two correct answers at
// Medium or Hard, or at least one correct answer at Hard.
func Mastered(attempts []ledger.HistoricalAttempt) bool {
	var mediumOrHard, hard int
	for _, a := range attempts {
		if !a.IsCorrect {
			continue
		}
		switch a.Difficulty {
		case content.Hard:
			hard++
			mediumOrHard++
		case content.Medium:
			mediumOrHard++
		}
	}
	return mediumOrHard >= MediumOrHardCorrectRequired || hard >= HardCorrectRequired
}

// Proficiency returns round(100 * colored / total), or 0 with no attempts.
func Proficiency(colored, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(colored) / float64(total)))
}
