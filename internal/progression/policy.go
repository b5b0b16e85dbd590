// Package progression maps the outcome of the last attempt on a concept to
// the Bloom level and difficulty the next question should target.
//
// The grid is walked like a ladder. A correct answer raises cognitive demand
// first (Bloom level) and only then raw difficulty, restarting the Bloom
// climb at Recall. An incorrect answer backs off difficulty first and only
// then drops a Bloom level, restarting difficulty at Easy. The corners
// (Analysis, Hard) and (Recall, Easy) are fixed points.
package progression

import (
	"fmt"

	"github.com/abhisek/adaptiq/internal/content"
)

// Target is a cell of the Bloom × difficulty grid.
type Target struct {
	Bloom      content.BloomLevel `json:"bloom_level"`
	Difficulty content.Difficulty `json:"difficulty"`
}

// Start is where every concept begins in a fresh session.
var Start = Target{Bloom: content.BloomRecall, Difficulty: content.Easy}

// Top is the hardest cell of the grid.
var Top = Target{Bloom: content.BloomAnalysis, Difficulty: content.Hard}

// Of returns the grid cell of a question.
func Of(q *content.Question) Target {
	return Target{Bloom: q.Bloom, Difficulty: q.Difficulty}
}

func (t Target) String() string {
	return fmt.Sprintf("(%s, %s)", t.Bloom.DisplayName(), t.Difficulty.DisplayName())
}

// NextTarget returns the target for the next question given the cell of the
// last question answered on this concept in the current session. A nil last
// means no prior attempt and yields Start.
func NextTarget(last *Target, lastWasCorrect bool) Target {
	if last == nil {
		return Start
	}
	cur := *last
	if lastWasCorrect {
		return escalate(cur)
	}
	return deescalate(cur)
}

func escalate(t Target) Target {
	switch {
	case !t.Bloom.IsMax():
		return Target{Bloom: t.Bloom.Next(), Difficulty: t.Difficulty}
	case !t.Difficulty.IsMax():
		return Target{Bloom: content.BloomRecall, Difficulty: t.Difficulty.Next()}
	default:
		return t
	}
}

func deescalate(t Target) Target {
	switch {
	case !t.Difficulty.IsMin():
		return Target{Bloom: t.Bloom, Difficulty: t.Difficulty.Prev()}
	case !t.Bloom.IsMin():
		return Target{Bloom: t.Bloom.Prev(), Difficulty: content.Easy}
	default:
		return t
	}
}

// Rank orders cells along the ladder: difficulty dominates, Bloom level
// breaks ties. Escalation always increases Rank and de-escalation always
// decreases it, except at the fixed points.
func (t Target) Rank() int {
	return int(t.Difficulty)*10 + int(t.Bloom)
}

// Harder reports whether t sits strictly above o on the ladder.
func (t Target) Harder(o Target) bool { return t.Rank() > o.Rank() }

// Easier reports whether t sits strictly below o on the ladder.
func (t Target) Easier(o Target) bool { return t.Rank() < o.Rank() }

// Distance is the Manhattan distance between two cells.
func (t Target) Distance(o Target) int {
	return abs(int(t.Bloom)-int(o.Bloom)) + abs(int(t.Difficulty)-int(o.Difficulty))
}

// Grid returns all twelve cells in ascending Rank order.
func Grid() []Target {
	var out []Target
	for _, d := range content.AllDifficulties() {
		for _, b := range content.AllBloomLevels() {
			out = append(out, Target{Bloom: b, Difficulty: d})
		}
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
