// Package stars derives the per-attempt reward signal. Every attempt earns
// exactly one star whose color depends only on correctness and the
// question's difficulty.
package stars

import "github.com/abhisek/adaptiq/internal/content"

// Type is the color of a star.
type Type string

const (
	White  Type = "white"
	Bronze Type = "bronze"
	Silver Type = "silver"
	Gold   Type = "gold"
)

// AllTypes returns all star types from least to most valuable.
func AllTypes() []Type {
	return []Type{White, Bronze, Silver, Gold}
}

// For returns the star earned by an attempt. Incorrect answers always earn a
// white star; correct answers earn bronze, silver or gold by difficulty.
func For(isCorrect bool, d content.Difficulty) Type {
	if !isCorrect {
		return White
	}
	switch d {
	case content.Medium:
		return Silver
	case content.Hard:
		return Gold
	default:
		return Bronze
	}
}

// Colored reports whether the star was earned by a correct answer.
func (t Type) Colored() bool {
	return t == Bronze || t == Silver || t == Gold
}

// DisplayName returns a human-readable label for the star type.
func (t Type) DisplayName() string {
	switch t {
	case White:
		return "White"
	case Bronze:
		return "Bronze"
	case Silver:
		return "Silver"
	case Gold:
		return "Gold"
	default:
		return string(t)
	}
}

// Icon returns the display icon for the star type.
func (t Type) Icon() string {
	switch t {
	case White:
		return "☆"
	case Bronze, Silver, Gold:
		return "★"
	default:
		return "✦"
	}
}

// ParseType converts a stored star name back to a Type.
func ParseType(s string) (Type, bool) {
	for _, t := range AllTypes() {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}
