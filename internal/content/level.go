package content

import (
	"fmt"
	"strings"
)

// BloomLevel is the cognitive-demand category of a question.
// Levels are ordered from lowest to highest demand.
type BloomLevel int

const (
	BloomRecall BloomLevel = iota + 1
	BloomConceptual
	BloomApplication
	BloomAnalysis
)

var bloomNames = [...]string{"", "recall", "conceptual", "application", "analysis"}

// AllBloomLevels returns every Bloom level in ascending order.
func AllBloomLevels() []BloomLevel {
	return []BloomLevel{BloomRecall, BloomConceptual, BloomApplication, BloomAnalysis}
}

// ParseBloomLevel parses a Bloom level name (case-insensitive).
func ParseBloomLevel(s string) (BloomLevel, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i := 1; i < len(bloomNames); i++ {
		if bloomNames[i] == name {
			return BloomLevel(i), nil
		}
	}
	return 0, fmt.Errorf("unknown bloom level %q", s)
}

// Valid reports whether b is one of the defined levels.
func (b BloomLevel) Valid() bool {
	return b >= BloomRecall && b <= BloomAnalysis
}

func (b BloomLevel) String() string {
	if !b.Valid() {
		return fmt.Sprintf("bloom(%d)", int(b))
	}
	return bloomNames[b]
}

// DisplayName returns the capitalized level name.
func (b BloomLevel) DisplayName() string {
	s := b.String()
	if !b.Valid() {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (b BloomLevel) IsMax() bool { return b == BloomAnalysis }
func (b BloomLevel) IsMin() bool { return b == BloomRecall }

// Next returns the next higher level, or b itself at the top.
func (b BloomLevel) Next() BloomLevel {
	if b.IsMax() {
		return b
	}
	return b + 1
}

// Prev returns the next lower level, or b itself at the bottom.
func (b BloomLevel) Prev() BloomLevel {
	if b.IsMin() {
		return b
	}
	return b - 1
}

func (b BloomLevel) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("invalid bloom level %d", int(b))
	}
	return []byte(b.String()), nil
}

func (b *BloomLevel) UnmarshalText(text []byte) error {
	v, err := ParseBloomLevel(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// Difficulty is the difficulty tier of a question, ordered Easy < Medium < Hard.
type Difficulty int

const (
	Easy Difficulty = iota + 1
	Medium
	Hard
)

var difficultyNames = [...]string{"", "easy", "medium", "hard"}

// AllDifficulties returns every difficulty in ascending order.
func AllDifficulties() []Difficulty {
	return []Difficulty{Easy, Medium, Hard}
}

// ParseDifficulty parses a difficulty name (case-insensitive).
func ParseDifficulty(s string) (Difficulty, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i := 1; i < len(difficultyNames); i++ {
		if difficultyNames[i] == name {
			return Difficulty(i), nil
		}
	}
	return 0, fmt.Errorf("unknown difficulty %q", s)
}

func (d Difficulty) Valid() bool {
	return d >= Easy && d <= Hard
}

func (d Difficulty) String() string {
	if !d.Valid() {
		return fmt.Sprintf("difficulty(%d)", int(d))
	}
	return difficultyNames[d]
}

// DisplayName returns the capitalized difficulty name.
func (d Difficulty) DisplayName() string {
	s := d.String()
	if !d.Valid() {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (d Difficulty) IsMax() bool { return d == Hard }
func (d Difficulty) IsMin() bool { return d == Easy }

// Next returns the next harder tier, or d itself at Hard.
func (d Difficulty) Next() Difficulty {
	if d.IsMax() {
		return d
	}
	return d + 1
}

// Prev returns the next easier tier, or d itself at Easy.
func (d Difficulty) Prev() Difficulty {
	if d.IsMin() {
		return d
	}
	return d - 1
}

func (d Difficulty) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid difficulty %d", int(d))
	}
	return []byte(d.String()), nil
}

func (d *Difficulty) UnmarshalText(text []byte) error {
	v, err := ParseDifficulty(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
