package bot

import (
	"math/rand"
	"strings"
)

// Difficulty selects a built-in strategy.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty maps a client-supplied string onto a known difficulty,
// defaulting to easy.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case DifficultyMedium:
		return DifficultyMedium
	case DifficultyHard:
		return DifficultyHard
	default:
		return DifficultyEasy
	}
}

// New builds the strategy for a difficulty. The rng is shared with the rest
// of the room so tests can seed the whole session deterministically.
func New(d Difficulty, rng *rand.Rand) Strategy {
	switch d {
	case DifficultyHard:
		return &hardStrategy{}
	case DifficultyMedium:
		return &mediumStrategy{rng: rng}
	default:
		return &easyStrategy{rng: rng}
	}
}
