package model

import (
	"github.com/google/uuid"
)

// Difficulty buckets used by the random content selector.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists all buckets, used for uniform-random selection.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// TestCase is one judge input/output pair.
type TestCase struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
}

// Problem is a coding task served by the content provider.
type Problem struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	Difficulty       Difficulty `json:"difficulty"`
	BaseScore        int        `json:"base_score"`
	TimeLimitSeconds int        `json:"time_limit_seconds"`
	Statement        string     `json:"statement"`
	TestCases        []TestCase `json:"-"`
}

// Question is one multiple-choice quiz item. CorrectIndex is never exposed
// to participants mid-session.
type Question struct {
	ID           uuid.UUID  `json:"id"`
	Prompt       string     `json:"prompt"`
	Options      []string   `json:"options"`
	CorrectIndex int        `json:"-"`
	Difficulty   Difficulty `json:"difficulty"`
}
