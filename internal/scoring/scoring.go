// Package scoring computes per-participant scores. Coding scores decay with
// elapsed session time; quiz scores are a running tally. Pure functions only.
package scoring

import (
	"math"
	"time"
)

// MinFraction is the floor on a coding score as a fraction of the problem's
// base score. An accepted solution is never worth less than this.
const MinFraction = 0.10

const (
	// QuizCorrectPoints is added per correct quiz answer.
	QuizCorrectPoints = 1.0
	// QuizIncorrectPenalty is added per incorrect quiz answer. The running
	// total has no floor and may go negative.
	QuizIncorrectPenalty = -0.5
)

// CodingScore returns the time-decayed score for an accepted submission:
// max(MinFraction*base, ceil(base * timeRemaining / totalTime)).
// elapsed is measured from session start to the submission instant and is
// clamped to [0, totalTime].
func CodingScore(baseScore int, totalTime, elapsed time.Duration) float64 {
	if baseScore <= 0 || totalTime <= 0 {
		return 0
	}
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > totalTime {
		elapsed = totalTime
	}

	remaining := totalTime - elapsed
	decayed := math.Ceil(float64(baseScore) * remaining.Seconds() / totalTime.Seconds())
	floor := MinFraction * float64(baseScore)

	return math.Max(floor, decayed)
}

// QuizAnswerPoints returns the score contribution of a single quiz answer.
func QuizAnswerPoints(correct bool) float64 {
	if correct {
		return QuizCorrectPoints
	}
	return QuizIncorrectPenalty
}

// QuizTotal tallies a quiz score from correct/incorrect answer counts.
func QuizTotal(correct, incorrect int) float64 {
	return float64(correct)*QuizCorrectPoints + float64(incorrect)*QuizIncorrectPenalty
}

// BestScore implements the monotone resubmission rule: a recomputed score
// replaces the stored one only when strictly higher.
func BestScore(stored, recomputed float64) float64 {
	if recomputed > stored {
		return recomputed
	}
	return stored
}
