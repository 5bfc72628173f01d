// Package rating implements the pairwise ELO update applied during duel
// settlement. All functions are pure; persistence belongs to the caller.
package rating

import "math"

// Outcome is the actual score of player A in a head-to-head duel.
type Outcome float64

const (
	OutcomeWin  Outcome = 1.0
	OutcomeDraw Outcome = 0.5
	OutcomeLoss Outcome = 0.0
)

// Inverse returns the opponent's outcome.
func (o Outcome) Inverse() Outcome {
	return Outcome(1.0 - float64(o))
}

// Expected returns the expected score of a player rated ra against an
// opponent rated rb: 1 / (1 + 10^((rb-ra)/400)).
func Expected(ra, rb int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(rb-ra)/400.0))
}

// Delta returns the rounded rating change for a player with the given
// expected and actual scores: round(K * (S - E)).
func Delta(k int, outcome Outcome, expected float64) int {
	return int(math.Round(float64(k) * (float64(outcome) - expected)))
}

// Update computes both players' rating deltas for one duel. The deltas are
// equal and opposite up to independent rounding.
func Update(ra, rb, k int, outcomeA Outcome) (deltaA, deltaB int) {
	deltaA = Delta(k, outcomeA, Expected(ra, rb))
	deltaB = Delta(k, outcomeA.Inverse(), Expected(rb, ra))
	return deltaA, deltaB
}

// Apply adds a delta to a rating, flooring the result so ratings cannot
// spiral below the configured minimum.
func Apply(rating, delta, floor int) int {
	next := rating + delta
	if next < floor {
		return floor
	}
	return next
}
