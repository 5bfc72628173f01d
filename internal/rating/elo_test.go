package rating

import (
	"math"
	"testing"
)

func TestExpectedEqualRatings(t *testing.T) {
	if e := Expected(1200, 1200); e != 0.5 {
		t.Fatalf("Expected(1200, 1200) = %v, want 0.5", e)
	}
}

func TestExpectedSumsToOne(t *testing.T) {
	pairs := [][2]int{{1200, 1200}, {1500, 1100}, {800, 2400}, {1000, 1016}}
	for _, p := range pairs {
		sum := Expected(p[0], p[1]) + Expected(p[1], p[0])
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("Expected(%d,%d)+Expected(%d,%d) = %v, want 1", p[0], p[1], p[1], p[0], sum)
		}
	}
}

func TestUpdateEqualRatingsWin(t *testing.T) {
	dA, dB := Update(1200, 1200, 32, OutcomeWin)
	if dA != 16 || dB != -16 {
		t.Fatalf("Update(1200, 1200, 32, win) = (%d, %d), want (16, -16)", dA, dB)
	}
}

func TestUpdateEqualRatingsDraw(t *testing.T) {
	dA, dB := Update(1200, 1200, 32, OutcomeDraw)
	if dA != 0 || dB != 0 {
		t.Fatalf("draw between equal ratings = (%d, %d), want (0, 0)", dA, dB)
	}
}

func TestUpdateApproximatelySymmetric(t *testing.T) {
	cases := []struct {
		ra, rb  int
		outcome Outcome
	}{
		{1200, 1200, OutcomeWin},
		{1500, 1100, OutcomeLoss},
		{1000, 1800, OutcomeWin},
		{950, 1000, OutcomeDraw},
	}
	for _, c := range cases {
		dA, dB := Update(c.ra, c.rb, 32, c.outcome)
		// Independent rounding can leave a residue of at most 1.
		if sum := dA + dB; sum < -1 || sum > 1 {
			t.Errorf("Update(%d, %d, 32, %v) deltas sum to %d", c.ra, c.rb, c.outcome, sum)
		}
	}
}

func TestUpdateUnderdogWinsBig(t *testing.T) {
	dA, _ := Update(1000, 1800, 32, OutcomeWin)
	if dA <= 16 {
		t.Fatalf("underdog win delta = %d, want > 16", dA)
	}
}

func TestApplyFloor(t *testing.T) {
	if got := Apply(810, -25, 800); got != 800 {
		t.Fatalf("Apply(810, -25, 800) = %d, want 800", got)
	}
	if got := Apply(1200, -16, 800); got != 1184 {
		t.Fatalf("Apply(1200, -16, 800) = %d, want 1184", got)
	}
}
