package scoring

import (
	"testing"
	"time"
)

func TestCodingScoreHalfTime(t *testing.T) {
	// base=100, total=1800s, accepted at t=900s → 50.
	got := CodingScore(100, 1800*time.Second, 900*time.Second)
	if got != 50 {
		t.Fatalf("CodingScore(100, 1800s, 900s) = %v, want 50", got)
	}
}

func TestCodingScoreImmediateSubmission(t *testing.T) {
	got := CodingScore(100, 1800*time.Second, 0)
	if got != 100 {
		t.Fatalf("CodingScore at t=0 = %v, want 100", got)
	}
}

func TestCodingScoreFloor(t *testing.T) {
	// Last-second accept still earns 10% of base.
	got := CodingScore(100, 1800*time.Second, 1800*time.Second)
	if got != 10 {
		t.Fatalf("CodingScore at deadline = %v, want 10", got)
	}
}

func TestCodingScoreCeil(t *testing.T) {
	// 100 * 1000/1800 = 55.55… → ceil → 56.
	got := CodingScore(100, 1800*time.Second, 800*time.Second)
	if got != 56 {
		t.Fatalf("CodingScore(100, 1800s, 800s) = %v, want 56", got)
	}
}

func TestCodingScoreClampsElapsed(t *testing.T) {
	if got := CodingScore(100, 1800*time.Second, -5*time.Second); got != 100 {
		t.Errorf("negative elapsed = %v, want 100", got)
	}
	if got := CodingScore(100, 1800*time.Second, 3600*time.Second); got != 10 {
		t.Errorf("overlong elapsed = %v, want floor 10", got)
	}
}

func TestCodingScoreDegenerateInputs(t *testing.T) {
	if got := CodingScore(0, 1800*time.Second, 0); got != 0 {
		t.Errorf("zero base = %v, want 0", got)
	}
	if got := CodingScore(100, 0, 0); got != 0 {
		t.Errorf("zero total time = %v, want 0", got)
	}
}

func TestQuizTotal(t *testing.T) {
	// 6 correct, 4 wrong → 6 - 2 = 4.
	if got := QuizTotal(6, 4); got != 4 {
		t.Fatalf("QuizTotal(6, 4) = %v, want 4", got)
	}
}

func TestQuizTotalMayGoNegative(t *testing.T) {
	if got := QuizTotal(0, 5); got != -2.5 {
		t.Fatalf("QuizTotal(0, 5) = %v, want -2.5", got)
	}
}

func TestQuizAnswerPoints(t *testing.T) {
	if got := QuizAnswerPoints(true); got != 1 {
		t.Errorf("correct = %v, want 1", got)
	}
	if got := QuizAnswerPoints(false); got != -0.5 {
		t.Errorf("incorrect = %v, want -0.5", got)
	}
}

func TestBestScoreMonotone(t *testing.T) {
	score := 0.0
	for _, recomputed := range []float64{50, 72, 60, 90, 85} {
		next := BestScore(score, recomputed)
		if next < score {
			t.Fatalf("BestScore decreased: %v → %v", score, next)
		}
		score = next
	}
	if score != 90 {
		t.Fatalf("final score = %v, want 90", score)
	}
}
