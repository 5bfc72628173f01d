package service

import (
	"testing"

	"github.com/google/uuid"

	"github.com/codeclash/arena-backend/internal/model"
)

func duelists(statusA, statusB model.ParticipantStatus, scoreA, scoreB float64) []model.Participant {
	return []model.Participant{
		{UserID: uuid.New(), DisplayName: "alice", Status: statusA, Score: scoreA, RatingBefore: 1200},
		{UserID: uuid.New(), DisplayName: "bob", Status: statusB, Score: scoreB, RatingBefore: 1200},
	}
}

func resultOf(r model.SessionResult) *model.SessionResult {
	return &r
}

func TestDecideWinnerHigherScoreWins(t *testing.T) {
	ps := duelists(model.ParticipantStatusFinished, model.ParticipantStatusFinished, 80, 50)

	idx, result := DecideWinner(ps, nil)
	if idx != 0 {
		t.Fatalf("winner index = %d, want 0", idx)
	}
	if result != model.ResultWin {
		t.Fatalf("result = %s, want %s", result, model.ResultWin)
	}

	ps = duelists(model.ParticipantStatusFinished, model.ParticipantStatusFinished, 10, 56)
	idx, result = DecideWinner(ps, nil)
	if idx != 1 {
		t.Fatalf("winner index = %d, want 1", idx)
	}
	if result != model.ResultWin {
		t.Fatalf("result = %s, want %s", result, model.ResultWin)
	}
}

func TestDecideWinnerTieIsDraw(t *testing.T) {
	ps := duelists(model.ParticipantStatusFinished, model.ParticipantStatusFinished, 42.5, 42.5)

	idx, result := DecideWinner(ps, nil)
	if idx != -1 {
		t.Fatalf("winner index = %d, want -1 for a draw", idx)
	}
	if result != model.ResultDraw {
		t.Fatalf("result = %s, want %s", result, model.ResultDraw)
	}
}

func TestDecideWinnerZeroZeroIsDraw(t *testing.T) {
	// Neither player scored anything before the deadline.
	ps := duelists(model.ParticipantStatusActive, model.ParticipantStatusActive, 0, 0)

	idx, result := DecideWinner(ps, nil)
	if idx != -1 {
		t.Fatalf("winner index = %d, want -1", idx)
	}
	if result != model.ResultDraw {
		t.Fatalf("result = %s, want %s", result, model.ResultDraw)
	}
}

func TestDecideWinnerOpponentLeftIgnoresScores(t *testing.T) {
	// The leaver has the higher score; the remaining player still wins.
	ps := duelists(model.ParticipantStatusLeft, model.ParticipantStatusActive, 100, 0)

	idx, result := DecideWinner(ps, resultOf(model.ResultOpponentLeft))
	if idx != 1 {
		t.Fatalf("winner index = %d, want the remaining participant (1)", idx)
	}
	if result != model.ResultOpponentLeft {
		t.Fatalf("result = %s, want %s", result, model.ResultOpponentLeft)
	}
}

func TestDecideWinnerTimeoutComparesScores(t *testing.T) {
	ps := duelists(model.ParticipantStatusActive, model.ParticipantStatusFinished, 10, 56)

	idx, result := DecideWinner(ps, resultOf(model.ResultTimeout))
	if idx != 1 {
		t.Fatalf("winner index = %d, want 1", idx)
	}
	// Timeout stays visible as the cause even though a winner exists.
	if result != model.ResultTimeout {
		t.Fatalf("result = %s, want %s", result, model.ResultTimeout)
	}
}

func TestDecideWinnerTimeoutTieHasNoWinner(t *testing.T) {
	ps := duelists(model.ParticipantStatusActive, model.ParticipantStatusActive, 30, 30)

	idx, result := DecideWinner(ps, resultOf(model.ResultTimeout))
	if idx != -1 {
		t.Fatalf("winner index = %d, want -1", idx)
	}
	if result != model.ResultTimeout {
		t.Fatalf("result = %s, want %s", result, model.ResultTimeout)
	}
}

func TestDecideWinnerLeaverExcludedFromComparison(t *testing.T) {
	// Without a declared opponent_left result, a left participant's score
	// still never beats a participant who stayed.
	ps := duelists(model.ParticipantStatusLeft, model.ParticipantStatusFinished, 999, 1)

	idx, result := DecideWinner(ps, nil)
	if idx != 1 {
		t.Fatalf("winner index = %d, want 1", idx)
	}
	if result != model.ResultWin {
		t.Fatalf("result = %s, want %s", result, model.ResultWin)
	}
}
