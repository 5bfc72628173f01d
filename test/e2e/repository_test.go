//go:build e2e
// +build e2e

package e2e

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeclash/arena-backend/internal/model"
	"github.com/codeclash/arena-backend/internal/repository"
)

// TestLateWritesRejectedAfterFinish seeds a session that the deadline sweep
// already finished and checks that every answer-path write refuses to land on
// it. This is the window where a judge call outlives the session: the lazy
// deadline check passed while the session was still ongoing, the sweep
// finished and settled it mid-call, and the write must fail at the store
// rather than raise a score on a settled outcome.
func TestLateWritesRejectedAfterFinish(t *testing.T) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	userID := uuid.New()
	questionID := uuid.New()
	sessID := uuid.New()
	username := "late_writer_" + sessID.String()[:8]

	if _, err := pool.Exec(ctx,
		`INSERT INTO users (id, username, display_name, password_hash)
		 VALUES ($1, $2, $2, 'x')`, userID, username); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if _, err := pool.Exec(ctx,
		`INSERT INTO questions (id, prompt, options, correct_index, difficulty)
		 VALUES ($1, 'late write question', '["a","b"]', 0, 'easy')`, questionID); err != nil {
		t.Fatalf("seed question: %v", err)
	}
	started := time.Now().Add(-20 * time.Minute)
	if _, err := pool.Exec(ctx,
		`INSERT INTO sessions
		   (id, game_type, match_type, status, question_ids, time_limit_seconds,
		    started_at, ended_at, participant_count)
		 VALUES ($1, 'quiz', 'random', 'finished', $2, 600, $3, NOW(), 2)`,
		sessID, []uuid.UUID{questionID}, started); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	// Post-sweep shape: slot released, participant never flipped to finished.
	if _, err := pool.Exec(ctx,
		`INSERT INTO session_participants
		   (session_id, user_id, display_name, status, rating_before, active, position)
		 VALUES ($1, $2, $3, 'active', 1200, FALSE, 0)`,
		sessID, userID, username); err != nil {
		t.Fatalf("seed participant: %v", err)
	}

	repo := repository.NewSessionRepository(pool)

	sub := &model.Submission{
		ID:          uuid.New(),
		SessionID:   sessID,
		UserID:      userID,
		Verdict:     model.VerdictPassed,
		PassedCases: 5,
		TotalCases:  5,
		Score:       100,
	}
	if err := repo.RecordCodingAttempt(ctx, sub, true); !errors.Is(err, repository.ErrPreconditionFailed) {
		t.Fatalf("RecordCodingAttempt on finished session: err = %v, want ErrPreconditionFailed", err)
	}

	answer := &model.Submission{
		ID:         uuid.New(),
		SessionID:  sessID,
		UserID:     userID,
		QuestionID: &questionID,
		Verdict:    model.VerdictCorrect,
		Score:      1,
	}
	if _, err := repo.RecordQuizAnswer(ctx, answer, 1); !errors.Is(err, repository.ErrPreconditionFailed) {
		t.Fatalf("RecordQuizAnswer on finished session: err = %v, want ErrPreconditionFailed", err)
	}

	if err := repo.MarkParticipantFinished(ctx, sessID, userID); !errors.Is(err, repository.ErrPreconditionFailed) {
		t.Fatalf("MarkParticipantFinished on finished session: err = %v, want ErrPreconditionFailed", err)
	}

	// Nothing leaked through.
	var count int
	if err := pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM submissions WHERE session_id = $1`, sessID).Scan(&count); err != nil {
		t.Fatalf("count submissions: %v", err)
	}
	if count != 0 {
		t.Fatalf("submissions written on finished session = %d, want 0", count)
	}

	var score float64
	var pstatus string
	err = pool.QueryRow(ctx,
		`SELECT score, status FROM session_participants
		 WHERE session_id = $1 AND user_id = $2`, sessID, userID).Scan(&score, &pstatus)
	if err != nil {
		t.Fatalf("read participant: %v", err)
	}
	if score != 0 {
		t.Fatalf("participant score = %v, want 0", score)
	}
	if pstatus != "active" {
		t.Fatalf("participant status = %q, want active", pstatus)
	}
}
