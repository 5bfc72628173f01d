package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/codeclash/arena-backend/internal/config"
	"github.com/codeclash/arena-backend/internal/model"
	"github.com/codeclash/arena-backend/internal/rating"
)

// SettlementService computes the outcome of a finished session and applies
// it durably: winner, rating transfer, and match history, all in one
// transaction gated on the settlement marker. Settling an already-settled
// session is a no-op, so the inline call after the finish transition and the
// queue-driven reconciler can both fire for the same session safely.
type SettlementService struct {
	pool *pgxpool.Pool
	cfg  *config.Config
	log  zerolog.Logger
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(pool *pgxpool.Pool, cfg *config.Config, log zerolog.Logger) *SettlementService {
	return &SettlementService{
		pool: pool,
		cfg:  cfg,
		log:  log.With().Str("component", "settlement").Logger(),
	}
}

// DecideWinner resolves a finished session's outcome from its participants.
// A declared opponent_left result awards the remaining participant the win
// with no score comparison; otherwise the higher score among participants
// who did not leave wins, and equal scores are a draw. The returned index is
// -1 for a draw.
func DecideWinner(participants []model.Participant, declared *model.SessionResult) (winnerIdx int, result model.SessionResult) {
	if declared != nil && *declared == model.ResultOpponentLeft {
		for i := range participants {
			if participants[i].Status != model.ParticipantStatusLeft {
				return i, model.ResultOpponentLeft
			}
		}
		return -1, model.ResultOpponentLeft
	}

	winnerIdx = -1
	best := 0.0
	tied := true
	for i := range participants {
		if participants[i].Status == model.ParticipantStatusLeft {
			continue
		}
		score := participants[i].Score
		if winnerIdx == -1 {
			winnerIdx, best = i, score
			continue
		}
		if score > best {
			winnerIdx, best, tied = i, score, false
		} else if score < best {
			tied = false
		}
	}

	// Everyone left, or scores are level among those who stayed.
	if winnerIdx == -1 || (tied && countNonLeft(participants) > 1) {
		winnerIdx = -1
	}

	switch {
	case declared != nil && *declared == model.ResultTimeout:
		result = model.ResultTimeout
	case winnerIdx == -1:
		result = model.ResultDraw
	default:
		result = model.ResultWin
	}
	return winnerIdx, result
}

func countNonLeft(participants []model.Participant) int {
	n := 0
	for i := range participants {
		if participants[i].Status != model.ParticipantStatusLeft {
			n++
		}
	}
	return n
}

// Settle applies the outcome of one finished session. The first statement
// claims the settlement marker conditioned on it being unset; a session
// settled by a concurrent caller (or not yet finished) matches zero rows and
// returns nil without touching anything.
func (s *SettlementService) Settle(ctx context.Context, sessionID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE sessions SET settled_at = NOW()
		 WHERE id = $1 AND status = $2 AND settled_at IS NULL`,
		sessionID, model.SessionStatusFinished)
	if err != nil {
		return fmt.Errorf("claim settlement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	var (
		gameType model.GameType
		declared *model.SessionResult
	)
	err = tx.QueryRow(ctx,
		`SELECT game_type, result FROM sessions WHERE id = $1`, sessionID,
	).Scan(&gameType, &declared)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}

	participants, err := s.readParticipants(ctx, tx, sessionID)
	if err != nil {
		return err
	}

	winnerIdx, result := DecideWinner(participants, declared)

	var winnerID *uuid.UUID
	if winnerIdx >= 0 {
		winnerID = &participants[winnerIdx].UserID
	}
	_, err = tx.Exec(ctx,
		`UPDATE sessions SET winner_id = $2, result = $3 WHERE id = $1`,
		sessionID, winnerID, result)
	if err != nil {
		return fmt.Errorf("write outcome: %w", err)
	}

	if err := s.applyRatings(ctx, tx, sessionID, gameType, participants, winnerIdx); err != nil {
		return err
	}

	if err := s.writeHistory(ctx, tx, sessionID, gameType, participants, winnerIdx, result); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.log.Info().
		Str("session_id", sessionID.String()).
		Str("result", string(result)).
		Msg("Session settled")
	return nil
}

func (s *SettlementService) readParticipants(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID) ([]model.Participant, error) {
	rows, err := tx.Query(ctx,
		`SELECT session_id, user_id, display_name, status, score, rating_before
		 FROM session_participants
		 WHERE session_id = $1
		 ORDER BY position ASC
		 FOR UPDATE`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("read participants: %w", err)
	}
	defer rows.Close()

	var participants []model.Participant
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.SessionID, &p.UserID, &p.DisplayName, &p.Status, &p.Score, &p.RatingBefore); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// applyRatings transfers rating between the two duel participants based on
// the ratings snapshotted at join time. Sessions without a full pairing (an
// opponent never arrived before a timeout) carry no rating change.
func (s *SettlementService) applyRatings(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID, gameType model.GameType, participants []model.Participant, winnerIdx int) error {
	if len(participants) != model.MaxDuelParticipants {
		return nil
	}

	outcomeA := rating.OutcomeDraw
	switch winnerIdx {
	case 0:
		outcomeA = rating.OutcomeWin
	case 1:
		outcomeA = rating.OutcomeLoss
	}

	k := s.cfg.RatingKCoding
	ratingColumn := "coding_rating"
	if gameType == model.GameTypeQuiz {
		k = s.cfg.RatingKQuiz
		ratingColumn = "quiz_rating"
	}

	a, b := &participants[0], &participants[1]
	deltaA, deltaB := rating.Update(a.RatingBefore, b.RatingBefore, k, outcomeA)
	afterA := rating.Apply(a.RatingBefore, deltaA, s.cfg.RatingFloor)
	afterB := rating.Apply(b.RatingBefore, deltaB, s.cfg.RatingFloor)

	// Flooring can absorb part of the delta; keep the stored change
	// consistent with before/after.
	deltas := [2]int{afterA - a.RatingBefore, afterB - b.RatingBefore}
	afters := [2]int{afterA, afterB}

	for i, p := range [2]*model.Participant{a, b} {
		after, change := afters[i], deltas[i]
		p.RatingAfter = &after
		p.RatingChange = &change

		_, err := tx.Exec(ctx,
			`UPDATE session_participants
			 SET rating_after = $3, rating_change = $4
			 WHERE session_id = $1 AND user_id = $2`,
			sessionID, p.UserID, after, change)
		if err != nil {
			return fmt.Errorf("write participant rating: %w", err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE users SET `+ratingColumn+` = $2 WHERE id = $1`,
			p.UserID, after)
		if err != nil {
			return fmt.Errorf("write user rating: %w", err)
		}
	}
	return nil
}

func (s *SettlementService) writeHistory(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID, gameType model.GameType, participants []model.Participant, winnerIdx int, result model.SessionResult) error {
	for i := range participants {
		p := &participants[i]

		var opponentID *uuid.UUID
		opponentName := ""
		for j := range participants {
			if j != i {
				opponentID = &participants[j].UserID
				opponentName = participants[j].DisplayName
				break
			}
		}

		after, change := p.RatingBefore, 0
		if p.RatingAfter != nil {
			after = *p.RatingAfter
		}
		if p.RatingChange != nil {
			change = *p.RatingChange
		}

		_, err := tx.Exec(ctx,
			`INSERT INTO match_history
			   (id, user_id, session_id, game_type, opponent_id, opponent_name,
			    result, won, score, rating_before, rating_after, rating_change)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			uuid.New(), p.UserID, sessionID, gameType, opponentID, opponentName,
			result, i == winnerIdx, p.Score, p.RatingBefore, after, change)
		if err != nil {
			return fmt.Errorf("write history: %w", err)
		}
	}
	return nil
}
