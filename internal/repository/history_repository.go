package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeclash/arena-backend/internal/model"
)

// HistoryRepository reads the per-user match history written by settlement.
// Inserts happen inside the settlement transaction, not here.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// ListByUser returns a user's match history, newest first, with pagination.
func (r *HistoryRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, perPage int) ([]model.MatchHistoryEntry, int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM match_history WHERE user_id = $1`, userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, session_id, game_type, opponent_id, opponent_name,
		        result, won, score, rating_before, rating_after, rating_change, played_at
		 FROM match_history
		 WHERE user_id = $1
		 ORDER BY played_at DESC
		 LIMIT $2 OFFSET $3`, userID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []model.MatchHistoryEntry
	for rows.Next() {
		var e model.MatchHistoryEntry
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.SessionID, &e.GameType, &e.OpponentID,
			&e.OpponentName, &e.Result, &e.Won, &e.Score,
			&e.RatingBefore, &e.RatingAfter, &e.RatingChange, &e.PlayedAt,
		); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
