package model

import (
	"time"

	"github.com/google/uuid"
)

// MatchHistoryEntry is the durable per-user record appended by settlement,
// one row per participant per finished session.
type MatchHistoryEntry struct {
	ID           uuid.UUID     `json:"id"`
	UserID       uuid.UUID     `json:"user_id"`
	SessionID    uuid.UUID     `json:"session_id"`
	GameType     GameType      `json:"game_type"`
	OpponentID   *uuid.UUID    `json:"opponent_id,omitempty"`
	OpponentName string        `json:"opponent_name,omitempty"`
	Result       SessionResult `json:"result"`
	Won          bool          `json:"won"`
	Score        float64       `json:"score"`
	RatingBefore int           `json:"rating_before"`
	RatingAfter  int           `json:"rating_after"`
	RatingChange int           `json:"rating_change"`
	PlayedAt     time.Time     `json:"played_at"`
}
