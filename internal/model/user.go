package model

import (
	"time"

	"github.com/google/uuid"
)

// User is a player profile. Rating fields are written only by settlement.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	PasswordHash string    `json:"-"`
	CodingRating int       `json:"coding_rating"`
	QuizRating   int       `json:"quiz_rating"`
	CreatedAt    time.Time `json:"created_at"`
}

// RatingFor returns the user's live rating for a game type.
func (u *User) RatingFor(gt GameType) int {
	if gt == GameTypeQuiz {
		return u.QuizRating
	}
	return u.CodingRating
}

// RegisterRequest is the payload for account creation.
type RegisterRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=32,alphanum"`
	DisplayName string `json:"display_name" binding:"required,min=1,max=64"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
	AvatarURL   string `json:"avatar_url" binding:"omitempty,url,max=255"`
}

// LoginRequest is the payload for login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
