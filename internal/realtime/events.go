package realtime

import (
	"github.com/google/uuid"

	"github.com/codeclash/arena-backend/internal/model"
)

// ─── Events (Server → Subscribers) ──────────────────────────────────

type Event string

const (
	EventParticipantJoined Event = "participant-joined"
	EventSessionStarted    Event = "session-started"
	EventAnswerResult      Event = "answer-result"
	EventSessionFinished   Event = "session-finished"
)

// Envelope is the wire format published on a room channel. Events carrying
// a non-nil UserID are sender-only: the websocket stream forwards them to
// that subscriber alone.
type Envelope struct {
	Type    Event       `json:"type"`
	RoomID  uuid.UUID   `json:"room_id"`
	UserID  *uuid.UUID  `json:"user_id,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// ParticipantJoinedPayload announces a new participant.
type ParticipantJoinedPayload struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Position    int       `json:"position"`
}

// SessionStartedPayload announces the waiting → ongoing transition.
type SessionStartedPayload struct {
	StartedAt        int64 `json:"started_at"`
	TimeLimitSeconds int   `json:"time_limit_seconds"`
}

// AnswerResultPayload reports one judged submission back to its sender.
type AnswerResultPayload struct {
	Verdict     model.Verdict `json:"verdict"`
	PassedCases int           `json:"passed_cases,omitempty"`
	TotalCases  int           `json:"total_cases,omitempty"`
	Score       float64       `json:"score"`
	Finished    bool          `json:"finished"`
}

// SessionFinishedPayload announces the terminal transition with the settled
// outcome.
type SessionFinishedPayload struct {
	Result   model.SessionResult `json:"result"`
	WinnerID *uuid.UUID          `json:"winner_id,omitempty"`
}
