package model

import (
	"time"

	"github.com/google/uuid"
)

// GameType distinguishes the two duel disciplines.
type GameType string

const (
	GameTypeCoding GameType = "coding"
	GameTypeQuiz   GameType = "quiz"
)

// MatchType distinguishes how participants are matched into a session.
type MatchType string

const (
	MatchTypeRandom     MatchType = "random"
	MatchTypeRoom       MatchType = "room"
	MatchTypeTournament MatchType = "tournament"
)

// SessionStatus enumerates session lifecycle states.
type SessionStatus string

const (
	SessionStatusWaiting   SessionStatus = "waiting"
	SessionStatusOngoing   SessionStatus = "ongoing"
	SessionStatusFinished  SessionStatus = "finished"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// ParticipantStatus enumerates per-participant states within a session.
type ParticipantStatus string

const (
	ParticipantStatusWaiting  ParticipantStatus = "waiting"
	ParticipantStatusActive   ParticipantStatus = "active"
	ParticipantStatusFinished ParticipantStatus = "finished"
	ParticipantStatusLeft     ParticipantStatus = "left"
)

// SessionResult describes how a finished session ended.
type SessionResult string

const (
	ResultWin          SessionResult = "win"
	ResultDraw         SessionResult = "draw"
	ResultTimeout      SessionResult = "timeout"
	ResultCancelled    SessionResult = "cancelled"
	ResultOpponentLeft SessionResult = "opponent_left"
)

// MaxDuelParticipants caps head-to-head sessions at two players.
const MaxDuelParticipants = 2

// Session is one duel or quiz room. The database row is the single source
// of truth; every status change is a conditioned write keyed on the state
// it read.
type Session struct {
	ID               uuid.UUID      `json:"id"`
	RoomCode         *string        `json:"room_code,omitempty"`
	GameType         GameType       `json:"game_type"`
	MatchType        MatchType      `json:"match_type"`
	Status           SessionStatus  `json:"status"`
	ProblemID        *uuid.UUID     `json:"problem_id,omitempty"`
	QuestionIDs      []uuid.UUID    `json:"question_ids,omitempty"`
	TimeLimitSeconds int            `json:"time_limit_seconds"`
	StartedAt        *time.Time     `json:"started_at,omitempty"`
	EndedAt          *time.Time     `json:"ended_at,omitempty"`
	WinnerID         *uuid.UUID     `json:"winner_id,omitempty"`
	Result           *SessionResult `json:"result,omitempty"`
	SettledAt        *time.Time     `json:"-"`
	ParticipantCount int            `json:"participant_count"`
	CreatedAt        time.Time      `json:"created_at"`

	// Participants is loaded alongside the row for snapshots.
	Participants []Participant `json:"participants,omitempty"`
}

// Participant is one player's membership in a session, including the
// display snapshot captured at join time and the rating fields written
// exactly once during settlement.
type Participant struct {
	SessionID     uuid.UUID         `json:"session_id"`
	UserID        uuid.UUID         `json:"user_id"`
	DisplayName   string            `json:"display_name"`
	AvatarURL     string            `json:"avatar_url,omitempty"`
	Status        ParticipantStatus `json:"status"`
	Score         float64           `json:"score"`
	Attempts      int               `json:"attempts"`
	AnsweredCount int               `json:"answered_count"`
	FinishedAt    *time.Time        `json:"finished_at,omitempty"`
	RatingBefore  int               `json:"rating_before"`
	RatingAfter   *int              `json:"rating_after,omitempty"`
	RatingChange  *int              `json:"rating_change,omitempty"`
	Active        bool              `json:"-"`
	Position      int               `json:"position"`
}

// Verdict classifies a single submission or answer.
type Verdict string

const (
	VerdictPassed    Verdict = "passed"
	VerdictFailed    Verdict = "failed"
	VerdictError     Verdict = "error"
	VerdictCorrect   Verdict = "correct"
	VerdictIncorrect Verdict = "incorrect"
)

// Submission is one recorded answer attempt: a judged code submission for
// coding sessions or a single question answer for quiz sessions.
type Submission struct {
	ID          uuid.UUID  `json:"id"`
	SessionID   uuid.UUID  `json:"session_id"`
	UserID      uuid.UUID  `json:"user_id"`
	QuestionID  *uuid.UUID `json:"question_id,omitempty"`
	Verdict     Verdict    `json:"verdict"`
	PassedCases int        `json:"passed_cases"`
	TotalCases  int        `json:"total_cases"`
	Score       float64    `json:"score"`
	SubmittedAt time.Time  `json:"submitted_at"`
}

// IsTerminal reports whether the session has reached a final state.
func (s *Session) IsTerminal() bool {
	return s.Status == SessionStatusFinished || s.Status == SessionStatusCancelled
}

// Deadline returns the wall-clock instant submissions close. The second
// return value is false until the session has started.
func (s *Session) Deadline() (time.Time, bool) {
	if s.StartedAt == nil {
		return time.Time{}, false
	}
	return s.StartedAt.Add(time.Duration(s.TimeLimitSeconds) * time.Second), true
}

// Overdue reports whether an ongoing session has exceeded its deadline.
func (s *Session) Overdue(now time.Time) bool {
	deadline, ok := s.Deadline()
	return ok && s.Status == SessionStatusOngoing && now.After(deadline)
}

// ParticipantByUser returns the participant entry for a user, or nil.
func (s *Session) ParticipantByUser(userID uuid.UUID) *Participant {
	for i := range s.Participants {
		if s.Participants[i].UserID == userID {
			return &s.Participants[i]
		}
	}
	return nil
}

// Opponent returns the other duel participant, or nil for a lone player.
func (s *Session) Opponent(userID uuid.UUID) *Participant {
	for i := range s.Participants {
		if s.Participants[i].UserID != userID {
			return &s.Participants[i]
		}
	}
	return nil
}

// validTransitions encodes the one-directional session state machine.
// Sessions never move backwards and terminal states have no successors.
var validTransitions = map[SessionStatus][]SessionStatus{
	SessionStatusWaiting: {SessionStatusOngoing, SessionStatusCancelled},
	SessionStatusOngoing: {SessionStatusFinished, SessionStatusCancelled},
}

// CanTransition reports whether a session status change is legal.
func CanTransition(from, to SessionStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllNonLeftFinished reports whether every participant who has not left has
// finished. This is the "both finished" terminal trigger; it is false for an
// empty participant list.
func AllNonLeftFinished(participants []Participant) bool {
	finished := 0
	for _, p := range participants {
		switch p.Status {
		case ParticipantStatusLeft:
			continue
		case ParticipantStatusFinished:
			finished++
		default:
			return false
		}
	}
	return finished > 0
}

// ─── Request payloads ───────────────────────────────────────────────

// CreateSessionRequest starts matchmaking or creates a private room.
type CreateSessionRequest struct {
	GameType GameType `json:"game_type" binding:"required,oneof=coding quiz"`
}

// SubmitAnswerRequest carries one answer. Coding sessions use Code/Language;
// quiz sessions use QuestionID/OptionIndex.
type SubmitAnswerRequest struct {
	Code        string     `json:"code,omitempty"`
	Language    string     `json:"language,omitempty"`
	QuestionID  *uuid.UUID `json:"question_id,omitempty"`
	OptionIndex *int       `json:"option_index,omitempty"`
}
