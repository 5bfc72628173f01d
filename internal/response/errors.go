package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrUsernameTaken      ErrCode = "USERNAME_TAKEN"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Matchmaking ───────────────────────────────────────────────────
	ErrAlreadyInSession ErrCode = "ALREADY_IN_SESSION"
	ErrRoomNotFound     ErrCode = "ROOM_NOT_FOUND"
	ErrRoomFull         ErrCode = "ROOM_FULL"
	ErrRoomStarted      ErrCode = "ROOM_ALREADY_STARTED"
	ErrNoContent        ErrCode = "NO_CONTENT_AVAILABLE"

	// ─── Session lifecycle ─────────────────────────────────────────────
	ErrSessionNotFound   ErrCode = "SESSION_NOT_FOUND"
	ErrNotAParticipant   ErrCode = "NOT_A_PARTICIPANT"
	ErrSessionNotOngoing ErrCode = "SESSION_NOT_ONGOING"
	ErrQuestionAnswered  ErrCode = "QUESTION_ALREADY_ANSWERED"
	ErrAfterDeadline     ErrCode = "ANSWER_AFTER_DEADLINE"
	ErrTryAgain          ErrCode = "TRY_AGAIN"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Username or password is incorrect."
	case ErrUsernameTaken:
		return "That username is already taken."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Matchmaking ───────────────────────────────────────────────────
	case ErrAlreadyInSession:
		return "You are already in a game."
	case ErrRoomNotFound:
		return "No room exists with that code."
	case ErrRoomFull:
		return "That room is already full."
	case ErrRoomStarted:
		return "That room has already started."
	case ErrNoContent:
		return "No problems or questions are available for this mode."

	// ─── Session lifecycle ─────────────────────────────────────────────
	case ErrSessionNotFound:
		return "Session not found."
	case ErrNotAParticipant:
		return "You are not a participant of this session."
	case ErrSessionNotOngoing:
		return "This session is not accepting answers."
	case ErrQuestionAnswered:
		return "You have already answered this question."
	case ErrAfterDeadline:
		return "The time limit for this session has passed."
	case ErrTryAgain:
		return "The request conflicted with another update. Please try again."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
