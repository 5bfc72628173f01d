package repository

import "errors"

// Sentinel errors surfaced by repositories. Services translate these into
// API error codes; they never corrupt state.
var (
	// ErrNotFound: the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict: a uniqueness constraint rejected the insert.
	ErrConflict = errors.New("already exists")

	// ErrPreconditionFailed: a conditioned write matched zero rows because
	// another writer got there first. Expected under load; callers re-read
	// and either retry or report "already in desired state".
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrUserBusy: the user already holds an active participant slot in
	// another session (partial unique index violation).
	ErrUserBusy = errors.New("user already in an active session")

	// ErrDuplicateAnswer: the participant already answered this question.
	ErrDuplicateAnswer = errors.New("question already answered")
)
