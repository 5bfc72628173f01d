package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/codeclash/arena-backend/internal/model"
	"github.com/codeclash/arena-backend/internal/realtime"
	"github.com/codeclash/arena-backend/internal/repository"
)

// Matchmaking errors surfaced to callers.
var (
	ErrAlreadyInSession   = errors.New("user already has an active session")
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrRoomAlreadyStarted = errors.New("room has already started")
	ErrMatchmakingBusy    = errors.New("matchmaking contention, try again")
)

const (
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	roomCodeLength   = 6

	// Bounded retries on conditioned-write losses. One retry almost always
	// suffices for a two-player race; more just hides real trouble.
	joinAttempts     = 3
	roomCodeAttempts = 5
)

// MatchmakerService pairs players into sessions. Pairing never locks: both
// racing joins run the same conditioned slot claim and the loser re-searches
// or opens a fresh waiting session.
type MatchmakerService struct {
	sessionRepo *repository.SessionRepository
	userRepo    *repository.UserRepository
	content     *ContentService
	notifier    *realtime.Notifier
	log         zerolog.Logger
}

// NewMatchmakerService creates a new MatchmakerService.
func NewMatchmakerService(
	sessionRepo *repository.SessionRepository,
	userRepo *repository.UserRepository,
	content *ContentService,
	notifier *realtime.Notifier,
	log zerolog.Logger,
) *MatchmakerService {
	return &MatchmakerService{
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		content:     content,
		notifier:    notifier,
		log:         log.With().Str("component", "matchmaker").Logger(),
	}
}

// JoinRandom matches a player into the oldest waiting random session of the
// requested game type, or opens a new waiting session when none fits. A
// player who already holds a live session gets that session back with
// ErrAlreadyInSession so clients can resume it.
func (s *MatchmakerService) JoinRandom(ctx context.Context, userID uuid.UUID, gameType model.GameType) (*model.Session, error) {
	if existing, err := s.activeSession(ctx, userID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, ErrAlreadyInSession
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	for attempt := 0; attempt < joinAttempts; attempt++ {
		candidate, err := s.sessionRepo.FindJoinableRandom(ctx, gameType, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return s.openSession(ctx, user, gameType, model.MatchTypeRandom, nil)
			}
			return nil, fmt.Errorf("find joinable: %w", err)
		}

		session, err := s.claimSlot(ctx, candidate.ID, user, gameType)
		if err != nil {
			if errors.Is(err, repository.ErrPreconditionFailed) {
				// Someone else took the slot between the search and the
				// claim. Search again.
				continue
			}
			return nil, err
		}
		return session, nil
	}

	return nil, ErrMatchmakingBusy
}

// CreateRoom opens a private waiting session with a shareable room code.
func (s *MatchmakerService) CreateRoom(ctx context.Context, userID uuid.UUID, gameType model.GameType) (*model.Session, error) {
	if existing, err := s.activeSession(ctx, userID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, ErrAlreadyInSession
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	code, err := s.uniqueRoomCode(ctx)
	if err != nil {
		return nil, err
	}
	return s.openSession(ctx, user, gameType, model.MatchTypeRoom, &code)
}

// JoinRoom joins the waiting session behind a room code. Joining a room the
// caller already sits in returns that session unchanged.
func (s *MatchmakerService) JoinRoom(ctx context.Context, userID uuid.UUID, code string) (*model.Session, error) {
	session, err := s.sessionRepo.GetByRoomCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("find room: %w", err)
	}

	// Idempotent rejoin: the code resolves to a session the caller is
	// already part of.
	if session.ParticipantByUser(userID) != nil && !session.IsTerminal() {
		return session, nil
	}

	if err := classifyRoomState(session); err != nil {
		return nil, err
	}

	if existing, err := s.activeSession(ctx, userID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, ErrAlreadyInSession
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	joined, err := s.claimSlot(ctx, session.ID, user, session.GameType)
	if err != nil {
		if errors.Is(err, repository.ErrPreconditionFailed) {
			// Lost the race for the last slot. Re-read for an accurate
			// rejection.
			refreshed, readErr := s.sessionRepo.GetByID(ctx, session.ID)
			if readErr != nil {
				return nil, ErrRoomNotFound
			}
			if stateErr := classifyRoomState(refreshed); stateErr != nil {
				return nil, stateErr
			}
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return joined, nil
}

// classifyRoomState maps a non-joinable room to its rejection.
func classifyRoomState(session *model.Session) error {
	switch {
	case session.IsTerminal():
		return ErrRoomNotFound
	case session.Status == model.SessionStatusOngoing:
		return ErrRoomAlreadyStarted
	case session.ParticipantCount >= model.MaxDuelParticipants:
		return ErrRoomFull
	}
	return nil
}

// ─── Internal helpers ───────────────────────────────────────────────

// activeSession returns the caller's live session or nil.
func (s *MatchmakerService) activeSession(ctx context.Context, userID uuid.UUID) (*model.Session, error) {
	existing, err := s.sessionRepo.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("check active session: %w", err)
	}
	return existing, nil
}

// openSession creates a fresh waiting session seeded with content and the
// caller as first participant.
func (s *MatchmakerService) openSession(ctx context.Context, user *model.User, gameType model.GameType, matchType model.MatchType, roomCode *string) (*model.Session, error) {
	session := &model.Session{
		ID:        uuid.New(),
		RoomCode:  roomCode,
		GameType:  gameType,
		MatchType: matchType,
	}

	switch gameType {
	case model.GameTypeQuiz:
		questionIDs, err := s.content.PickQuestions(ctx)
		if err != nil {
			return nil, err
		}
		session.QuestionIDs = questionIDs
		session.TimeLimitSeconds = QuizTimeLimitSeconds
	default:
		problem, err := s.content.PickProblem(ctx)
		if err != nil {
			return nil, err
		}
		session.ProblemID = &problem.ID
		session.TimeLimitSeconds = problem.TimeLimitSeconds
	}

	first := participantFor(user, gameType)
	if err := s.sessionRepo.Create(ctx, session, first); err != nil {
		if errors.Is(err, repository.ErrUserBusy) {
			// The caller slipped into another session since the active
			// check; surface that one.
			if existing, aErr := s.activeSession(ctx, user.ID); aErr == nil && existing != nil {
				return existing, ErrAlreadyInSession
			}
			return nil, ErrAlreadyInSession
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info().
		Str("session_id", session.ID.String()).
		Str("game_type", string(gameType)).
		Str("match_type", string(matchType)).
		Msg("Session opened")
	return session, nil
}

// claimSlot attempts the conditioned second-slot claim and publishes the
// join (and start, when the claim completed the pairing) events after the
// commit.
func (s *MatchmakerService) claimSlot(ctx context.Context, sessionID uuid.UUID, user *model.User, gameType model.GameType) (*model.Session, error) {
	p := participantFor(user, gameType)

	session, err := s.sessionRepo.AddParticipant(ctx, sessionID, p)
	if err != nil {
		if errors.Is(err, repository.ErrUserBusy) {
			if existing, aErr := s.activeSession(ctx, user.ID); aErr == nil && existing != nil {
				return existing, ErrAlreadyInSession
			}
			return nil, ErrAlreadyInSession
		}
		return nil, err
	}

	s.notifier.Publish(ctx, session.ID, realtime.EventParticipantJoined, realtime.ParticipantJoinedPayload{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
		Position:    p.Position,
	})

	if session.Status == model.SessionStatusOngoing && session.StartedAt != nil {
		s.notifier.Publish(ctx, session.ID, realtime.EventSessionStarted, realtime.SessionStartedPayload{
			StartedAt:        session.StartedAt.Unix(),
			TimeLimitSeconds: session.TimeLimitSeconds,
		})
		s.log.Info().
			Str("session_id", session.ID.String()).
			Msg("Session started")
	}

	return session, nil
}

func participantFor(user *model.User, gameType model.GameType) *model.Participant {
	return &model.Participant{
		UserID:       user.ID,
		DisplayName:  user.DisplayName,
		AvatarURL:    user.AvatarURL,
		RatingBefore: user.RatingFor(gameType),
	}
}

// uniqueRoomCode draws random codes until one is free of live rooms.
func (s *MatchmakerService) uniqueRoomCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < roomCodeAttempts; attempt++ {
		code, err := GenerateRoomCode()
		if err != nil {
			return "", err
		}
		inUse, err := s.sessionRepo.RoomCodeInUse(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check room code: %w", err)
		}
		if !inUse {
			return code, nil
		}
	}
	return "", errors.New("could not allocate a room code")
}

// GenerateRoomCode returns a 6-character uppercase alphanumeric code.
func GenerateRoomCode() (string, error) {
	buf := make([]byte, roomCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	code := make([]byte, roomCodeLength)
	for i, b := range buf {
		code[i] = roomCodeAlphabet[int(b)%len(roomCodeAlphabet)]
	}
	return string(code), nil
}
