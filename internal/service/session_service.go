package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/codeclash/arena-backend/internal/config"
	"github.com/codeclash/arena-backend/internal/judge"
	"github.com/codeclash/arena-backend/internal/model"
	"github.com/codeclash/arena-backend/internal/realtime"
	"github.com/codeclash/arena-backend/internal/repository"
	"github.com/codeclash/arena-backend/internal/scoring"
)

// Session lifecycle errors surfaced to callers.
var (
	ErrSessionNotFound         = errors.New("session not found")
	ErrNotAParticipant         = errors.New("not a participant of this session")
	ErrSessionNotOngoing       = errors.New("session is not accepting answers")
	ErrQuestionAlreadyAnswered = errors.New("question already answered")
	ErrQuestionNotInSession    = errors.New("question is not part of this session")
	ErrAnswerTypeMismatch      = errors.New("answer does not match the session's game type")
	ErrAnswerAfterDeadline     = errors.New("answer submitted after the deadline")
)

// AnswerResult is the per-submission outcome returned to the submitting
// participant.
type AnswerResult struct {
	Verdict             model.Verdict `json:"verdict"`
	PassedCases         int           `json:"passed_cases,omitempty"`
	TotalCases          int           `json:"total_cases,omitempty"`
	Score               float64       `json:"score"`
	ParticipantFinished bool          `json:"participant_finished"`
	SessionFinished     bool          `json:"session_finished"`
}

// SessionService is the session lifecycle engine. Each inbound request is
// handled independently and concurrently; correctness comes from the session
// repository's conditioned writes, so a losing writer here re-reads and
// returns a benign "already in desired state" result instead of retrying
// blindly.
type SessionService struct {
	sessionRepo *repository.SessionRepository
	content     *ContentService
	judge       judge.Runner
	settlement  *SettlementService
	notifier    *realtime.Notifier
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	sessionRepo *repository.SessionRepository,
	content *ContentService,
	judgeRunner judge.Runner,
	settlement *SettlementService,
	notifier *realtime.Notifier,
	rdb *redis.Client,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		content:     content,
		judge:       judgeRunner,
		settlement:  settlement,
		notifier:    notifier,
		rdb:         rdb,
		log:         log.With().Str("component", "session_service").Logger(),
	}
}

// Get returns the session snapshot — the source of truth clients reconcile
// against after a dropped push connection. The read doubles as the lazy
// deadline check: an overdue session is finished on the way out.
func (s *SessionService) Get(ctx context.Context, sessionID uuid.UUID) (*model.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if session.Overdue(time.Now()) {
		if err := s.finishSession(ctx, session.ID, resultPtr(model.ResultTimeout)); err != nil {
			return nil, err
		}
		return s.sessionRepo.GetByID(ctx, sessionID)
	}

	return session, nil
}

// GetActive returns the caller's current waiting/ongoing session, if any.
func (s *SessionService) GetActive(ctx context.Context, userID uuid.UUID) (*model.Session, error) {
	session, err := s.sessionRepo.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("find active session: %w", err)
	}
	return session, nil
}

// SubmitCoding judges one code submission. A fully passing run finishes the
// participant and awards the time-decayed score; anything else (including a
// judge failure — never fabricated as a pass) counts as an attempt.
// Resubmissions are allowed until the session ends; the stored score only
// ever rises.
func (s *SessionService) SubmitCoding(ctx context.Context, sessionID, userID uuid.UUID, code, language string) (*AnswerResult, error) {
	session, err := s.loadForAnswer(ctx, sessionID, userID, model.GameTypeCoding)
	if err != nil {
		return nil, err
	}

	problem, err := s.content.GetProblem(ctx, *session.ProblemID)
	if err != nil {
		return nil, fmt.Errorf("load problem: %w", err)
	}

	submittedAt := time.Now()

	sub := &model.Submission{
		ID:        uuid.New(),
		SessionID: sessionID,
		UserID:    userID,
	}

	judged, err := s.judge.Execute(ctx, code, language, problem.TestCases)
	if err != nil {
		// Judge failure is a non-passing attempt; the participant may
		// resubmit until the deadline.
		s.log.Warn().Err(err).
			Str("session_id", sessionID.String()).
			Msg("Judge call failed")
		sub.Verdict = model.VerdictError
		if recErr := s.sessionRepo.RecordCodingAttempt(ctx, sub, false); recErr != nil {
			if errors.Is(recErr, repository.ErrPreconditionFailed) {
				return nil, ErrAnswerAfterDeadline
			}
			return nil, fmt.Errorf("record attempt: %w", recErr)
		}
		result := &AnswerResult{Verdict: model.VerdictError}
		s.notifier.PublishTo(ctx, sessionID, userID, realtime.EventAnswerResult, answerPayload(result))
		return result, nil
	}

	sub.PassedCases = judged.Passed
	sub.TotalCases = judged.Total

	accepted := judged.Accepted()
	if accepted {
		sub.Verdict = model.VerdictPassed
		totalTime := time.Duration(session.TimeLimitSeconds) * time.Second
		elapsed := submittedAt.Sub(*session.StartedAt)
		sub.Score = scoring.CodingScore(problem.BaseScore, totalTime, elapsed)
	} else {
		sub.Verdict = model.VerdictFailed
	}

	// The write is conditioned on the session still being ongoing: if the
	// deadline passed during the judge call, the session was already finished
	// by the sweep and the submission must not land on the settled outcome.
	if err := s.sessionRepo.RecordCodingAttempt(ctx, sub, accepted); err != nil {
		if errors.Is(err, repository.ErrPreconditionFailed) {
			return nil, ErrAnswerAfterDeadline
		}
		return nil, fmt.Errorf("record attempt: %w", err)
	}

	result := &AnswerResult{
		Verdict:     sub.Verdict,
		PassedCases: sub.PassedCases,
		TotalCases:  sub.TotalCases,
		Score:       sub.Score,
	}

	if accepted {
		result.ParticipantFinished = true
		finished, err := s.finishParticipant(ctx, sessionID, userID)
		if err != nil {
			return nil, err
		}
		result.SessionFinished = finished
	}

	s.notifier.PublishTo(ctx, sessionID, userID, realtime.EventAnswerResult, answerPayload(result))
	return result, nil
}

// SubmitQuizAnswer records one answer to one question. Each question may be
// answered at most once; answering the whole list finishes the participant.
func (s *SessionService) SubmitQuizAnswer(ctx context.Context, sessionID, userID, questionID uuid.UUID, optionIndex int) (*AnswerResult, error) {
	session, err := s.loadForAnswer(ctx, sessionID, userID, model.GameTypeQuiz)
	if err != nil {
		return nil, err
	}

	inSession := false
	for _, qid := range session.QuestionIDs {
		if qid == questionID {
			inSession = true
			break
		}
	}
	if !inSession {
		return nil, ErrQuestionNotInSession
	}

	question, err := s.content.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}

	correct := optionIndex == question.CorrectIndex
	delta := scoring.QuizAnswerPoints(correct)

	sub := &model.Submission{
		ID:         uuid.New(),
		SessionID:  sessionID,
		UserID:     userID,
		QuestionID: &questionID,
		Score:      delta,
	}
	if correct {
		sub.Verdict = model.VerdictCorrect
	} else {
		sub.Verdict = model.VerdictIncorrect
	}

	answered, err := s.sessionRepo.RecordQuizAnswer(ctx, sub, delta)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateAnswer) {
			return nil, ErrQuestionAlreadyAnswered
		}
		if errors.Is(err, repository.ErrPreconditionFailed) {
			return nil, ErrAnswerAfterDeadline
		}
		return nil, fmt.Errorf("record answer: %w", err)
	}

	result := &AnswerResult{
		Verdict: sub.Verdict,
		Score:   delta,
	}

	if answered >= len(session.QuestionIDs) {
		result.ParticipantFinished = true
		finished, err := s.finishParticipant(ctx, sessionID, userID)
		if err != nil {
			return nil, err
		}
		result.SessionFinished = finished
	}

	s.notifier.PublishTo(ctx, sessionID, userID, realtime.EventAnswerResult, answerPayload(result))
	return result, nil
}

// Finish is the explicit terminal trigger: the caller stops answering. When
// every participant still in the room has finished, the session ends.
func (s *SessionService) Finish(ctx context.Context, sessionID, userID uuid.UUID) (*model.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.ParticipantByUser(userID) == nil {
		return nil, ErrNotAParticipant
	}
	if session.Status != model.SessionStatusOngoing {
		return nil, ErrSessionNotOngoing
	}

	if _, err := s.finishParticipant(ctx, sessionID, userID); err != nil {
		return nil, err
	}
	return s.sessionRepo.GetByID(ctx, sessionID)
}

// Leave withdraws the caller. A waiting session is torn down; leaving an
// ongoing duel forfeits it and the remaining participant is awarded the win
// without any score comparison.
func (s *SessionService) Leave(ctx context.Context, sessionID, userID uuid.UUID) (*model.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.ParticipantByUser(userID) == nil {
		return nil, ErrNotAParticipant
	}
	if session.IsTerminal() {
		return session, nil
	}

	if err := s.sessionRepo.MarkParticipantLeft(ctx, sessionID, userID); err != nil {
		if errors.Is(err, repository.ErrPreconditionFailed) {
			// Already left/finished — benign.
			return s.sessionRepo.GetByID(ctx, sessionID)
		}
		return nil, fmt.Errorf("mark left: %w", err)
	}

	switch session.Status {
	case model.SessionStatusWaiting:
		// Sole participant walked away before an opponent arrived.
		if err := s.sessionRepo.Cancel(ctx, sessionID, model.SessionStatusWaiting); err != nil &&
			!errors.Is(err, repository.ErrPreconditionFailed) {
			return nil, fmt.Errorf("cancel session: %w", err)
		}

	case model.SessionStatusOngoing:
		refreshed, err := s.sessionRepo.GetByID(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("reload session: %w", err)
		}
		remaining := 0
		for _, p := range refreshed.Participants {
			if p.Status != model.ParticipantStatusLeft {
				remaining++
			}
		}
		if remaining == 0 {
			// Everyone abandoned the duel; nothing to settle.
			if err := s.sessionRepo.Cancel(ctx, sessionID, model.SessionStatusOngoing); err != nil &&
				!errors.Is(err, repository.ErrPreconditionFailed) {
				return nil, fmt.Errorf("cancel session: %w", err)
			}
		} else {
			if err := s.finishSession(ctx, sessionID, resultPtr(model.ResultOpponentLeft)); err != nil {
				return nil, err
			}
		}
	}

	return s.sessionRepo.GetByID(ctx, sessionID)
}

// ExpireOverdue ends every ongoing session past its deadline. Called by the
// background sweep; the conditioned finish write makes it safe against
// sessions a participant just finished normally.
func (s *SessionService) ExpireOverdue(ctx context.Context, limit int) (int, error) {
	ids, err := s.sessionRepo.ListOverdueOngoing(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list overdue: %w", err)
	}

	expired := 0
	for _, id := range ids {
		if err := s.finishSession(ctx, id, resultPtr(model.ResultTimeout)); err != nil {
			s.log.Error().Err(err).Str("session_id", id.String()).Msg("Expire failed")
			continue
		}
		expired++
	}
	return expired, nil
}

// ─── Internal helpers ───────────────────────────────────────────────

// loadForAnswer validates the common submission preconditions: the session
// exists, is ongoing and within its deadline, and the caller participates.
func (s *SessionService) loadForAnswer(ctx context.Context, sessionID, userID uuid.UUID, gt model.GameType) (*model.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	p := session.ParticipantByUser(userID)
	if p == nil {
		return nil, ErrNotAParticipant
	}
	if session.Status != model.SessionStatusOngoing {
		return nil, ErrSessionNotOngoing
	}
	// A code submission against a quiz session (or vice versa) is a malformed
	// request, not a lifecycle conflict.
	if session.GameType != gt {
		return nil, ErrAnswerTypeMismatch
	}
	if p.Status == model.ParticipantStatusLeft {
		return nil, ErrNotAParticipant
	}

	// Lazy deadline check: an overdue session is ended here and the answer
	// rejected, so late answers lose even when the sweep is behind.
	if session.Overdue(time.Now()) {
		if err := s.finishSession(ctx, sessionID, resultPtr(model.ResultTimeout)); err != nil {
			return nil, err
		}
		return nil, ErrAnswerAfterDeadline
	}

	return session, nil
}

// finishParticipant marks a participant finished and ends the session when
// every non-left participant is done. Returns whether the session finished.
func (s *SessionService) finishParticipant(ctx context.Context, sessionID, userID uuid.UUID) (bool, error) {
	err := s.sessionRepo.MarkParticipantFinished(ctx, sessionID, userID)
	if err != nil && !errors.Is(err, repository.ErrPreconditionFailed) {
		return false, fmt.Errorf("mark finished: %w", err)
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("reload session: %w", err)
	}

	if session.Status == model.SessionStatusOngoing && model.AllNonLeftFinished(session.Participants) {
		if err := s.finishSession(ctx, sessionID, nil); err != nil {
			return false, err
		}
		return true, nil
	}
	return session.IsTerminal(), nil
}

// finishSession fires the ongoing → finished transition exactly once and
// runs settlement. A duplicate trigger observes the precondition failure
// and returns cleanly; the transition it lost to already did the work.
func (s *SessionService) finishSession(ctx context.Context, sessionID uuid.UUID, result *model.SessionResult) error {
	err := s.sessionRepo.TransitionToFinished(ctx, sessionID, result)
	if err != nil {
		if errors.Is(err, repository.ErrPreconditionFailed) {
			return nil
		}
		return fmt.Errorf("finish transition: %w", err)
	}

	if err := s.settlement.Settle(ctx, sessionID); err != nil {
		// The finished row stays unsettled; queue it for the reconciler
		// instead of losing the rating transfer.
		s.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Settlement failed, queueing retry")
		if qErr := s.rdb.RPush(ctx, config.WorkerKey.SettleSessionsQueue, sessionID.String()).Err(); qErr != nil {
			s.log.Error().Err(qErr).Str("session_id", sessionID.String()).Msg("Settlement enqueue failed")
		}
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("reload finished session: %w", err)
	}

	payload := realtime.SessionFinishedPayload{WinnerID: session.WinnerID}
	if session.Result != nil {
		payload.Result = *session.Result
	}
	s.notifier.Publish(ctx, sessionID, realtime.EventSessionFinished, payload)
	return nil
}

func answerPayload(r *AnswerResult) realtime.AnswerResultPayload {
	return realtime.AnswerResultPayload{
		Verdict:     r.Verdict,
		PassedCases: r.PassedCases,
		TotalCases:  r.TotalCases,
		Score:       r.Score,
		Finished:    r.ParticipantFinished,
	}
}

func resultPtr(r model.SessionResult) *model.SessionResult {
	return &r
}
