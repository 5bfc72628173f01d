package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeclash/arena-backend/internal/model"
)

const pgUniqueViolation = "23505"

const sessionColumns = `id, room_code, game_type, match_type, status, problem_id, question_ids,
	 time_limit_seconds, started_at, ended_at, winner_id, result, settled_at,
	 participant_count, created_at`

const participantColumns = `session_id, user_id, display_name, avatar_url, status, score, attempts,
	 answered_count, finished_at, rating_before, rating_after, rating_change, active, position`

// SessionRepository is the session store. Every state-changing write is a
// read-modify-write conditioned on the state it read: UPDATEs carry the
// expected status (and participant count) in the WHERE clause and losing
// writers observe ErrPreconditionFailed instead of clobbering each other.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*model.Session, error) {
	s := &model.Session{}
	err := row.Scan(
		&s.ID, &s.RoomCode, &s.GameType, &s.MatchType, &s.Status, &s.ProblemID,
		&s.QuestionIDs, &s.TimeLimitSeconds, &s.StartedAt, &s.EndedAt,
		&s.WinnerID, &s.Result, &s.SettledAt, &s.ParticipantCount, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func scanParticipant(row rowScanner) (*model.Participant, error) {
	p := &model.Participant{}
	err := row.Scan(
		&p.SessionID, &p.UserID, &p.DisplayName, &p.AvatarURL, &p.Status,
		&p.Score, &p.Attempts, &p.AnsweredCount, &p.FinishedAt,
		&p.RatingBefore, &p.RatingAfter, &p.RatingChange, &p.Active, &p.Position,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a new waiting session together with its first participant
// in one transaction. The partial unique index on active participants
// rejects a user who already holds a live session (ErrUserBusy).
func (r *SessionRepository) Create(ctx context.Context, s *model.Session, first *model.Participant) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO sessions
		   (id, room_code, game_type, match_type, status, problem_id, question_ids,
		    time_limit_seconds, participant_count)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
		 RETURNING created_at`,
		s.ID, s.RoomCode, s.GameType, s.MatchType, model.SessionStatusWaiting,
		s.ProblemID, s.QuestionIDs, s.TimeLimitSeconds,
	).Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	s.Status = model.SessionStatusWaiting
	s.ParticipantCount = 1

	first.SessionID = s.ID
	first.Status = model.ParticipantStatusWaiting
	first.Active = true
	first.Position = 0

	_, err = tx.Exec(ctx,
		`INSERT INTO session_participants
		   (session_id, user_id, display_name, avatar_url, status, rating_before, active, position)
		 VALUES ($1, $2, $3, $4, $5, $6, TRUE, 0)`,
		s.ID, first.UserID, first.DisplayName, first.AvatarURL,
		first.Status, first.RatingBefore,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserBusy
		}
		return fmt.Errorf("insert participant: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.Participants = []model.Participant{*first}
	return nil
}

// GetByID loads a session with its participants ordered by join position.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	s, err := scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadParticipants(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// GetByRoomCode looks a session up by its shareable room code.
func (r *SessionRepository) GetByRoomCode(ctx context.Context, code string) (*model.Session, error) {
	s, err := scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE room_code = $1
		 ORDER BY created_at DESC LIMIT 1`, code))
	if err != nil {
		return nil, err
	}
	if err := r.loadParticipants(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SessionRepository) loadParticipants(ctx context.Context, s *model.Session) error {
	rows, err := r.pool.Query(ctx,
		`SELECT `+participantColumns+`
		 FROM session_participants WHERE session_id = $1 ORDER BY position ASC`, s.ID)
	if err != nil {
		return fmt.Errorf("load participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return fmt.Errorf("scan participant: %w", err)
		}
		s.Participants = append(s.Participants, *p)
	}
	return rows.Err()
}

// FindJoinableRandom returns the oldest waiting random session of the given
// game type that has a free slot and does not already contain the user.
func (r *SessionRepository) FindJoinableRandom(ctx context.Context, gameType model.GameType, exclude uuid.UUID) (*model.Session, error) {
	s, err := scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM sessions s
		 WHERE s.status = $1 AND s.game_type = $2 AND s.match_type = $3
		   AND s.participant_count < $4
		   AND NOT EXISTS (
		     SELECT 1 FROM session_participants p
		     WHERE p.session_id = s.id AND p.user_id = $5
		   )
		 ORDER BY s.created_at ASC
		 LIMIT 1`,
		model.SessionStatusWaiting, gameType, model.MatchTypeRandom,
		model.MaxDuelParticipants, exclude))
	if err != nil {
		return nil, err
	}
	if err := r.loadParticipants(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// FindActiveByUser returns the user's current waiting/ongoing session, if any.
// At most one exists thanks to the partial unique index on active slots.
func (r *SessionRepository) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*model.Session, error) {
	s, err := scanSession(r.pool.QueryRow(ctx,
		`SELECT s.id, s.room_code, s.game_type, s.match_type, s.status, s.problem_id,
		        s.question_ids, s.time_limit_seconds, s.started_at, s.ended_at,
		        s.winner_id, s.result, s.settled_at, s.participant_count, s.created_at
		 FROM sessions s
		 JOIN session_participants p ON p.session_id = s.id
		 WHERE p.user_id = $1 AND p.active
		   AND s.status IN ($2, $3)
		 LIMIT 1`,
		userID, model.SessionStatusWaiting, model.SessionStatusOngoing))
	if err != nil {
		return nil, err
	}
	if err := r.loadParticipants(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// RoomCodeInUse reports whether a code already belongs to a live room.
func (r *SessionRepository) RoomCodeInUse(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM sessions
		   WHERE room_code = $1 AND status IN ($2, $3)
		 )`,
		code, model.SessionStatusWaiting, model.SessionStatusOngoing,
	).Scan(&exists)
	return exists, err
}

// AddParticipant claims the second duel slot. The slot claim and the
// waiting → ongoing transition are one conditioned write: it succeeds only
// if the session is still waiting with a free slot, so exactly one of two
// racing joins starts the session. Returns the refreshed session.
func (r *SessionRepository) AddParticipant(ctx context.Context, sessionID uuid.UUID, p *model.Participant) (*model.Session, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		status    model.SessionStatus
		startedAt *time.Time
		count     int
	)
	err = tx.QueryRow(ctx,
		`UPDATE sessions
		 SET participant_count = participant_count + 1,
		     status = CASE WHEN participant_count + 1 >= $2 THEN 'ongoing' ELSE status END,
		     started_at = CASE WHEN participant_count + 1 >= $2 THEN NOW() ELSE started_at END
		 WHERE id = $1 AND status = 'waiting' AND participant_count < $2
		 RETURNING status, started_at, participant_count`,
		sessionID, model.MaxDuelParticipants,
	).Scan(&status, &startedAt, &count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost the race: full, started, or gone. Caller re-reads.
			return nil, ErrPreconditionFailed
		}
		return nil, fmt.Errorf("claim slot: %w", err)
	}

	p.SessionID = sessionID
	p.Status = model.ParticipantStatusWaiting
	p.Active = true
	p.Position = count - 1

	_, err = tx.Exec(ctx,
		`INSERT INTO session_participants
		   (session_id, user_id, display_name, avatar_url, status, rating_before, active, position)
		 VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7)`,
		sessionID, p.UserID, p.DisplayName, p.AvatarURL, p.Status, p.RatingBefore, p.Position,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUserBusy
		}
		return nil, fmt.Errorf("insert participant: %w", err)
	}

	// Session started: every waiting participant becomes active.
	if status == model.SessionStatusOngoing {
		_, err = tx.Exec(ctx,
			`UPDATE session_participants SET status = $2
			 WHERE session_id = $1 AND status = $3`,
			sessionID, model.ParticipantStatusActive, model.ParticipantStatusWaiting)
		if err != nil {
			return nil, fmt.Errorf("activate participants: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return r.GetByID(ctx, sessionID)
}

// TransitionToFinished performs the ongoing → finished transition. The write
// is conditioned on status = ongoing, so a duplicate trigger (late timeout
// sweep after natural completion, double finish calls) matches zero rows and
// reports ErrPreconditionFailed instead of firing twice. Participant slots
// are released in the same transaction.
func (r *SessionRepository) TransitionToFinished(ctx context.Context, sessionID uuid.UUID, result *model.SessionResult) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE sessions
		 SET status = $2, ended_at = NOW(), result = COALESCE($3, result)
		 WHERE id = $1 AND status = $4`,
		sessionID, model.SessionStatusFinished, result, model.SessionStatusOngoing)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPreconditionFailed
	}

	_, err = tx.Exec(ctx,
		`UPDATE session_participants SET active = FALSE WHERE session_id = $1`,
		sessionID)
	if err != nil {
		return fmt.Errorf("release slots: %w", err)
	}

	return tx.Commit(ctx)
}

// Cancel tears a session down from the expected status. No settlement ever
// runs for cancelled sessions.
func (r *SessionRepository) Cancel(ctx context.Context, sessionID uuid.UUID, from model.SessionStatus) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE sessions
		 SET status = $2, ended_at = NOW(), result = $3
		 WHERE id = $1 AND status = $4`,
		sessionID, model.SessionStatusCancelled, model.ResultCancelled, from)
	if err != nil {
		return fmt.Errorf("cancel session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPreconditionFailed
	}

	_, err = tx.Exec(ctx,
		`UPDATE session_participants SET active = FALSE WHERE session_id = $1`,
		sessionID)
	if err != nil {
		return fmt.Errorf("release slots: %w", err)
	}

	return tx.Commit(ctx)
}

// MarkParticipantLeft flips a live participant to left and frees their slot.
func (r *SessionRepository) MarkParticipantLeft(ctx context.Context, sessionID, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE session_participants
		 SET status = $3, active = FALSE
		 WHERE session_id = $1 AND user_id = $2 AND status IN ($4, $5)`,
		sessionID, userID, model.ParticipantStatusLeft,
		model.ParticipantStatusWaiting, model.ParticipantStatusActive)
	if err != nil {
		return fmt.Errorf("mark left: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPreconditionFailed
	}
	return nil
}

// MarkParticipantFinished flips an active participant to finished. The write
// is additionally conditioned on the session still being ongoing, so a finish
// that lost a race against the deadline sweep cannot flip a participant on a
// settled session.
func (r *SessionRepository) MarkParticipantFinished(ctx context.Context, sessionID, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE session_participants
		 SET status = $3, finished_at = NOW()
		 WHERE session_id = $1 AND user_id = $2 AND status = $4
		   AND EXISTS (SELECT 1 FROM sessions WHERE id = $1 AND status = $5)`,
		sessionID, userID, model.ParticipantStatusFinished, model.ParticipantStatusActive,
		model.SessionStatusOngoing)
	if err != nil {
		return fmt.Errorf("mark finished: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPreconditionFailed
	}
	return nil
}

// lockOngoing takes a shared lock on the session row and verifies it still
// accepts answers. The lock is held until the surrounding transaction
// commits, so the finish transition (an UPDATE on the same row) cannot land
// between this check and the answer write. A session that is no longer
// ongoing — the deadline passed while a judge call was in flight — reports
// ErrPreconditionFailed instead.
func (r *SessionRepository) lockOngoing(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID) error {
	var status model.SessionStatus
	err := tx.QueryRow(ctx,
		`SELECT status FROM sessions WHERE id = $1 FOR SHARE`, sessionID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock session: %w", err)
	}
	if status != model.SessionStatusOngoing {
		return ErrPreconditionFailed
	}
	return nil
}

// RecordCodingAttempt inserts a judged submission and bumps the attempt
// counter, conditioned on the session still being ongoing. For accepted
// submissions the participant score is raised to the recomputed value only
// when strictly higher (monotone per problem).
func (r *SessionRepository) RecordCodingAttempt(ctx context.Context, sub *model.Submission, accepted bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.lockOngoing(ctx, tx, sub.SessionID); err != nil {
		return err
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO submissions
		   (id, session_id, user_id, verdict, passed_cases, total_cases, score)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING submitted_at`,
		sub.ID, sub.SessionID, sub.UserID, sub.Verdict,
		sub.PassedCases, sub.TotalCases, sub.Score,
	).Scan(&sub.SubmittedAt)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE session_participants SET attempts = attempts + 1
		 WHERE session_id = $1 AND user_id = $2`,
		sub.SessionID, sub.UserID)
	if err != nil {
		return fmt.Errorf("bump attempts: %w", err)
	}

	if accepted {
		_, err = tx.Exec(ctx,
			`UPDATE session_participants SET score = $3
			 WHERE session_id = $1 AND user_id = $2 AND score < $3`,
			sub.SessionID, sub.UserID, sub.Score)
		if err != nil {
			return fmt.Errorf("raise score: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// RecordQuizAnswer inserts a quiz answer and applies its score delta,
// conditioned on the session still being ongoing. The unique index on
// (session, user, question) makes double answers fail with
// ErrDuplicateAnswer. Returns the participant's updated answered count.
func (r *SessionRepository) RecordQuizAnswer(ctx context.Context, sub *model.Submission, delta float64) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.lockOngoing(ctx, tx, sub.SessionID); err != nil {
		return 0, err
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO submissions
		   (id, session_id, user_id, question_id, verdict, score)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING submitted_at`,
		sub.ID, sub.SessionID, sub.UserID, sub.QuestionID, sub.Verdict, sub.Score,
	).Scan(&sub.SubmittedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateAnswer
		}
		return 0, fmt.Errorf("insert answer: %w", err)
	}

	var answered int
	err = tx.QueryRow(ctx,
		`UPDATE session_participants
		 SET answered_count = answered_count + 1,
		     score = score + $3
		 WHERE session_id = $1 AND user_id = $2
		 RETURNING answered_count`,
		sub.SessionID, sub.UserID, delta,
	).Scan(&answered)
	if err != nil {
		return 0, fmt.Errorf("apply answer: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return answered, nil
}

// ListSubmissions returns a participant's submissions in order.
func (r *SessionRepository) ListSubmissions(ctx context.Context, sessionID, userID uuid.UUID) ([]model.Submission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, user_id, question_id, verdict, passed_cases,
		        total_cases, score, submitted_at
		 FROM submissions
		 WHERE session_id = $1 AND user_id = $2
		 ORDER BY submitted_at ASC`, sessionID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		var s model.Submission
		if err := rows.Scan(
			&s.ID, &s.SessionID, &s.UserID, &s.QuestionID, &s.Verdict,
			&s.PassedCases, &s.TotalCases, &s.Score, &s.SubmittedAt,
		); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// ListOverdueOngoing returns IDs of ongoing sessions past their deadline,
// for the background sweep.
func (r *SessionRepository) ListOverdueOngoing(ctx context.Context, limit int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM sessions
		 WHERE status = $1
		   AND started_at + make_interval(secs => time_limit_seconds) < NOW()
		 ORDER BY started_at ASC
		 LIMIT $2`,
		model.SessionStatusOngoing, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectIDs(rows)
}

// ListUnsettledFinished returns finished sessions whose settlement marker
// was never written — the crash-recovery scan.
func (r *SessionRepository) ListUnsettledFinished(ctx context.Context, olderThan time.Duration, limit int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM sessions
		 WHERE status = $1 AND settled_at IS NULL
		   AND ended_at < NOW() - make_interval(secs => $2)
		 ORDER BY ended_at ASC
		 LIMIT $3`,
		model.SessionStatusFinished, olderThan.Seconds(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectIDs(rows)
}

func collectIDs(rows pgx.Rows) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
