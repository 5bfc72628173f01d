package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeclash/arena-backend/internal/model"
)

// ContentRepository serves problems and quiz questions. The content tables
// are small and read-mostly, so uniform-random picks use ORDER BY random().
type ContentRepository struct {
	pool *pgxpool.Pool
}

// NewContentRepository creates a new ContentRepository.
func NewContentRepository(pool *pgxpool.Pool) *ContentRepository {
	return &ContentRepository{pool: pool}
}

func scanProblem(row rowScanner) (*model.Problem, error) {
	p := &model.Problem{}
	var testCases []byte
	err := row.Scan(
		&p.ID, &p.Title, &p.Difficulty, &p.BaseScore,
		&p.TimeLimitSeconds, &p.Statement, &testCases,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(testCases) > 0 {
		if err := json.Unmarshal(testCases, &p.TestCases); err != nil {
			return nil, fmt.Errorf("decode test cases: %w", err)
		}
	}
	return p, nil
}

const problemColumns = `id, title, difficulty, base_score, time_limit_seconds, statement, test_cases`

// GetProblem retrieves a problem with its test cases.
func (r *ContentRepository) GetProblem(ctx context.Context, id uuid.UUID) (*model.Problem, error) {
	return scanProblem(r.pool.QueryRow(ctx,
		`SELECT `+problemColumns+` FROM problems WHERE id = $1`, id))
}

// GetRandomProblemByDifficulty returns a uniform-random problem from one
// difficulty bucket, or ErrNotFound if the bucket is empty.
func (r *ContentRepository) GetRandomProblemByDifficulty(ctx context.Context, d model.Difficulty) (*model.Problem, error) {
	return scanProblem(r.pool.QueryRow(ctx,
		`SELECT `+problemColumns+` FROM problems
		 WHERE difficulty = $1 ORDER BY random() LIMIT 1`, d))
}

// GetRandomProblem returns a uniform-random problem over all difficulties.
func (r *ContentRepository) GetRandomProblem(ctx context.Context) (*model.Problem, error) {
	return scanProblem(r.pool.QueryRow(ctx,
		`SELECT `+problemColumns+` FROM problems ORDER BY random() LIMIT 1`))
}

// CreateProblem inserts a problem (seeding/admin use).
func (r *ContentRepository) CreateProblem(ctx context.Context, p *model.Problem) error {
	testCases, err := json.Marshal(p.TestCases)
	if err != nil {
		return fmt.Errorf("encode test cases: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO problems (id, title, difficulty, base_score, time_limit_seconds, statement, test_cases)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Title, p.Difficulty, p.BaseScore, p.TimeLimitSeconds, p.Statement, testCases)
	if err != nil {
		return fmt.Errorf("insert problem: %w", err)
	}
	return nil
}

func scanQuestion(row rowScanner) (*model.Question, error) {
	q := &model.Question{}
	var options []byte
	err := row.Scan(&q.ID, &q.Prompt, &options, &q.CorrectIndex, &q.Difficulty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(options, &q.Options); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	return q, nil
}

const questionColumns = `id, prompt, options, correct_index, difficulty`

// GetQuestion retrieves one quiz question.
func (r *ContentRepository) GetQuestion(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	return scanQuestion(r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
}

// ListRandomQuestions returns up to n uniform-random questions.
func (r *ContentRepository) ListRandomQuestions(ctx context.Context, n int) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions ORDER BY random() LIMIT $1`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// CreateQuestion inserts a quiz question (seeding/admin use).
func (r *ContentRepository) CreateQuestion(ctx context.Context, q *model.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO questions (id, prompt, options, correct_index, difficulty)
		 VALUES ($1, $2, $3, $4, $5)`,
		q.ID, q.Prompt, options, q.CorrectIndex, q.Difficulty)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}
