package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/codeclash/arena-backend/internal/model"
	"github.com/codeclash/arena-backend/internal/repository"
)

// QuizQuestionCount is how many questions a quiz duel draws.
const QuizQuestionCount = 10

// QuizTimeLimitSeconds is the fixed window for a quiz duel.
const QuizTimeLimitSeconds = 300

// ErrNoContent means the content tables cannot satisfy a selection.
var ErrNoContent = errors.New("no content available")

// ContentService is the content provider: it selects problems and question
// lists for new sessions. Selection is uniform-random over a random
// difficulty bucket, falling back to uniform over everything when the
// bucket is empty.
type ContentService struct {
	contentRepo *repository.ContentRepository
}

// NewContentService creates a new ContentService.
func NewContentService(contentRepo *repository.ContentRepository) *ContentService {
	return &ContentService{contentRepo: contentRepo}
}

// PickProblem selects the problem for a new coding session.
func (s *ContentService) PickProblem(ctx context.Context) (*model.Problem, error) {
	d := model.Difficulties[rand.Intn(len(model.Difficulties))]

	problem, err := s.contentRepo.GetRandomProblemByDifficulty(ctx, d)
	if err == nil {
		return problem, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("pick problem: %w", err)
	}

	// Chosen bucket is empty — fall back to uniform over all problems.
	problem, err = s.contentRepo.GetRandomProblem(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoContent
		}
		return nil, fmt.Errorf("pick fallback problem: %w", err)
	}
	return problem, nil
}

// PickQuestions selects the ordered question list for a new quiz session.
func (s *ContentService) PickQuestions(ctx context.Context) ([]uuid.UUID, error) {
	questions, err := s.contentRepo.ListRandomQuestions(ctx, QuizQuestionCount)
	if err != nil {
		return nil, fmt.Errorf("pick questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoContent
	}

	ids := make([]uuid.UUID, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	return ids, nil
}

// GetProblem exposes a problem to session snapshots.
func (s *ContentService) GetProblem(ctx context.Context, id uuid.UUID) (*model.Problem, error) {
	return s.contentRepo.GetProblem(ctx, id)
}

// GetQuestion exposes a single question to answer handling.
func (s *ContentService) GetQuestion(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	return s.contentRepo.GetQuestion(ctx, id)
}
