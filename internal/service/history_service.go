package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/codeclash/arena-backend/internal/model"
	"github.com/codeclash/arena-backend/internal/repository"
)

// HistoryService exposes the per-user match history written by settlement.
type HistoryService struct {
	historyRepo *repository.HistoryRepository
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(historyRepo *repository.HistoryRepository) *HistoryService {
	return &HistoryService{historyRepo: historyRepo}
}

// List returns a page of the user's match history, newest first.
func (s *HistoryService) List(ctx context.Context, userID uuid.UUID, page, perPage int) ([]model.MatchHistoryEntry, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.historyRepo.ListByUser(ctx, userID, page, perPage)
}
