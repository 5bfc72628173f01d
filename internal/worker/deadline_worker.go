package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/codeclash/arena-backend/internal/service"
)

// DeadlineSweepBatch caps how many overdue sessions one sweep ends.
const DeadlineSweepBatch = 100

// DeadlineWorker periodically ends ongoing sessions past their time limit.
// It is the backstop for the lazy per-request deadline check: a session
// nobody reads or writes still times out within one sweep interval. Ending
// a session the sweep and a request race on is safe — the finish transition
// fires at most once.
type DeadlineWorker struct {
	sessions *service.SessionService
	interval time.Duration
	log      zerolog.Logger
}

// NewDeadlineWorker creates a new DeadlineWorker.
func NewDeadlineWorker(sessions *service.SessionService, interval time.Duration, log zerolog.Logger) *DeadlineWorker {
	return &DeadlineWorker{
		sessions: sessions,
		interval: interval,
		log:      log.With().Str("component", "deadline_worker").Logger(),
	}
}

// Start runs the sweep loop until ctx is cancelled.
func (w *DeadlineWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("DeadlineWorker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("DeadlineWorker stopped")
			return
		case <-ticker.C:
			expired, err := w.sessions.ExpireOverdue(ctx, DeadlineSweepBatch)
			if err != nil {
				if ctx.Err() == nil {
					w.log.Error().Err(err).Msg("Deadline sweep failed")
				}
				continue
			}
			if expired > 0 {
				w.log.Info().Int("expired", expired).Msg("Overdue sessions ended")
			}
		}
	}
}
