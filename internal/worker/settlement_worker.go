package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/codeclash/arena-backend/internal/config"
	"github.com/codeclash/arena-backend/internal/repository"
	"github.com/codeclash/arena-backend/internal/service"
)

const (
	SettlePollTimeout = 1 * time.Second

	// Finished sessions whose marker is still unset after this long are
	// assumed to have lost their inline settlement (crash, queue loss) and
	// get picked up by the periodic scan.
	SettleReconcileAge      = 30 * time.Second
	SettleReconcileInterval = 1 * time.Minute
	SettleReconcileBatch    = 50
)

// SettlementWorker drains the settlement retry queue and reconciles finished
// sessions that never got settled. Settling is idempotent, so replaying a
// queue entry for an already-settled session is harmless.
type SettlementWorker struct {
	settlement  *service.SettlementService
	sessionRepo *repository.SessionRepository
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewSettlementWorker creates a new SettlementWorker.
func NewSettlementWorker(settlement *service.SettlementService, sessionRepo *repository.SessionRepository, rdb *redis.Client, log zerolog.Logger) *SettlementWorker {
	return &SettlementWorker{
		settlement:  settlement,
		sessionRepo: sessionRepo,
		rdb:         rdb,
		log:         log.With().Str("component", "settlement_worker").Logger(),
	}
}

// Start runs the queue drain loop plus the periodic reconcile scan until ctx
// is cancelled.
func (w *SettlementWorker) Start(ctx context.Context) {
	w.log.Info().Msg("SettlementWorker started")

	reconcile := time.NewTicker(SettleReconcileInterval)
	defer reconcile.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("SettlementWorker stopped")
			return

		case <-reconcile.C:
			w.reconcile(ctx)

		default:
			item, err := w.rdb.BLPop(ctx, SettlePollTimeout, config.WorkerKey.SettleSessionsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			sessionID, err := uuid.Parse(item[1])
			if err != nil {
				w.log.Error().Str("raw", item[1]).Msg("Invalid session ID in queue")
				continue
			}

			if err := w.settlement.Settle(ctx, sessionID); err != nil {
				w.log.Error().Err(err).
					Str("session_id", sessionID.String()).
					Msg("Settlement failed — requeueing")
				w.rdb.RPush(ctx, config.WorkerKey.SettleSessionsQueue, sessionID.String())
				// Back off a little so a broken session does not spin the
				// loop at full speed.
				time.Sleep(SettlePollTimeout)
			}
		}
	}
}

// reconcile settles finished sessions whose marker never got written.
func (w *SettlementWorker) reconcile(ctx context.Context) {
	ids, err := w.sessionRepo.ListUnsettledFinished(ctx, SettleReconcileAge, SettleReconcileBatch)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Msg("Unsettled scan failed")
		}
		return
	}

	for _, id := range ids {
		if err := w.settlement.Settle(ctx, id); err != nil {
			w.log.Error().Err(err).Str("session_id", id.String()).Msg("Reconcile settlement failed")
		}
	}
	if len(ids) > 0 {
		w.log.Info().Int("count", len(ids)).Msg("Reconciled unsettled sessions")
	}
}
