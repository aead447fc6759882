package checkins

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-pulse/internal/app/models"
	"github.com/FACorreiaa/loci-pulse/internal/app/observability/metrics"
)

var _ Service = (*ServiceImpl)(nil)

// Aggregator receives per-record popularity deltas. Implemented by the
// popularity service; failures here are non-fatal because the scheduled
// recompute pass re-derives the aggregate from the ledger.
type Aggregator interface {
	ApplyCheckIn(ctx context.Context, itemID uuid.UUID) error
	ApplyCheckOut(ctx context.Context, itemID uuid.UUID) error
}

// HistoryAppender records a user's first visit to an item.
type HistoryAppender interface {
	AppendCheckIn(ctx context.Context, userID, itemID uuid.UUID, at time.Time) error
}

type Service interface {
	CheckIn(ctx context.Context, userID, itemID uuid.UUID, at *time.Time) (uuid.UUID, error)
	CheckOut(ctx context.Context, userID, itemID uuid.UUID, at *time.Time) error
	GetLedger(ctx context.Context, filter models.LedgerFilter) ([]models.CheckInRecord, error)
}

type ServiceImpl struct {
	repo       Repository
	aggregator Aggregator
	history    HistoryAppender
	logger     *zap.Logger
}

func NewService(repo Repository, aggregator Aggregator, history HistoryAppender, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		repo:       repo,
		aggregator: aggregator,
		history:    history,
		logger:     logger,
	}
}

// CheckIn appends to the ledger, then fires the incremental aggregate delta
// and the history append. The ledger write is the only operation that can
// fail the request; the derived updates self-correct on the next recompute.
func (s *ServiceImpl) CheckIn(ctx context.Context, userID, itemID uuid.UUID, at *time.Time) (uuid.UUID, error) {
	l := s.logger.With(zap.String("method", "CheckIn"))
	if userID == uuid.Nil || itemID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("userId and itemId are required: %w", models.ErrBadRequest)
	}

	when := time.Now().UTC()
	if at != nil {
		when = at.UTC()
	}

	recordID, err := s.repo.RecordCheckIn(ctx, userID, itemID, when)
	if err != nil {
		metrics.Get().CheckInConflictsTotal.Add(ctx, 1)
		return uuid.Nil, err
	}
	metrics.Get().CheckInsTotal.Add(ctx, 1)

	if err := s.aggregator.ApplyCheckIn(ctx, itemID); err != nil {
		l.Warn("Incremental aggregate update failed, recompute will correct",
			zap.String("item_id", itemID.String()), zap.Error(err))
	}
	if err := s.history.AppendCheckIn(ctx, userID, itemID, when); err != nil {
		l.Warn("History append failed",
			zap.String("user_id", userID.String()), zap.Error(err))
	}

	return recordID, nil
}

func (s *ServiceImpl) CheckOut(ctx context.Context, userID, itemID uuid.UUID, at *time.Time) error {
	l := s.logger.With(zap.String("method", "CheckOut"))
	if userID == uuid.Nil || itemID == uuid.Nil {
		return fmt.Errorf("userId and itemId are required: %w", models.ErrBadRequest)
	}

	when := time.Now().UTC()
	if at != nil {
		when = at.UTC()
	}

	if _, err := s.repo.RecordCheckOut(ctx, userID, itemID, when); err != nil {
		return err
	}
	metrics.Get().CheckOutsTotal.Add(ctx, 1)

	// History keeps the entry: past attendance is permanent evidence.
	if err := s.aggregator.ApplyCheckOut(ctx, itemID); err != nil {
		l.Warn("Incremental aggregate update failed, recompute will correct",
			zap.String("item_id", itemID.String()), zap.Error(err))
	}

	return nil
}

func (s *ServiceImpl) GetLedger(ctx context.Context, filter models.LedgerFilter) ([]models.CheckInRecord, error) {
	return s.repo.ListRecords(ctx, filter)
}
