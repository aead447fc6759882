package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-pulse/internal/app/models"
	"github.com/FACorreiaa/loci-pulse/internal/pkg/cache"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	AppendCheckIn(ctx context.Context, userID, itemID uuid.UUID, at time.Time) error
	GetUserHistory(ctx context.Context, userID uuid.UUID) (*models.UserHistoryResponse, error)
}

type ServiceImpl struct {
	repo   Repository
	caches *cache.CacheManager
	logger *zap.Logger
}

func NewService(repo Repository, caches *cache.CacheManager, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		repo:   repo,
		caches: caches,
		logger: logger,
	}
}

func (s *ServiceImpl) AppendCheckIn(ctx context.Context, userID, itemID uuid.UUID, at time.Time) error {
	if err := s.repo.Append(ctx, userID, itemID, at); err != nil {
		return err
	}
	s.caches.History.Delete(userID.String())
	return nil
}

// GetUserHistory returns the two ID sets plus resolved item summaries.
func (s *ServiceImpl) GetUserHistory(ctx context.Context, userID uuid.UUID) (*models.UserHistoryResponse, error) {
	l := s.logger.With(zap.String("method", "GetUserHistory"))
	if userID == uuid.Nil {
		return nil, fmt.Errorf("userId is required: %w", models.ErrBadRequest)
	}

	if resp, ok := s.caches.History.Get(userID.String()); ok {
		return &resp, nil
	}

	hist, err := s.repo.GetHistory(ctx, userID)
	if err != nil {
		l.Error("Failed to get user history", zap.Error(err))
		return nil, err
	}

	allIDs := make([]uuid.UUID, 0, len(hist.VenueIDs)+len(hist.EventIDs))
	allIDs = append(allIDs, hist.VenueIDs...)
	allIDs = append(allIDs, hist.EventIDs...)

	summaries, err := s.repo.GetItemSummaries(ctx, allIDs)
	if err != nil {
		l.Error("Failed to resolve item summaries", zap.Error(err))
		return nil, err
	}

	resp := &models.UserHistoryResponse{
		UserHistory: *hist,
		Items:       summaries,
	}
	s.caches.History.Set(userID.String(), *resp)
	return resp, nil
}
