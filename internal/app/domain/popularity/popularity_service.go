package popularity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-pulse/internal/app/models"
	"github.com/FACorreiaa/loci-pulse/internal/pkg/cache"
)

var _ Service = (*ServiceImpl)(nil)

// Service is the fast, approximate half of the dual update path. It applies
// bounded per-event deltas the instant a ledger mutation lands and serves
// ranked reads. Window expiry is the recomputer's job, not this one's.
type Service interface {
	ApplyCheckIn(ctx context.Context, itemID uuid.UUID) error
	ApplyCheckOut(ctx context.Context, itemID uuid.UUID) error
	GetTrending(ctx context.Context, q models.TrendingQuery) ([]models.Item, error)
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

func (s *ServiceImpl) ApplyCheckIn(ctx context.Context, itemID uuid.UUID) error {
	if err := s.repo.ApplyCheckInDelta(ctx, itemID); err != nil {
		return err
	}
	s.caches.Trending.Clear()
	return nil
}

func (s *ServiceImpl) ApplyCheckOut(ctx context.Context, itemID uuid.UUID) error {
	if err := s.repo.ApplyCheckOutDelta(ctx, itemID); err != nil {
		return err
	}
	s.caches.Trending.Clear()
	return nil
}

func (s *ServiceImpl) GetTrending(ctx context.Context, q models.TrendingQuery) ([]models.Item, error) {
	l := s.logger.With(zap.String("method", "GetTrending"))

	if q.Limit <= 0 {
		q.Limit = 20
	}
	switch q.Timeframe {
	case models.TimeframeDay, models.TimeframeWeek, models.TimeframeAll, models.TimeframeScore:
	default:
		return nil, fmt.Errorf("unknown timeframe %q: %w", q.Timeframe, models.ErrBadRequest)
	}

	key := fmt.Sprintf("%s|%d|%s", q.City, q.Limit, q.Timeframe)
	if items, ok := s.caches.Trending.Get(key); ok {
		return items, nil
	}

	items, err := s.repo.GetTrending(ctx, q)
	if err != nil {
		l.Error("Failed to get trending items", zap.Error(err))
		return nil, err
	}

	s.caches.Trending.Set(key, items)
	l.Info("Trending items retrieved", zap.Int("count", len(items)), zap.String("city", q.City))
	return items, nil
}
