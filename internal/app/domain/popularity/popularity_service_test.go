package popularity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-pulse/internal/app/models"
	"github.com/FACorreiaa/loci-pulse/internal/app/observability/metrics"
	"github.com/FACorreiaa/loci-pulse/internal/pkg/cache"
)

func init() {
	metrics.InitAppMetrics()
}

// MockPopularityRepo is a mock implementation of Repository
type MockPopularityRepo struct {
	mock.Mock
}

func (m *MockPopularityRepo) ApplyCheckInDelta(ctx context.Context, itemID uuid.UUID) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}

func (m *MockPopularityRepo) ApplyCheckOutDelta(ctx context.Context, itemID uuid.UUID) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}

func (m *MockPopularityRepo) OverwriteAggregate(ctx context.Context, itemID uuid.UUID, agg models.PopularityAggregate) error {
	args := m.Called(ctx, itemID, agg)
	return args.Error(0)
}

func (m *MockPopularityRepo) ListItemsForRecompute(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockPopularityRepo) CountWindows(ctx context.Context, itemID uuid.UUID, now time.Time) (models.WindowCounts, error) {
	args := m.Called(ctx, itemID, now)
	return args.Get(0).(models.WindowCounts), args.Error(1)
}

func (m *MockPopularityRepo) GetTrending(ctx context.Context, q models.TrendingQuery) ([]models.Item, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Item), args.Error(1)
}

func TestCompositeScore(t *testing.T) {
	assert.Equal(t, 15.0, models.CompositeScore(2, 2, 2))
	assert.Equal(t, 0.0, models.CompositeScore(0, 0, 0))
	// Single fresh check-in counts in every window.
	assert.Equal(t, 7.5, models.CompositeScore(1, 1, 1))
	// Check-in older than a day but inside a week.
	assert.Equal(t, 2.5, models.CompositeScore(0, 1, 1))
}

func TestGetTrendingValidatesTimeframe(t *testing.T) {
	repo := new(MockPopularityRepo)
	svc := NewService(repo, cache.NewCacheManager(nil), zap.NewNop())

	_, err := svc.GetTrending(context.Background(), models.TrendingQuery{Timeframe: "month"})
	assert.ErrorIs(t, err, models.ErrBadRequest)
	repo.AssertNotCalled(t, "GetTrending", mock.Anything, mock.Anything)
}

func TestGetTrendingCachesResults(t *testing.T) {
	ctx := context.Background()
	repo := new(MockPopularityRepo)
	items := []models.Item{{ID: uuid.New(), Kind: models.ItemKindVenue, Name: "Cervejaria Ramiro", City: "Lisbon"}}
	repo.On("GetTrending", mock.Anything, mock.Anything).Return(items, nil).Once()

	svc := NewService(repo, cache.NewCacheManager(nil), zap.NewNop())

	q := models.TrendingQuery{City: "Lisbon", Limit: 10, Timeframe: models.TimeframeWeek}
	first, err := svc.GetTrending(ctx, q)
	assert.NoError(t, err)
	second, err := svc.GetTrending(ctx, q)
	assert.NoError(t, err)
	assert.Equal(t, first, second)

	// One repo hit for two reads.
	repo.AssertExpectations(t)
}

func TestApplyCheckInInvalidatesTrendingCache(t *testing.T) {
	ctx := context.Background()
	itemID := uuid.New()
	repo := new(MockPopularityRepo)
	repo.On("GetTrending", mock.Anything, mock.Anything).
		Return([]models.Item{}, nil).Twice()
	repo.On("ApplyCheckInDelta", mock.Anything, itemID).Return(nil).Once()

	svc := NewService(repo, cache.NewCacheManager(nil), zap.NewNop())

	q := models.TrendingQuery{Limit: 10}
	_, err := svc.GetTrending(ctx, q)
	assert.NoError(t, err)

	assert.NoError(t, svc.ApplyCheckIn(ctx, itemID))

	_, err = svc.GetTrending(ctx, q)
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}
