package migration

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
)

func init() {
	metrics.InitAppMetrics()
}

// MockMigrationRepo is a mock implementation of Repository
type MockMigrationRepo struct {
	mock.Mock
}

func (m *MockMigrationRepo) ListLegacyItems(ctx context.Context, afterID uuid.UUID, limit int) ([]models.LegacyItem, error) {
	args := m.Called(ctx, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LegacyItem), args.Error(1)
}

func (m *MockMigrationRepo) ResolveLegacyRef(ctx context.Context, legacyRef string) (uuid.UUID, error) {
	args := m.Called(ctx, legacyRef)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

// MockLedger is a mock implementation of Ledger
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) ExistsForPair(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, itemID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedger) InsertMigrated(ctx context.Context, userID, itemID uuid.UUID, checkedInAt time.Time, legacyRef string) (uuid.UUID, error) {
	args := m.Called(ctx, userID, itemID, checkedInAt, legacyRef)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

// MockHistoryAppender is a mock implementation of HistoryAppender
type MockHistoryAppender struct {
	mock.Mock
}

func (m *MockHistoryAppender) AppendCheckIn(ctx context.Context, userID, itemID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, userID, itemID, at)
	return args.Error(0)
}

func newLegacyItem(kind models.ItemKind, refs ...string) models.LegacyItem {
	return models.LegacyItem{
		ItemID:            uuid.New(),
		Kind:              kind,
		CreatedAt:         time.Date(2019, 6, 15, 0, 0, 0, 0, time.UTC),
		LegacyAttendeeIDs: refs,
	}
}

func TestRunBackfillsLedgerRows(t *testing.T) {
	ctx := context.Background()
	venue := newLegacyItem(models.ItemKindVenue, "legacy-1", "legacy-2")
	event := newLegacyItem(models.ItemKindEvent, "legacy-1")
	user1, user2 := uuid.New(), uuid.New()

	repo := new(MockMigrationRepo)
	repo.On("ListLegacyItems", mock.Anything, uuid.Nil, mock.Anything).
		Return([]models.LegacyItem{venue, event}, nil).Once()
	repo.On("ListLegacyItems", mock.Anything, event.ItemID, mock.Anything).
		Return([]models.LegacyItem{}, nil).Once()
	repo.On("ResolveLegacyRef", mock.Anything, "legacy-1").Return(user1, nil).Twice()
	repo.On("ResolveLegacyRef", mock.Anything, "legacy-2").Return(user2, nil).Once()

	ledger := new(MockLedger)
	ledger.On("ExistsForPair", mock.Anything, mock.Anything, mock.Anything).Return(false, nil).Times(3)
	ledger.On("InsertMigrated", mock.Anything, user1, venue.ItemID, venue.CreatedAt, "legacy-1").Return(uuid.New(), nil).Once()
	ledger.On("InsertMigrated", mock.Anything, user2, venue.ItemID, venue.CreatedAt, "legacy-2").Return(uuid.New(), nil).Once()
	ledger.On("InsertMigrated", mock.Anything, user1, event.ItemID, event.CreatedAt, "legacy-1").Return(uuid.New(), nil).Once()

	hist := new(MockHistoryAppender)
	hist.On("AppendCheckIn", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Times(3)

	svc := NewService(repo, ledger, hist, 0, zap.NewNop())
	summary, err := svc.Run(ctx, false)

	assert.NoError(t, err)
	assert.False(t, summary.DryRun)
	assert.Equal(t, 2, summary.ItemsProcessed)
	assert.Equal(t, 3, summary.PairsProcessed)
	assert.Equal(t, 3, summary.RecordsCreated)
	assert.Equal(t, 0, summary.PairsSkipped)
	assert.Equal(t, 0, summary.UnresolvedRefs)
	assert.Equal(t, map[string]int{"venue": 2, "event": 1}, summary.CreatedByKind)
	repo.AssertExpectations(t)
	ledger.AssertExpectations(t)
	hist.AssertExpectations(t)
}

func TestRunIsIdempotent(t *testing.T) {
	// Second pass over already-migrated data skips every pair.
	ctx := context.Background()
	venue := newLegacyItem(models.ItemKindVenue, "legacy-1")
	user1 := uuid.New()

	repo := new(MockMigrationRepo)
	repo.On("ListLegacyItems", mock.Anything, uuid.Nil, mock.Anything).
		Return([]models.LegacyItem{venue}, nil).Once()
	repo.On("ListLegacyItems", mock.Anything, venue.ItemID, mock.Anything).
		Return([]models.LegacyItem{}, nil).Once()
	repo.On("ResolveLegacyRef", mock.Anything, "legacy-1").Return(user1, nil).Once()

	ledger := new(MockLedger)
	ledger.On("ExistsForPair", mock.Anything, user1, venue.ItemID).Return(true, nil).Once()

	hist := new(MockHistoryAppender)

	svc := NewService(repo, ledger, hist, 0, zap.NewNop())
	summary, err := svc.Run(ctx, false)

	assert.NoError(t, err)
	assert.Equal(t, 1, summary.PairsProcessed)
	assert.Equal(t, 0, summary.RecordsCreated)
	assert.Equal(t, 1, summary.PairsSkipped)
	ledger.AssertNotCalled(t, "InsertMigrated", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	hist.AssertNotCalled(t, "AppendCheckIn", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	venue := newLegacyItem(models.ItemKindVenue, "legacy-1", "legacy-2")
	user1, user2 := uuid.New(), uuid.New()

	repo := new(MockMigrationRepo)
	repo.On("ListLegacyItems", mock.Anything, uuid.Nil, mock.Anything).
		Return([]models.LegacyItem{venue}, nil).Once()
	repo.On("ListLegacyItems", mock.Anything, venue.ItemID, mock.Anything).
		Return([]models.LegacyItem{}, nil).Once()
	repo.On("ResolveLegacyRef", mock.Anything, "legacy-1").Return(user1, nil).Once()
	repo.On("ResolveLegacyRef", mock.Anything, "legacy-2").Return(user2, nil).Once()

	ledger := new(MockLedger)
	ledger.On("ExistsForPair", mock.Anything, mock.Anything, mock.Anything).Return(false, nil).Twice()

	hist := new(MockHistoryAppender)

	svc := NewService(repo, ledger, hist, 0, zap.NewNop())
	summary, err := svc.Run(ctx, true)

	assert.NoError(t, err)
	assert.True(t, summary.DryRun)
	// Counts match what a real run would create.
	assert.Equal(t, 2, summary.RecordsCreated)
	assert.Equal(t, map[string]int{"venue": 2}, summary.CreatedByKind)
	ledger.AssertNotCalled(t, "InsertMigrated", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	hist.AssertNotCalled(t, "AppendCheckIn", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunSkipsUnresolvedRefs(t *testing.T) {
	ctx := context.Background()
	venue := newLegacyItem(models.ItemKindVenue, "ghost", "legacy-1")
	user1 := uuid.New()

	repo := new(MockMigrationRepo)
	repo.On("ListLegacyItems", mock.Anything, uuid.Nil, mock.Anything).
		Return([]models.LegacyItem{venue}, nil).Once()
	repo.On("ListLegacyItems", mock.Anything, venue.ItemID, mock.Anything).
		Return([]models.LegacyItem{}, nil).Once()
	repo.On("ResolveLegacyRef", mock.Anything, "ghost").
		Return(uuid.Nil, models.ErrUnresolvedRef).Once()
	repo.On("ResolveLegacyRef", mock.Anything, "legacy-1").Return(user1, nil).Once()

	ledger := new(MockLedger)
	ledger.On("ExistsForPair", mock.Anything, user1, venue.ItemID).Return(false, nil).Once()
	ledger.On("InsertMigrated", mock.Anything, user1, venue.ItemID, venue.CreatedAt, "legacy-1").Return(uuid.New(), nil).Once()

	hist := new(MockHistoryAppender)
	hist.On("AppendCheckIn", mock.Anything, user1, venue.ItemID, venue.CreatedAt).Return(nil).Once()

	svc := NewService(repo, ledger, hist, 0, zap.NewNop())
	summary, err := svc.Run(ctx, false)

	assert.NoError(t, err)
	assert.Equal(t, 2, summary.PairsProcessed)
	assert.Equal(t, 1, summary.RecordsCreated)
	assert.Equal(t, 1, summary.UnresolvedRefs)
	ledger.AssertExpectations(t)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := new(MockMigrationRepo)
	ledger := new(MockLedger)
	hist := new(MockHistoryAppender)

	svc := NewService(repo, ledger, hist, 0, zap.NewNop())
	_, err := svc.Run(ctx, false)

	assert.ErrorIs(t, err, context.Canceled)
	repo.AssertNotCalled(t, "ListLegacyItems", mock.Anything, mock.Anything, mock.Anything)
}
