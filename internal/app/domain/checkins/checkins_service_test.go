package checkins

import (
	"context"
	"errors"
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

// MockCheckInRepo is a mock implementation of Repository
type MockCheckInRepo struct {
	mock.Mock
}

func (m *MockCheckInRepo) RecordCheckIn(ctx context.Context, userID, itemID uuid.UUID, at time.Time) (uuid.UUID, error) {
	args := m.Called(ctx, userID, itemID, at)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockCheckInRepo) RecordCheckOut(ctx context.Context, userID, itemID uuid.UUID, at time.Time) (uuid.UUID, error) {
	args := m.Called(ctx, userID, itemID, at)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockCheckInRepo) InsertMigrated(ctx context.Context, userID, itemID uuid.UUID, checkedInAt time.Time, legacyRef string) (uuid.UUID, error) {
	args := m.Called(ctx, userID, itemID, checkedInAt, legacyRef)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockCheckInRepo) ExistsForPair(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, itemID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCheckInRepo) ListRecords(ctx context.Context, filter models.LedgerFilter) ([]models.CheckInRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CheckInRecord), args.Error(1)
}

// MockAggregator is a mock implementation of Aggregator
type MockAggregator struct {
	mock.Mock
}

func (m *MockAggregator) ApplyCheckIn(ctx context.Context, itemID uuid.UUID) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}

func (m *MockAggregator) ApplyCheckOut(ctx context.Context, itemID uuid.UUID) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}

// MockHistoryAppender is a mock implementation of HistoryAppender
type MockHistoryAppender struct {
	mock.Mock
}

func (m *MockHistoryAppender) AppendCheckIn(ctx context.Context, userID, itemID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, userID, itemID, at)
	return args.Error(0)
}

func TestCheckIn(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	itemID := uuid.New()
	recordID := uuid.New()

	tests := []struct {
		name          string
		userID        uuid.UUID
		itemID        uuid.UUID
		setupMocks    func(*MockCheckInRepo, *MockAggregator, *MockHistoryAppender)
		expectedError error
	}{
		{
			name:   "Success",
			userID: userID,
			itemID: itemID,
			setupMocks: func(repo *MockCheckInRepo, agg *MockAggregator, hist *MockHistoryAppender) {
				repo.On("RecordCheckIn", mock.Anything, userID, itemID, mock.Anything).Return(recordID, nil).Once()
				agg.On("ApplyCheckIn", mock.Anything, itemID).Return(nil).Once()
				hist.On("AppendCheckIn", mock.Anything, userID, itemID, mock.Anything).Return(nil).Once()
			},
		},
		{
			name:   "Conflict when already checked in",
			userID: userID,
			itemID: itemID,
			setupMocks: func(repo *MockCheckInRepo, agg *MockAggregator, hist *MockHistoryAppender) {
				repo.On("RecordCheckIn", mock.Anything, userID, itemID, mock.Anything).
					Return(uuid.Nil, models.ErrConflict).Once()
			},
			expectedError: models.ErrConflict,
		},
		{
			name:          "Missing user id",
			userID:        uuid.Nil,
			itemID:        itemID,
			setupMocks:    func(repo *MockCheckInRepo, agg *MockAggregator, hist *MockHistoryAppender) {},
			expectedError: models.ErrBadRequest,
		},
		{
			name:   "Aggregate failure does not fail the request",
			userID: userID,
			itemID: itemID,
			setupMocks: func(repo *MockCheckInRepo, agg *MockAggregator, hist *MockHistoryAppender) {
				repo.On("RecordCheckIn", mock.Anything, userID, itemID, mock.Anything).Return(recordID, nil).Once()
				agg.On("ApplyCheckIn", mock.Anything, itemID).Return(errors.New("db down")).Once()
				hist.On("AppendCheckIn", mock.Anything, userID, itemID, mock.Anything).Return(nil).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockCheckInRepo)
			agg := new(MockAggregator)
			hist := new(MockHistoryAppender)
			tt.setupMocks(repo, agg, hist)

			svc := NewService(repo, agg, hist, zap.NewNop())
			got, err := svc.CheckIn(ctx, tt.userID, tt.itemID, nil)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, recordID, got)
			}
			repo.AssertExpectations(t)
			agg.AssertExpectations(t)
			hist.AssertExpectations(t)
		})
	}
}

func TestCheckInUsesProvidedTimestamp(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	itemID := uuid.New()
	recordID := uuid.New()
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	repo := new(MockCheckInRepo)
	agg := new(MockAggregator)
	hist := new(MockHistoryAppender)
	repo.On("RecordCheckIn", mock.Anything, userID, itemID, at).Return(recordID, nil).Once()
	agg.On("ApplyCheckIn", mock.Anything, itemID).Return(nil).Once()
	hist.On("AppendCheckIn", mock.Anything, userID, itemID, at).Return(nil).Once()

	svc := NewService(repo, agg, hist, zap.NewNop())
	_, err := svc.CheckIn(ctx, userID, itemID, &at)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestCheckOut(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	itemID := uuid.New()
	recordID := uuid.New()

	tests := []struct {
		name          string
		setupMocks    func(*MockCheckInRepo, *MockAggregator)
		expectedError error
	}{
		{
			name: "Success",
			setupMocks: func(repo *MockCheckInRepo, agg *MockAggregator) {
				repo.On("RecordCheckOut", mock.Anything, userID, itemID, mock.Anything).Return(recordID, nil).Once()
				agg.On("ApplyCheckOut", mock.Anything, itemID).Return(nil).Once()
			},
		},
		{
			name: "Not found when no active record",
			setupMocks: func(repo *MockCheckInRepo, agg *MockAggregator) {
				repo.On("RecordCheckOut", mock.Anything, userID, itemID, mock.Anything).
					Return(uuid.Nil, models.ErrNotFound).Once()
			},
			expectedError: models.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockCheckInRepo)
			agg := new(MockAggregator)
			hist := new(MockHistoryAppender)
			tt.setupMocks(repo, agg)

			svc := NewService(repo, agg, hist, zap.NewNop())
			err := svc.CheckOut(ctx, userID, itemID, nil)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
			agg.AssertExpectations(t)
			// History is never touched on check-out: past attendance stays.
			hist.AssertNotCalled(t, "AppendCheckIn", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}
