package nearby

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

// MockNearbyRepo is a mock implementation of Repository
type MockNearbyRepo struct {
	mock.Mock
}

func (m *MockNearbyRepo) ListLocatedItems(ctx context.Context, limit int) ([]models.Item, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Item), args.Error(1)
}

// Lisbon city center
const (
	originLat = 38.7223
	originLon = -9.1393
)

func TestHaversine(t *testing.T) {
	// One degree of latitude is about 111.2 km.
	d := Haversine(0, 0, 1, 0)
	assert.InDelta(t, 111195, d, 10)

	// Same point is zero.
	assert.Zero(t, Haversine(originLat, originLon, originLat, originLon))
}

func TestSearchFiltersByRadius(t *testing.T) {
	ctx := context.Background()

	near := models.Item{
		ID: uuid.New(), Kind: models.ItemKindVenue, Name: "Time Out Market",
		Latitude: originLat + 0.005, Longitude: originLon,
	}
	// About 1.7km north: outside a 1km radius no matter how popular.
	farAndPopular := models.Item{
		ID: uuid.New(), Kind: models.ItemKindVenue, Name: "Parque Eduardo VII",
		Latitude: originLat + 0.0153, Longitude: originLon,
		Popularity: models.PopularityAggregate{Score: 999},
	}

	repo := new(MockNearbyRepo)
	repo.On("ListLocatedItems", mock.Anything, 100).
		Return([]models.Item{near, farAndPopular}, nil).Once()

	svc := NewService(repo, 100, time.Minute, zap.NewNop())
	results, err := svc.Search(ctx, originLat, originLon, 1000, 20)

	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, near.ID, results[0].ID)
	assert.Less(t, results[0].DistanceMeters, 1000.0)
	assert.InDelta(t, results[0].DistanceMeters*0.000621371, results[0].DistanceMiles, 1e-9)
}

func TestSearchOrdersByDistanceThenScore(t *testing.T) {
	ctx := context.Background()

	closest := models.Item{
		ID: uuid.New(), Name: "A Brasileira",
		Latitude: originLat + 0.001, Longitude: originLon,
	}
	tiedLow := models.Item{
		ID: uuid.New(), Name: "Livraria Bertrand",
		Latitude: originLat + 0.004, Longitude: originLon,
		Popularity: models.PopularityAggregate{Score: 5},
	}
	tiedHigh := models.Item{
		ID: uuid.New(), Name: "Carmo Convent",
		Latitude: originLat + 0.004, Longitude: originLon,
		Popularity: models.PopularityAggregate{Score: 50},
	}

	repo := new(MockNearbyRepo)
	repo.On("ListLocatedItems", mock.Anything, mock.Anything).
		Return([]models.Item{tiedLow, closest, tiedHigh}, nil).Once()

	svc := NewService(repo, 100, time.Minute, zap.NewNop())
	results, err := svc.Search(ctx, originLat, originLon, 2000, 20)

	assert.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, closest.ID, results[0].ID)
	assert.Equal(t, tiedHigh.ID, results[1].ID)
	assert.Equal(t, tiedLow.ID, results[2].ID)
}

func TestSearchValidatesInput(t *testing.T) {
	repo := new(MockNearbyRepo)
	svc := NewService(repo, 100, time.Minute, zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name             string
		lat, lon, radius float64
	}{
		{"missing coordinates", 0, 0, 1000},
		{"latitude out of range", 91, originLon, 1000},
		{"longitude out of range", originLat, 181, 1000},
		{"non-positive radius", originLat, originLon, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Search(ctx, tt.lat, tt.lon, tt.radius, 20)
			assert.ErrorIs(t, err, models.ErrBadRequest)
		})
	}
	repo.AssertNotCalled(t, "ListLocatedItems", mock.Anything, mock.Anything)
}

func TestSearchCachesCandidatePool(t *testing.T) {
	ctx := context.Background()
	repo := new(MockNearbyRepo)
	repo.On("ListLocatedItems", mock.Anything, mock.Anything).
		Return([]models.Item{}, nil).Once()

	svc := NewService(repo, 100, time.Minute, zap.NewNop())

	_, err := svc.Search(ctx, originLat, originLon, 1000, 20)
	assert.NoError(t, err)
	_, err = svc.Search(ctx, originLat, originLon, 1000, 20)
	assert.NoError(t, err)

	// Second search served from the cached pool.
	repo.AssertExpectations(t)
}
