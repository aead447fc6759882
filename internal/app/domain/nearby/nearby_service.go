package nearby

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-pulse/internal/app/models"
	"github.com/FACorreiaa/loci-pulse/internal/app/observability/metrics"
)

const (
	earthRadiusMeters = 6371000.0
	metersPerMile     = 0.000621371
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Search(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]models.NearbyItem, error)
}

// ServiceImpl filters a bounded candidate pool in memory rather than relying
// on a geospatial index. That caps the search at poolSize candidates, which
// is an accepted scaling limit for the current item counts.
type ServiceImpl struct {
	repo     Repository
	poolSize int
	pool     *gocache.Cache
	logger   *zap.Logger
}

func NewService(repo Repository, poolSize int, poolTTL time.Duration, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		repo:     repo,
		poolSize: poolSize,
		pool:     gocache.New(poolTTL, 2*poolTTL),
		logger:   logger,
	}
}

// Search returns items within radiusMeters of the origin, nearest first,
// popularity score breaking distance ties.
func (s *ServiceImpl) Search(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]models.NearbyItem, error) {
	l := s.logger.With(zap.String("method", "Search"))

	if lat == 0 || lon == 0 {
		return nil, fmt.Errorf("both latitude and longitude are required: %w", models.ErrBadRequest)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("coordinates out of range: lat=%f lon=%f: %w", lat, lon, models.ErrBadRequest)
	}
	if radiusMeters <= 0 {
		return nil, fmt.Errorf("radius must be positive: %w", models.ErrBadRequest)
	}
	if limit <= 0 {
		limit = 20
	}

	candidates, err := s.candidates(ctx)
	if err != nil {
		l.Error("Failed to load candidate pool", zap.Error(err))
		return nil, err
	}

	var results []models.NearbyItem
	for _, item := range candidates {
		distance := Haversine(lat, lon, item.Latitude, item.Longitude)
		if distance > radiusMeters {
			continue
		}
		results = append(results, models.NearbyItem{
			Item:           item,
			DistanceMeters: distance,
			DistanceMiles:  distance * metersPerMile,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].DistanceMeters != results[j].DistanceMeters {
			return results[i].DistanceMeters < results[j].DistanceMeters
		}
		return results[i].Popularity.Score > results[j].Popularity.Score
	})

	if len(results) > limit {
		results = results[:limit]
	}

	metrics.Get().NearbySearchesTotal.Add(ctx, 1)
	l.Info("Nearby search completed",
		zap.Float64("radius_m", radiusMeters),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)))
	return results, nil
}

const candidatePoolKey = "candidate_pool"

func (s *ServiceImpl) candidates(ctx context.Context) ([]models.Item, error) {
	if cached, ok := s.pool.Get(candidatePoolKey); ok {
		return cached.([]models.Item), nil
	}

	items, err := s.repo.ListLocatedItems(ctx, s.poolSize)
	if err != nil {
		return nil, err
	}
	s.pool.Set(candidatePoolKey, items, gocache.DefaultExpiration)
	return items, nil
}

// Haversine returns the great-circle distance in meters between two
// coordinate pairs.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180.0
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}
