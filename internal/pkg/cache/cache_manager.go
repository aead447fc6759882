package cache

import (
	"time"

	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-pulse/internal/app/models"
)

// CacheManager holds all application caches
type CacheManager struct {
	// Ranked trending lists keyed by city/limit/timeframe. Short TTL: the
	// incremental path clears this on every score delta anyway.
	Trending *UnifiedCache[[]models.Item]

	// Resolved user history responses
	History *UnifiedCache[models.UserHistoryResponse]
}

// NewCacheManager creates a new cache manager with default TTLs
func NewCacheManager(logger *zap.Logger) *CacheManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheManager{
		Trending: NewUnifiedCache[[]models.Item](30*time.Second, "trending", logger),
		History:  NewUnifiedCache[models.UserHistoryResponse](2*time.Minute, "history", logger),
	}
}

// GetAllMetrics returns metrics for all caches
func (cm *CacheManager) GetAllMetrics() map[string]CacheMetrics {
	return map[string]CacheMetrics{
		"trending": cm.Trending.GetMetrics(),
		"history":  cm.History.GetMetrics(),
	}
}

// ClearAll clears all caches
func (cm *CacheManager) ClearAll() {
	cm.Trending.Clear()
	cm.History.Clear()
}
