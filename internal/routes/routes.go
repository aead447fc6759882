package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-pulse/internal/app/domain"
	"github.com/FACorreiaa/loci-pulse/internal/app/domain/checkins"
	"github.com/FACorreiaa/loci-pulse/internal/app/domain/history"
	"github.com/FACorreiaa/loci-pulse/internal/app/domain/migration"
	"github.com/FACorreiaa/loci-pulse/internal/app/domain/nearby"
	"github.com/FACorreiaa/loci-pulse/internal/app/domain/popularity"
	"github.com/FACorreiaa/loci-pulse/internal/pkg/cache"
	"github.com/FACorreiaa/loci-pulse/internal/pkg/config"
)

type AppHandlers struct {
	CheckIns   *checkins.Handlers
	Popularity *popularity.Handlers
	Nearby     *nearby.Handlers
	History    *history.Handlers
	Migration  *migration.Handlers
}

// Setup wires repositories, services and handlers onto the router and returns
// the recomputer so the caller can run its scheduler loop.
func Setup(r *gin.Engine, dbPool *pgxpool.Pool, cfg *config.Config, log *zap.Logger) *popularity.Recomputer {
	handlers, recomputer := setupDependencies(dbPool, cfg, log)
	setupRouter(r, handlers, dbPool)
	return recomputer
}

func setupDependencies(dbPool *pgxpool.Pool, cfg *config.Config, log *zap.Logger) (*AppHandlers, *popularity.Recomputer) {
	baseHandler := domain.NewBaseHandler(log)
	caches := cache.NewCacheManager(log)

	// Repositories
	checkInsRepo := checkins.NewRepository(dbPool, log)
	popularityRepo := popularity.NewRepository(dbPool, log)
	nearbyRepo := nearby.NewRepository(dbPool, log)
	historyRepo := history.NewRepository(dbPool, log)
	migrationRepo := migration.NewRepository(dbPool, log)

	// Services
	popularityService := popularity.NewService(popularityRepo, caches, log)
	historyService := history.NewService(historyRepo, caches, log)
	checkInsService := checkins.NewService(checkInsRepo, popularityService, historyService, log)
	nearbyService := nearby.NewService(nearbyRepo, cfg.Nearby.CandidatePoolSize, cfg.Nearby.CacheTTL, log)
	migrationService := migration.NewService(migrationRepo, checkInsRepo, historyService, 0, log)

	recomputer := popularity.NewRecomputer(popularityRepo, cfg.Recompute.Interval, cfg.Recompute.Workers, log)

	handlers := &AppHandlers{
		CheckIns:   checkins.NewHandlers(baseHandler, checkInsService, log),
		Popularity: popularity.NewHandlers(baseHandler, popularityService, recomputer, log),
		Nearby:     nearby.NewHandlers(baseHandler, nearbyService, log),
		History:    history.NewHandlers(baseHandler, historyService, log),
		Migration:  migration.NewHandlers(baseHandler, migrationService, log),
	}

	return handlers, recomputer
}

func setupRouter(r *gin.Engine, h *AppHandlers, dbPool *pgxpool.Pool) {
	r.GET("/health", func(c *gin.Context) {
		if err := dbPool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/checkins", h.CheckIns.CheckIn)
		api.GET("/checkins", h.CheckIns.GetLedger)
		api.POST("/checkouts", h.CheckIns.CheckOut)

		api.GET("/items/trending", h.Popularity.GetTrending)
		api.GET("/items/nearby", h.Nearby.GetNearby)

		api.GET("/users/:userID/history", h.History.GetUserHistory)

		admin := api.Group("/admin")
		{
			admin.POST("/migrations/legacy-attendance", h.Migration.RunLegacyAttendance)
			admin.POST("/popularity/recompute", h.Popularity.TriggerRecompute)
		}
	}
}
