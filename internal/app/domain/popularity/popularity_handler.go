package popularity

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-pulse/internal/app/domain"
	"github.com/FACorreiaa/loci-pulse/internal/app/models"
)

type Handlers struct {
	base       *domain.BaseHandler
	service    Service
	recomputer *Recomputer
	logger     *zap.Logger
}

func NewHandlers(base *domain.BaseHandler, service Service, recomputer *Recomputer, logger *zap.Logger) *Handlers {
	return &Handlers{
		base:       base,
		service:    service,
		recomputer: recomputer,
		logger:     logger,
	}
}

// GetTrending handles GET /api/items/trending.
func (h *Handlers) GetTrending(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	q := models.TrendingQuery{
		City:      c.Query("city"),
		Limit:     limit,
		Timeframe: models.Timeframe(c.Query("timeframe")),
	}

	items, err := h.service.GetTrending(c.Request.Context(), q)
	if err != nil {
		h.base.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// TriggerRecompute handles POST /api/admin/popularity/recompute. The normal
// driver is the scheduler; the endpoint exists for operations.
func (h *Handlers) TriggerRecompute(c *gin.Context) {
	result, err := h.recomputer.RunOnce(c.Request.Context())
	if err != nil {
		h.base.RespondError(c, err)
		return
	}

	h.logger.Info("Manual recompute pass triggered",
		zap.Int("items", result.Items), zap.Int("failed", result.Failed))
	c.JSON(http.StatusOK, gin.H{
		"items":            result.Items,
		"failed":           result.Failed,
		"duration_seconds": result.Duration.Seconds(),
	})
}
