package nearby

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-pulse/internal/app/domain"
	"github.com/FACorreiaa/loci-pulse/internal/app/models"
)

type Handlers struct {
	base    *domain.BaseHandler
	service Service
	logger  *zap.Logger
}

func NewHandlers(base *domain.BaseHandler, service Service, logger *zap.Logger) *Handlers {
	return &Handlers{
		base:    base,
		service: service,
		logger:  logger,
	}
}

// GetNearby handles GET /api/items/nearby.
func (h *Handlers) GetNearby(c *gin.Context) {
	latRaw, lonRaw := c.Query("lat"), c.Query("lon")
	if latRaw == "" || lonRaw == "" {
		h.base.RespondError(c, fmt.Errorf("lat and lon query parameters are required: %w", models.ErrBadRequest))
		return
	}

	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		h.base.RespondError(c, fmt.Errorf("malformed lat %q: %w", latRaw, models.ErrBadRequest))
		return
	}
	lon, err := strconv.ParseFloat(lonRaw, 64)
	if err != nil {
		h.base.RespondError(c, fmt.Errorf("malformed lon %q: %w", lonRaw, models.ErrBadRequest))
		return
	}

	radius := 1000.0
	if raw := c.Query("radius"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			h.base.RespondError(c, fmt.Errorf("malformed radius %q: %w", raw, models.ErrBadRequest))
			return
		}
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	results, err := h.service.Search(c.Request.Context(), lat, lon, radius, limit)
	if err != nil {
		h.base.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": results, "count": len(results)})
}
