package checkins

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
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

// CheckIn handles POST /api/checkins.
func (h *Handlers) CheckIn(c *gin.Context) {
	var req models.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.base.RespondError(c, fmt.Errorf("invalid check-in payload: %w", models.ErrBadRequest))
		return
	}

	recordID, err := h.service.CheckIn(c.Request.Context(), req.UserID, req.ItemID, req.At)
	if err != nil {
		h.base.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.CheckInResponse{RecordID: recordID})
}

// CheckOut handles POST /api/checkouts.
func (h *Handlers) CheckOut(c *gin.Context) {
	var req models.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.base.RespondError(c, fmt.Errorf("invalid check-out payload: %w", models.ErrBadRequest))
		return
	}

	if err := h.service.CheckOut(c.Request.Context(), req.UserID, req.ItemID, req.At); err != nil {
		h.base.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "checked_out"})
}

// GetLedger handles GET /api/checkins with optional item/user/window filters.
func (h *Handlers) GetLedger(c *gin.Context) {
	var filter models.LedgerFilter

	if raw := c.Query("itemId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.base.RespondError(c, fmt.Errorf("malformed itemId %q: %w", raw, models.ErrBadRequest))
			return
		}
		filter.ItemID = id
	}
	if raw := c.Query("userId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.base.RespondError(c, fmt.Errorf("malformed userId %q: %w", raw, models.ErrBadRequest))
			return
		}
		filter.UserID = id
	}
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.base.RespondError(c, fmt.Errorf("malformed since %q: %w", raw, models.ErrBadRequest))
			return
		}
		filter.Since = since
	}
	filter.ActiveOnly = c.Query("active") == "true"
	filter.Limit = 100
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			filter.Limit = n
		}
	}

	records, err := h.service.GetLedger(c.Request.Context(), filter)
	if err != nil {
		h.base.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}
