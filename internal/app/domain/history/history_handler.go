package history

import (
	"fmt"
	"net/http"

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

// GetUserHistory handles GET /api/users/:userID/history.
func (h *Handlers) GetUserHistory(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		h.base.RespondError(c, fmt.Errorf("malformed user id: %w", models.ErrBadRequest))
		return
	}

	resp, err := h.service.GetUserHistory(c.Request.Context(), userID)
	if err != nil {
		h.base.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
