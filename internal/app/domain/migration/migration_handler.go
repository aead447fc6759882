package migration

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-pulse/internal/app/domain"
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

// RunLegacyAttendance handles POST /api/admin/migrations/legacy-attendance.
// Pass dryRun=true to preview counts without writing.
func (h *Handlers) RunLegacyAttendance(c *gin.Context) {
	dryRun, _ := strconv.ParseBool(c.DefaultQuery("dryRun", "false"))

	summary, err := h.service.Run(c.Request.Context(), dryRun)
	if err != nil {
		h.base.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
