package domain

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-pulse/internal/app/models"
)

// BaseHandler carries the pieces every feature handler needs.
type BaseHandler struct {
	Logger *zap.Logger
}

func NewBaseHandler(logger *zap.Logger) *BaseHandler {
	return &BaseHandler{Logger: logger}
}

// RespondError writes the structured error payload for a domain error.
// Storage error text stays in the logs, never in the response body.
func (h *BaseHandler) RespondError(c *gin.Context, err error) {
	kind := models.KindOf(err)

	status := http.StatusInternalServerError
	message := "internal error"
	switch kind {
	case models.KindNotFound:
		status = http.StatusNotFound
		message = "not found"
	case models.KindConflict:
		status = http.StatusConflict
		message = "conflict with existing state"
	case models.KindInvalidArgument:
		status = http.StatusBadRequest
		message = "invalid argument"
	case models.KindTransient:
		status = http.StatusServiceUnavailable
		message = "temporarily unavailable, retry"
	}

	if status == http.StatusInternalServerError {
		h.Logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}

	c.JSON(status, models.APIErrorResponse{Error: models.APIError{Kind: kind, Message: message}})
}
