package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lanting-project/lanting-api/internal/models"
	appErrors "github.com/lanting-project/lanting-api/pkg/errors"
	"github.com/lanting-project/lanting-api/pkg/response"
)

type pendingService interface {
	List(ctx context.Context, userID int64, status string) ([]models.PendingArchiveOrig, error)
}

// PendingHandler exposes the acting user's claimable pending origs.
type PendingHandler struct {
	service pendingService
}

// NewPendingHandler constructs the handler.
func NewPendingHandler(service pendingService) *PendingHandler {
	return &PendingHandler{service: service}
}

// List godoc
// @Summary List pending origs claimable by the current user
// @Tags Tribute
// @Produce json
// @Param status query string false "Status filter: pending or archived"
// @Success 200 {object} response.Envelope
// @Router /tribute/pending-origs [get]
func (h *PendingHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	items, err := h.service.List(c.Request.Context(), claims.UserID, c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
