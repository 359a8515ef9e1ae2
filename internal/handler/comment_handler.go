package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lanting-project/lanting-api/internal/dto"
	"github.com/lanting-project/lanting-api/internal/models"
	appErrors "github.com/lanting-project/lanting-api/pkg/errors"
	"github.com/lanting-project/lanting-api/pkg/response"
)

type commentService interface {
	Create(ctx context.Context, archiveID int64, req dto.CreateCommentRequest) (*models.Comment, error)
	List(ctx context.Context, archiveID int64) ([]models.Comment, error)
	Update(ctx context.Context, commentID int64, req dto.UpdateCommentRequest) (*models.Comment, error)
	Delete(ctx context.Context, commentID int64) error
}

// CommentHandler manages archive comment endpoints.
type CommentHandler struct {
	service commentService
}

// NewCommentHandler constructs the handler.
func NewCommentHandler(service commentService) *CommentHandler {
	return &CommentHandler{service: service}
}

// Create godoc
// @Summary Post a comment on an archive
// @Tags Comments
// @Accept json
// @Produce json
// @Param id path int true "Archive ID"
// @Success 201 {object} response.Envelope
// @Router /archives/{id}/comments [post]
func (h *CommentHandler) Create(c *gin.Context) {
	archiveID, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid comment payload"))
		return
	}

	comment, err := h.service.Create(c.Request.Context(), archiveID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}

// List godoc
// @Summary List an archive's comments
// @Tags Comments
// @Produce json
// @Param id path int true "Archive ID"
// @Success 200 {object} response.Envelope
// @Router /archives/{id}/comments [get]
func (h *CommentHandler) List(c *gin.Context) {
	archiveID, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	comments, err := h.service.List(c.Request.Context(), archiveID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, comments, nil)
}

// Update godoc
// @Summary Edit a comment
// @Tags Comments
// @Accept json
// @Produce json
// @Param commentId path int true "Comment ID"
// @Success 200 {object} response.Envelope
// @Router /archives/comments/{commentId} [put]
func (h *CommentHandler) Update(c *gin.Context) {
	commentID, err := parseIDParam(c, "commentId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid comment payload"))
		return
	}

	comment, err := h.service.Update(c.Request.Context(), commentID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, comment, nil)
}

// Delete godoc
// @Summary Delete a comment
// @Tags Comments
// @Produce json
// @Param commentId path int true "Comment ID"
// @Success 204
// @Router /archives/comments/{commentId} [delete]
func (h *CommentHandler) Delete(c *gin.Context) {
	commentID, err := parseIDParam(c, "commentId")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), commentID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
