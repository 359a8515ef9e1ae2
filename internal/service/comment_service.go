package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lanting-project/lanting-api/internal/dto"
	"github.com/lanting-project/lanting-api/internal/models"
	appErrors "github.com/lanting-project/lanting-api/pkg/errors"
)

type commentStore interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByArchive(ctx context.Context, archiveID int64) ([]models.Comment, error)
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	UpdateContent(ctx context.Context, id int64, content string) error
	Delete(ctx context.Context, id int64) error
}

type archiveFinder interface {
	GetByID(ctx context.Context, id int64) (*models.ArchiveDetail, error)
}

// CommentService manages archive comments and keeps the derived cache keys
// fresh after each mutation.
type CommentService struct {
	repo      commentStore
	archives  archiveFinder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCommentService builds a CommentService.
func NewCommentService(repo commentStore, archives archiveFinder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CommentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentService{repo: repo, archives: archives, cache: cache, validator: validate, logger: logger}
}

// Create posts a comment on an existing archive.
func (s *CommentService) Create(ctx context.Context, archiveID int64, req dto.CreateCommentRequest) (*models.Comment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment")
	}

	archive, err := s.archives.GetByID(ctx, archiveID)
	if err != nil {
		return nil, err
	}
	if archive == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "archive not found")
	}

	comment := &models.Comment{ArchiveID: archiveID, Nickname: req.Nickname, Content: req.Content}
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	if s.cache != nil {
		s.cache.InvalidateArchive(ctx, archiveID)
	}
	return comment, nil
}

// List returns an archive's comments.
func (s *CommentService) List(ctx context.Context, archiveID int64) ([]models.Comment, error) {
	return s.repo.ListByArchive(ctx, archiveID)
}

// Update edits a comment's content.
func (s *CommentService) Update(ctx context.Context, commentID int64, req dto.UpdateCommentRequest) (*models.Comment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment")
	}

	comment, err := s.repo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "comment not found")
	}

	if err := s.repo.UpdateContent(ctx, commentID, req.Content); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return nil, fmt.Errorf("update comment %d: %w", commentID, err)
	}
	comment.Content = req.Content

	if s.cache != nil {
		s.cache.InvalidateArchive(ctx, comment.ArchiveID)
	}
	return comment, nil
}

// Delete removes a comment.
func (s *CommentService) Delete(ctx context.Context, commentID int64) error {
	comment, err := s.repo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "comment not found")
	}

	if err := s.repo.Delete(ctx, commentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return fmt.Errorf("delete comment %d: %w", commentID, err)
	}

	if s.cache != nil {
		s.cache.InvalidateArchive(ctx, comment.ArchiveID)
	}
	return nil
}
