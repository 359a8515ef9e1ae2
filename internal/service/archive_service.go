package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lanting-project/lanting-api/internal/dto"
	"github.com/lanting-project/lanting-api/internal/models"
	"github.com/lanting-project/lanting-api/internal/repository"
	appErrors "github.com/lanting-project/lanting-api/pkg/errors"
	"github.com/lanting-project/lanting-api/pkg/storage"
)

type archiveStore interface {
	Create(ctx context.Context, archive *models.Archive, inserts []repository.OrigInsert, dims repository.DimensionUpdate, consumedPendingIDs []int64) error
	Update(ctx context.Context, archive *models.Archive, mut repository.OrigMutation, dims repository.DimensionUpdate, consumedPendingIDs []int64) error
	ListOrigsByArchive(ctx context.Context, archiveID int64) ([]models.ArchiveOrig, error)
	GetByID(ctx context.Context, id int64) (*models.ArchiveDetail, error)
	List(ctx context.Context, q dto.ListArchivesQuery) ([]models.ArchiveDetail, int, error)
	Delete(ctx context.Context, id int64) error
	AdjustLikes(ctx context.Context, id int64, delta int) (int64, error)
}

type commentReader interface {
	ListByArchive(ctx context.Context, archiveID int64) ([]models.Comment, error)
}

// archiveList is the cached shape of the unfiltered listing.
type archiveList struct {
	Items []models.ArchiveDetail `json:"items"`
	Total int                    `json:"total"`
}

// ArchiveService orchestrates archive creation, reconciliation and reads.
// Acquisition (remote fetches, object-store writes) always completes before
// the database transaction opens; the transaction only applies row mutations.
type ArchiveService struct {
	repo       archiveStore
	comments   commentReader
	resolver   *AcquisitionResolver
	cache      *CacheService
	store      storage.ObjectStore
	storageDir string
	cacheTTL   time.Duration
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewArchiveService builds an ArchiveService with sane defaults.
func NewArchiveService(
	repo archiveStore,
	comments commentReader,
	resolver *AcquisitionResolver,
	cache *CacheService,
	store storage.ObjectStore,
	storageDir string,
	cacheTTL time.Duration,
	validate *validator.Validate,
	logger *zap.Logger,
) *ArchiveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArchiveService{
		repo:       repo,
		comments:   comments,
		resolver:   resolver,
		cache:      cache,
		store:      store,
		storageDir: storageDir,
		cacheTTL:   cacheTTL,
		validator:  validate,
		logger:     logger,
	}
}

func (s *ArchiveService) validateMetadata(meta dto.ArchiveMetadata) error {
	if err := s.validator.Struct(meta); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid archive metadata")
	}
	if !models.IsValidChapter(meta.Chapter) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown chapter %q", meta.Chapter))
	}
	return nil
}

func fallbackMetaFrom(meta dto.ArchiveMetadata) FallbackMeta {
	fm := FallbackMeta{
		Title:   meta.Title,
		Chapter: meta.Chapter,
		Remarks: meta.Remarks,
	}
	if meta.Authors != nil {
		fm.Authors = *meta.Authors
	}
	if meta.Tags != nil {
		fm.Tags = *meta.Tags
	}
	if meta.Publisher != nil {
		fm.Publisher = *meta.Publisher
	}
	if meta.Date != nil {
		fm.Date = *meta.Date
	}
	return fm
}

func dimensionsFrom(meta dto.ArchiveMetadata) repository.DimensionUpdate {
	return repository.DimensionUpdate{
		Authors:   meta.Authors,
		Tags:      meta.Tags,
		Publisher: meta.Publisher,
		Date:      meta.Date,
	}
}

// Create acquires content for every slot, then persists the archive, its
// origs and dimension links in one transaction.
func (s *ArchiveService) Create(ctx context.Context, req dto.CreateArchiveRequest, userID int64) (*models.ArchiveDetail, error) {
	if err := s.validateMetadata(req.ArchiveMetadata); err != nil {
		return nil, err
	}
	for i, slot := range req.Slots {
		if slot.Empty() || (slot.HasURL && slot.OriginalURL == "" && slot.File == nil && slot.StorageURL == "" && slot.PendingOrigID == 0) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("slot %d carries no content source", i))
		}
	}

	meta := fallbackMetaFrom(req.ArchiveMetadata)
	inserts := make([]repository.OrigInsert, 0, len(req.Slots))
	var consumed []int64
	for i, slot := range req.Slots {
		acq, err := s.resolver.Resolve(ctx, slot, meta, userID)
		if err != nil {
			return nil, err
		}
		inserts = append(inserts, repository.OrigInsert{
			Position:    i,
			OriginalURL: acq.OriginalURL,
			StorageURL:  acq.StorageURL,
			FileType:    acq.FileType,
			StorageType: models.StorageTypeS3,
		})
		if acq.PendingID != 0 {
			consumed = append(consumed, acq.PendingID)
		}
	}

	archive := &models.Archive{Title: req.Title, Chapter: req.Chapter, Remarks: req.Remarks}
	if err := s.repo.Create(ctx, archive, inserts, dimensionsFrom(req.ArchiveMetadata), consumed); err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}

	if s.cache != nil {
		s.cache.InvalidateArchive(ctx, archive.ID)
	}
	s.logger.Info("archive created", zap.Int64("archiveId", archive.ID), zap.Int("origs", len(inserts)))
	return s.repo.GetByID(ctx, archive.ID)
}

// Update reconciles the desired slots against the stored origs. All
// acquisition happens before the transaction; any acquisition failure aborts
// the whole update with no database writes.
func (s *ArchiveService) Update(ctx context.Context, id int64, req dto.UpdateArchiveRequest, userID int64) (*models.ArchiveDetail, error) {
	if err := s.validateMetadata(req.ArchiveMetadata); err != nil {
		return nil, err
	}

	existing, err := s.repo.ListOrigsByArchive(ctx, id)
	if err != nil {
		return nil, err
	}
	plan := buildReconcilePlan(req.Slots, existing)

	meta := fallbackMetaFrom(req.ArchiveMetadata)
	var mut repository.OrigMutation
	var consumed []int64
	for _, entry := range plan {
		switch entry.Action {
		case SlotDelete:
			mut.DeleteIDs = append(mut.DeleteIDs, entry.Existing.ID)
		case SlotCreate:
			acq, err := s.resolver.Resolve(ctx, entry.Slot, meta, userID)
			if err != nil {
				return nil, err
			}
			if acq.Outcome == OutcomeEmpty {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("slot %d carries no content source", entry.Position))
			}
			if entry.Existing != nil {
				mut.DeleteIDs = append(mut.DeleteIDs, entry.Existing.ID)
			}
			mut.Inserts = append(mut.Inserts, repository.OrigInsert{
				Position:    entry.Position,
				OriginalURL: acq.OriginalURL,
				StorageURL:  acq.StorageURL,
				FileType:    acq.FileType,
				StorageType: models.StorageTypeS3,
			})
			if acq.PendingID != 0 {
				consumed = append(consumed, acq.PendingID)
			}
		case SlotKeep:
			// untouched: no acquisition, no row mutation
		}
	}

	archive := &models.Archive{ID: id, Title: req.Title, Chapter: req.Chapter, Remarks: req.Remarks}
	if err := s.repo.Update(ctx, archive, mut, dimensionsFrom(req.ArchiveMetadata), consumed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "archive not found")
		}
		return nil, fmt.Errorf("update archive %d: %w", id, err)
	}

	if s.cache != nil {
		s.cache.InvalidateArchive(ctx, id)
	}
	s.logger.Info("archive updated",
		zap.Int64("archiveId", id),
		zap.Int("deleted", len(mut.DeleteIDs)),
		zap.Int("created", len(mut.Inserts)))
	return s.repo.GetByID(ctx, id)
}

// Get returns an archive with relations, optionally including comments,
// populating the cache on miss.
func (s *ArchiveService) Get(ctx context.Context, id int64, includeComments bool) (*models.ArchiveDetail, error) {
	key := archiveDetailKey(id)
	if includeComments {
		key = archiveWithCommentsKey(id)
	}

	if s.cache != nil {
		var cached models.ArchiveDetail
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return &cached, nil
		}
	}

	detail, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "archive not found")
	}
	if includeComments {
		comments, err := s.comments.ListByArchive(ctx, id)
		if err != nil {
			return nil, err
		}
		detail.Comments = comments
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, detail, s.cacheTTL)
	}
	return detail, nil
}

// List returns a page of archives. The unfiltered listing is served from
// cache when possible.
func (s *ArchiveService) List(ctx context.Context, q dto.ListArchivesQuery) ([]models.ArchiveDetail, int, error) {
	cacheable := q == (dto.ListArchivesQuery{})
	if cacheable && s.cache != nil {
		var cached archiveList
		if hit, _ := s.cache.Get(ctx, archiveListKey(), &cached); hit {
			return cached.Items, cached.Total, nil
		}
	}

	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	if cacheable && s.cache != nil {
		_ = s.cache.Set(ctx, archiveListKey(), archiveList{Items: items, Total: total}, s.cacheTTL)
	}
	return items, total, nil
}

// Delete removes the archive and everything it owns.
func (s *ArchiveService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "archive not found")
		}
		return fmt.Errorf("delete archive %d: %w", id, err)
	}
	if s.cache != nil {
		s.cache.InvalidateArchive(ctx, id)
	}
	s.logger.Info("archive deleted", zap.Int64("archiveId", id))
	return nil
}

// ToggleLike shifts the like counter and returns the new value.
func (s *ArchiveService) ToggleLike(ctx context.Context, id int64, liked bool) (int64, error) {
	delta := 1
	if !liked {
		delta = -1
	}
	likes, err := s.repo.AdjustLikes(ctx, id, delta)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "archive not found")
		}
		return 0, err
	}
	if s.cache != nil {
		s.cache.InvalidateArchive(ctx, id)
	}
	return likes, nil
}

// Chapters returns the closed chapter set.
func (s *ArchiveService) Chapters() []string {
	return models.Chapters()
}

// GetContent reads a stored object by its bare filename, serving repeated
// reads from cache.
func (s *ArchiveService) GetContent(ctx context.Context, filename string) ([]byte, error) {
	if filename == "" || strings.ContainsAny(filename, "/\\") || strings.Contains(filename, "..") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid content filename")
	}

	key := archiveContentKey(filename)
	if s.cache != nil {
		var cached []byte
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return cached, nil
		}
	}

	data, err := s.store.Get(ctx, s.storageDir+"/"+filename)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, data, s.cacheTTL)
	}
	return data, nil
}
