package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lanting-project/lanting-api/internal/models"
	appErrors "github.com/lanting-project/lanting-api/pkg/errors"
)

type pendingLister interface {
	ListForUser(ctx context.Context, userID int64, status string) ([]models.PendingArchiveOrig, error)
}

// PendingService exposes the claimable pending origs of the acting user. Rows
// themselves are produced by the mail-ingestion pipeline; this side only
// reads.
type PendingService struct {
	repo   pendingLister
	logger *zap.Logger
}

// NewPendingService builds a PendingService.
func NewPendingService(repo pendingLister, logger *zap.Logger) *PendingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PendingService{repo: repo, logger: logger}
}

// List returns pending origs whose sender is whitelisted for the user.
func (s *PendingService) List(ctx context.Context, userID int64, status string) ([]models.PendingArchiveOrig, error) {
	switch status {
	case "", models.PendingStatusPending, models.PendingStatusArchived:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", status))
	}
	return s.repo.ListForUser(ctx, userID, status)
}
