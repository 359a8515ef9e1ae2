package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lanting-project/lanting-api/internal/dto"
	"github.com/lanting-project/lanting-api/internal/models"
	appErrors "github.com/lanting-project/lanting-api/pkg/errors"
	"github.com/lanting-project/lanting-api/pkg/snapshot"
	"github.com/lanting-project/lanting-api/pkg/storage"
)

// AcquisitionOutcome tags how a slot's content was obtained.
type AcquisitionOutcome string

const (
	OutcomeClaimed     AcquisitionOutcome = "claimed"
	OutcomeFetched     AcquisitionOutcome = "fetched"
	OutcomeSynthesized AcquisitionOutcome = "synthesized"
	OutcomeUploaded    AcquisitionOutcome = "uploaded"
	OutcomeReused      AcquisitionOutcome = "reused"
	OutcomeEmpty       AcquisitionOutcome = "empty"
)

// Acquisition is the resolved content of one slot. PendingID is non-zero only
// for claimed outcomes; the claimed row is marked consumed inside the later
// database transaction, not here.
type Acquisition struct {
	Outcome     AcquisitionOutcome
	StorageURL  string
	OriginalURL *string
	FileType    *string
	PendingID   int64
}

type pendingClaimReader interface {
	FindClaimable(ctx context.Context, id, userID int64) (*models.PendingArchiveOrig, error)
}

// AcquisitionResolver turns one slot descriptor into stored content. Paths
// that produce new bytes write to the object store exactly once, as the final
// step, so a failed resolution never leaves a half-written object.
type AcquisitionResolver struct {
	store      storage.ObjectStore
	fetcher    snapshot.Fetcher
	pending    pendingClaimReader
	storageDir string
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewAcquisitionResolver constructs the resolver.
func NewAcquisitionResolver(store storage.ObjectStore, fetcher snapshot.Fetcher, pending pendingClaimReader, storageDir string, metrics *MetricsService, logger *zap.Logger) *AcquisitionResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AcquisitionResolver{
		store:      store,
		fetcher:    fetcher,
		pending:    pending,
		storageDir: storageDir,
		metrics:    metrics,
		logger:     logger,
	}
}

// Resolve applies the acquisition decision order: pending claim, URL fetch
// (degrading to a synthesized fallback), uploaded bytes, storage-path reuse,
// empty. The first matching input wins; at most one fetch and one store write
// happen per call.
func (r *AcquisitionResolver) Resolve(ctx context.Context, slot dto.ArchiveSlot, meta FallbackMeta, userID int64) (Acquisition, error) {
	acq, err := r.resolve(ctx, slot, meta, userID)
	if err == nil && r.metrics != nil {
		r.metrics.RecordAcquisition(string(acq.Outcome))
	}
	return acq, err
}

func (r *AcquisitionResolver) resolve(ctx context.Context, slot dto.ArchiveSlot, meta FallbackMeta, userID int64) (Acquisition, error) {
	if slot.PendingOrigID != 0 {
		return r.claimPending(ctx, slot.PendingOrigID, userID)
	}

	if slot.HasURL && slot.OriginalURL != "" {
		return r.fetchURL(ctx, slot.OriginalURL, meta)
	}

	if slot.File != nil {
		path, err := r.store.Put(ctx, r.storageDir, slot.File.Filename, slot.File.Data)
		if err != nil {
			return Acquisition{}, err
		}
		fileType := storage.Extension(slot.File.Filename)
		return Acquisition{Outcome: OutcomeUploaded, StorageURL: path, FileType: &fileType}, nil
	}

	if slot.StorageURL != "" {
		// update flow: keep referencing an already-stored object, no I/O
		return Acquisition{Outcome: OutcomeReused, StorageURL: slot.StorageURL}, nil
	}

	return Acquisition{Outcome: OutcomeEmpty}, nil
}

// claimPending reuses the pending row's stored object directly. A row that is
// missing, already consumed, or from a non-whitelisted sender produces the
// same not-found error.
func (r *AcquisitionResolver) claimPending(ctx context.Context, pendingID, userID int64) (Acquisition, error) {
	pending, err := r.pending.FindClaimable(ctx, pendingID, userID)
	if err != nil {
		return Acquisition{}, err
	}
	if pending == nil {
		return Acquisition{}, appErrors.Clone(appErrors.ErrNotFound, "pending orig not found")
	}
	return Acquisition{
		Outcome:    OutcomeClaimed,
		StorageURL: pending.StorageURL,
		FileType:   pending.FileType,
		PendingID:  pending.ID,
	}, nil
}

// fetchURL captures the page, degrading to a synthesized fallback document on
// any capture failure. The URL is recorded on the result either way.
func (r *AcquisitionResolver) fetchURL(ctx context.Context, url string, meta FallbackMeta) (Acquisition, error) {
	outcome := OutcomeFetched
	start := time.Now()
	data, err := r.fetcher.Fetch(ctx, url)
	if r.metrics != nil {
		r.metrics.ObserveSnapshotFetch(time.Since(start))
	}
	if err != nil {
		r.logger.Warn("snapshot capture failed, synthesizing fallback", zap.String("url", url), zap.Error(err))
		data = renderFallbackDocument(meta, url)
		outcome = OutcomeSynthesized
	}

	path, err := r.store.Put(ctx, r.storageDir, "snapshot.html", data)
	if err != nil {
		return Acquisition{}, err
	}
	fileType := "html"
	originalURL := url
	return Acquisition{
		Outcome:     outcome,
		StorageURL:  path,
		OriginalURL: &originalURL,
		FileType:    &fileType,
	}, nil
}
