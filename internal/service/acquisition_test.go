package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lanting-project/lanting-api/internal/dto"
	"github.com/lanting-project/lanting-api/internal/models"
	appErrors "github.com/lanting-project/lanting-api/pkg/errors"
	"github.com/lanting-project/lanting-api/pkg/storage"
)

type fetcherStub struct {
	data  []byte
	err   error
	calls int
	urls  []string
}

func (f *fetcherStub) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.calls++
	f.urls = append(f.urls, url)
	return f.data, f.err
}

type pendingReaderStub struct {
	rows map[int64]*models.PendingArchiveOrig
	err  error
}

func (s pendingReaderStub) FindClaimable(ctx context.Context, id, userID int64) (*models.PendingArchiveOrig, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rows[id], nil
}

func newResolver(store storage.ObjectStore, fetcher *fetcherStub, pending pendingReaderStub) *AcquisitionResolver {
	return NewAcquisitionResolver(store, fetcher, pending, "archives/origs", nil, zap.NewNop())
}

func TestResolveUploadedFile(t *testing.T) {
	store := storage.NewMemoryStore()
	resolver := newResolver(store, &fetcherStub{}, pendingReaderStub{})

	slot := dto.ArchiveSlot{File: &dto.UploadedFile{Filename: "a.html", Data: []byte("<html>x</html>")}}
	acq, err := resolver.Resolve(context.Background(), slot, FallbackMeta{}, 1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUploaded, acq.Outcome)
	require.NotNil(t, acq.FileType)
	assert.Equal(t, "html", *acq.FileType)
	assert.Equal(t, 1, store.Writes())

	data, err := store.Get(context.Background(), acq.StorageURL)
	require.NoError(t, err)
	assert.Equal(t, []byte("<html>x</html>"), data)
}

func TestResolveFetchSuccess(t *testing.T) {
	store := storage.NewMemoryStore()
	fetcher := &fetcherStub{data: []byte("<html>live</html>")}
	resolver := newResolver(store, fetcher, pendingReaderStub{})

	slot := dto.ArchiveSlot{OriginalURL: "https://example.com/post", HasURL: true}
	acq, err := resolver.Resolve(context.Background(), slot, FallbackMeta{Title: "t"}, 1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFetched, acq.Outcome)
	assert.Equal(t, 1, fetcher.calls)
	require.NotNil(t, acq.OriginalURL)
	assert.Equal(t, "https://example.com/post", *acq.OriginalURL)
	assert.Equal(t, 1, store.Writes())
}

// fetch failure degrades to a synthesized document; the resolution still
// succeeds and still records the URL.
func TestResolveFetchFailureSynthesizesFallback(t *testing.T) {
	store := storage.NewMemoryStore()
	fetcher := &fetcherStub{err: errors.New("timeout")}
	resolver := newResolver(store, fetcher, pendingReaderStub{})

	slot := dto.ArchiveSlot{OriginalURL: "https://dead.example/x", HasURL: true}
	acq, err := resolver.Resolve(context.Background(), slot, FallbackMeta{Title: "t"}, 1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSynthesized, acq.Outcome)
	assert.Equal(t, 1, fetcher.calls, "no retry on failure")

	data, err := store.Get(context.Background(), acq.StorageURL)
	require.NoError(t, err)
	assert.Contains(t, string(data), "https://dead.example/x")
	assert.Contains(t, string(data), "自动抓取失败")
}

func TestResolveClaimsPendingWithoutWriting(t *testing.T) {
	store := storage.NewMemoryStore()
	fileType := "pdf"
	pending := pendingReaderStub{rows: map[int64]*models.PendingArchiveOrig{
		42: {ID: 42, StorageURL: "archives/origs/cafe.pdf", FileType: &fileType, Status: models.PendingStatusPending},
	}}
	resolver := newResolver(store, &fetcherStub{}, pending)

	slot := dto.ArchiveSlot{PendingOrigID: 42}
	acq, err := resolver.Resolve(context.Background(), slot, FallbackMeta{}, 1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeClaimed, acq.Outcome)
	assert.Equal(t, "archives/origs/cafe.pdf", acq.StorageURL)
	assert.Equal(t, int64(42), acq.PendingID)
	assert.Equal(t, 0, store.Writes(), "claiming reuses the stored object")
}

// unauthorized and nonexistent pending ids are indistinguishable
func TestResolvePendingNotClaimable(t *testing.T) {
	resolver := newResolver(storage.NewMemoryStore(), &fetcherStub{}, pendingReaderStub{})

	_, err := resolver.Resolve(context.Background(), dto.ArchiveSlot{PendingOrigID: 42}, FallbackMeta{}, 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestResolveStoragePathReuseIsNoOp(t *testing.T) {
	store := storage.NewMemoryStore()
	fetcher := &fetcherStub{}
	resolver := newResolver(store, fetcher, pendingReaderStub{})

	slot := dto.ArchiveSlot{StorageURL: "archives/origs/abc.html"}
	acq, err := resolver.Resolve(context.Background(), slot, FallbackMeta{}, 1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeReused, acq.Outcome)
	assert.Equal(t, "archives/origs/abc.html", acq.StorageURL)
	assert.Equal(t, 0, fetcher.calls)
	assert.Equal(t, 0, store.Writes())
}

func TestResolveEmptySlot(t *testing.T) {
	resolver := newResolver(storage.NewMemoryStore(), &fetcherStub{}, pendingReaderStub{})

	acq, err := resolver.Resolve(context.Background(), dto.ArchiveSlot{}, FallbackMeta{}, 1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeEmpty, acq.Outcome)
}

// pending claim takes precedence over every other input on the same slot
func TestResolveDecisionOrder(t *testing.T) {
	store := storage.NewMemoryStore()
	fetcher := &fetcherStub{data: []byte("<html>live</html>")}
	pending := pendingReaderStub{rows: map[int64]*models.PendingArchiveOrig{
		42: {ID: 42, StorageURL: "archives/origs/cafe.pdf", Status: models.PendingStatusPending},
	}}
	resolver := newResolver(store, fetcher, pending)

	slot := dto.ArchiveSlot{
		PendingOrigID: 42,
		OriginalURL:   "https://example.com",
		HasURL:        true,
		File:          &dto.UploadedFile{Filename: "a.html", Data: []byte("x")},
	}
	acq, err := resolver.Resolve(context.Background(), slot, FallbackMeta{}, 1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeClaimed, acq.Outcome)
	assert.Equal(t, 0, fetcher.calls)
	assert.Equal(t, 0, store.Writes())
}
