package storage

import (
	"context"
	"crypto/md5" //nolint:gosec // content addressing, not security
	"encoding/hex"
	"fmt"
	"path"
	"strings"
)

// ObjectStore is a content-addressed binary store. Put derives the storage key
// from a hash of the payload, so identical bytes always land on the same path
// and re-uploading is a no-op.
type ObjectStore interface {
	// Put stores data under {dir}/{md5(data)}.{ext(filename)} and returns the
	// resulting path. Storing bytes that already exist returns the existing
	// path without a second write.
	Put(ctx context.Context, dir, filename string, data []byte) (string, error)
	// Get reads an object back by the path Put returned. A missing object is
	// reported as errors.ErrFileNotFound, never as empty content.
	Get(ctx context.Context, objectPath string) ([]byte, error)
}

// ObjectKey computes the content-addressed key for a payload.
func ObjectKey(dir, filename string, data []byte) string {
	sum := md5.Sum(data) //nolint:gosec
	return fmt.Sprintf("%s/%s.%s", strings.TrimRight(dir, "/"), hex.EncodeToString(sum[:]), Extension(filename))
}

// Extension returns the lower-cased extension of filename without the dot,
// falling back to "bin" when there is none.
func Extension(filename string) string {
	ext := strings.TrimPrefix(path.Ext(filename), ".")
	if ext == "" {
		return "bin"
	}
	return strings.ToLower(ext)
}
