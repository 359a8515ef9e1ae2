package snapshot

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lanting-project/lanting-api/pkg/config"
)

// Fetcher captures a remote page as a single self-contained HTML document by
// shelling out to the single-file CLI.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// CLIFetcher runs the configured capture tool as a subprocess.
type CLIFetcher struct {
	cfg    config.SnapshotConfig
	logger *zap.Logger
	tmpDir string
}

// NewCLIFetcher creates a fetcher writing temp captures under the OS temp dir.
func NewCLIFetcher(cfg config.SnapshotConfig, logger *zap.Logger) *CLIFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CLIFetcher{cfg: cfg, logger: logger, tmpDir: os.TempDir()}
}

// Fetch captures url and returns the resulting HTML. Timeouts, non-zero exits
// and empty output all surface as errors so callers can fall back.
func (f *CLIFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	outPath := filepath.Join(f.tmpDir, fmt.Sprintf("snapshot-%s.html", uuid.NewString()))
	defer os.Remove(outPath) //nolint:errcheck

	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	args := buildArgs(f.cfg, url, outPath)
	cmd := exec.CommandContext(ctx, f.cfg.Tool, args...) //nolint:gosec

	f.logger.Info("capturing snapshot", zap.String("url", url))
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("snapshot of %s timed out after %s", url, f.cfg.Timeout)
		}
		f.logger.Warn("snapshot tool failed",
			zap.String("url", url),
			zap.String("output", strings.TrimSpace(string(out))),
			zap.Error(err))
		return nil, fmt.Errorf("snapshot tool: %w", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read snapshot output: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("snapshot of %s produced no content", url)
	}
	return data, nil
}

// buildArgs assembles the single-file CLI invocation.
func buildArgs(cfg config.SnapshotConfig, url, outPath string) []string {
	args := []string{"single-file", url, outPath,
		"--browser-wait-until=networkidle0",
		"--dump-content=false",
	}
	if cfg.BrowserPath != "" {
		args = append(args, "--browser-executable-path="+cfg.BrowserPath)
	}
	for _, a := range cfg.BrowserArgs {
		args = append(args, "--browser-arg="+a)
	}
	if cfg.UserAgent != "" {
		args = append(args, "--user-agent="+cfg.UserAgent)
	}
	return args
}
