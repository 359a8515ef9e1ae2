package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lanting-project/lanting-api/pkg/config"
)

func TestBuildArgs(t *testing.T) {
	cfg := config.SnapshotConfig{
		Tool:        "npx",
		BrowserPath: "/usr/bin/chromium",
		BrowserArgs: []string{"--no-sandbox"},
		UserAgent:   "lanting-bot",
		Timeout:     120 * time.Second,
	}

	args := buildArgs(cfg, "https://example.com/post", "/tmp/out.html")

	assert.Equal(t, []string{
		"single-file",
		"https://example.com/post",
		"/tmp/out.html",
		"--browser-wait-until=networkidle0",
		"--dump-content=false",
		"--browser-executable-path=/usr/bin/chromium",
		"--browser-arg=--no-sandbox",
		"--user-agent=lanting-bot",
	}, args)
}

func TestBuildArgsMinimal(t *testing.T) {
	args := buildArgs(config.SnapshotConfig{Tool: "npx"}, "https://example.com", "/tmp/o.html")

	assert.Equal(t, []string{
		"single-file",
		"https://example.com",
		"/tmp/o.html",
		"--browser-wait-until=networkidle0",
		"--dump-content=false",
	}, args)
}
