package testsupport

import (
	"path/filepath"
	"testing"

	"mediadupe/internal/config"
)

// ConfigOption adjusts a generated test configuration before directories
// are created.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// Throttle delays are zeroed so tests do not sleep; the handle cap keeps its
// default.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Scan.Roots = []string{filepath.Join(base, "media")}
	cfg.Scan.SkipPatterns = nil
	cfg.Throttle.OpDelayMS = 0
	cfg.Throttle.ChunkDelayMS = 0
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithRoots overrides the scan roots.
func WithRoots(roots ...string) ConfigOption {
	return func(c *config.Config) {
		c.Scan.Roots = roots
	}
}

// WithExtensions overrides the media extensions.
func WithExtensions(exts ...string) ConfigOption {
	return func(c *config.Config) {
		c.Scan.Extensions = exts
	}
}

// WithSampling overrides the quick-hash window layout.
func WithSampling(window int64, windows int) ConfigOption {
	return func(c *config.Config) {
		c.Detect.QuickHashWindow = window
		c.Detect.QuickHashWindows = windows
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

// MediaRoot returns the first configured scan root.
func MediaRoot(cfg *config.Config) string {
	if len(cfg.Scan.Roots) == 0 {
		return ""
	}
	return cfg.Scan.Roots[0]
}
