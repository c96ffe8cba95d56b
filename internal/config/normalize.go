package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeScan(); err != nil {
		return err
	}
	c.normalizeDetect()
	c.normalizeThrottle()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = ExpandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeScan() error {
	c.Scan.Mode = strings.ToLower(strings.TrimSpace(c.Scan.Mode))
	if c.Scan.Mode == "" {
		c.Scan.Mode = defaultScanMode
	}

	roots := make([]string, 0, len(c.Scan.Roots))
	for _, root := range c.Scan.Roots {
		if strings.TrimSpace(root) == "" {
			continue
		}
		expanded, err := ExpandPath(strings.TrimSpace(root))
		if err != nil {
			return fmt.Errorf("scan.roots: %w", err)
		}
		roots = append(roots, expanded)
	}
	c.Scan.Roots = roots

	c.Scan.Extensions = NormalizeExtensions(c.Scan.Extensions)
	if len(c.Scan.Extensions) == 0 {
		c.Scan.Extensions = append([]string(nil), DefaultMediaExtensions...)
	}

	patterns := make([]string, 0, len(c.Scan.SkipPatterns))
	for _, pattern := range c.Scan.SkipPatterns {
		if trimmed := strings.TrimSpace(pattern); trimmed != "" {
			patterns = append(patterns, trimmed)
		}
	}
	c.Scan.SkipPatterns = patterns
	return nil
}

// NormalizeExtensions lower-cases, dot-prefixes, and de-duplicates an
// extension list while preserving order.
func NormalizeExtensions(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		ext := strings.ToLower(strings.TrimSpace(value))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, exists := seen[ext]; exists {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}

func (c *Config) normalizeDetect() {
	if c.Detect.QuickHashWindow == 0 {
		c.Detect.QuickHashWindow = defaultQuickHashWindow
	}
	if c.Detect.QuickHashWindows == 0 {
		c.Detect.QuickHashWindows = defaultQuickHashWindows
	}
}

func (c *Config) normalizeThrottle() {
	if c.Throttle.MaxHandles == 0 {
		c.Throttle.MaxHandles = defaultMaxHandles
	}
	if c.Throttle.ChunkSize == 0 {
		c.Throttle.ChunkSize = defaultChunkSize
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if value, ok := os.LookupEnv("MEDIADUPE_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
