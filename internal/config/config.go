package config

import "time"

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Scan contains inventory settings.
type Scan struct {
	// Mode selects the discovery mode: "folders" scans Roots, "drives" scans
	// every logical drive or mount point.
	Mode         string   `toml:"mode"`
	Roots        []string `toml:"roots"`
	Extensions   []string `toml:"extensions"`
	SkipPatterns []string `toml:"skip_patterns"`
}

// Detect contains duplicate detection settings.
type Detect struct {
	HighPrecision bool `toml:"high_precision"`
	// QuickHashWindow is the byte length of each sampled window.
	QuickHashWindow int64 `toml:"quick_hash_window"`
	// QuickHashWindows is the number of evenly spaced windows; 3 means
	// first, middle, and last.
	QuickHashWindows int `toml:"quick_hash_windows"`
}

// Throttle contains disk-safety limits consulted by every disk read.
type Throttle struct {
	MaxHandles   int   `toml:"max_handles"`
	OpDelayMS    int   `toml:"op_delay_ms"`
	ChunkDelayMS int   `toml:"chunk_delay_ms"`
	ChunkSize    int64 `toml:"chunk_size"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for mediadupe.
//
// Configuration sections by subsystem:
//   - Paths: catalog state and log directories
//   - Scan: discovery mode, roots, media extensions, skip patterns
//   - Detect: precision mode and quick-hash sampling layout
//   - Throttle: handle cap and inter-operation delays
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Scan     Scan     `toml:"scan"`
	Detect   Detect   `toml:"detect"`
	Throttle Throttle `toml:"throttle"`
	Logging  Logging  `toml:"logging"`
}

// OpDelay returns the configured delay between file-level operations.
func (c *Config) OpDelay() time.Duration {
	return time.Duration(c.Throttle.OpDelayMS) * time.Millisecond
}

// ChunkDelay returns the configured delay between chunk reads within one file.
func (c *Config) ChunkDelay() time.Duration {
	return time.Duration(c.Throttle.ChunkDelayMS) * time.Millisecond
}
