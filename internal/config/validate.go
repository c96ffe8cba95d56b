package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateDetect(); err != nil {
		return err
	}
	if err := c.validateThrottle(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateScan() error {
	switch c.Scan.Mode {
	case ModeFolders, ModeDrives:
	default:
		return fmt.Errorf("scan.mode must be %q or %q, got %q", ModeFolders, ModeDrives, c.Scan.Mode)
	}
	if len(c.Scan.Extensions) == 0 {
		return errors.New("scan.extensions must include at least one extension")
	}
	return nil
}

func (c *Config) validateDetect() error {
	if c.Detect.QuickHashWindow <= 0 {
		return errors.New("detect.quick_hash_window must be positive")
	}
	if c.Detect.QuickHashWindows < 1 || c.Detect.QuickHashWindows > maxQuickHashWindows {
		return fmt.Errorf("detect.quick_hash_windows must be between 1 and %d", maxQuickHashWindows)
	}
	return nil
}

func (c *Config) validateThrottle() error {
	if c.Throttle.MaxHandles <= 0 {
		return errors.New("throttle.max_handles must be positive")
	}
	if c.Throttle.ChunkSize <= 0 {
		return errors.New("throttle.chunk_size must be positive")
	}
	if c.Throttle.OpDelayMS < 0 {
		return errors.New("throttle.op_delay_ms must be >= 0")
	}
	if c.Throttle.ChunkDelayMS < 0 {
		return errors.New("throttle.chunk_delay_ms must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
