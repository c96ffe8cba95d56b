package scan

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks errors reported before any scanning starts.
var ErrConfiguration = errors.New("configuration error")

// ConfigError describes an invalid root or skip pattern.
type ConfigError struct {
	Root   string
	Detail string
}

func (e *ConfigError) Error() string {
	if e.Root == "" {
		return fmt.Sprintf("scan configuration: %s", e.Detail)
	}
	return fmt.Sprintf("scan root %s: %s", e.Root, e.Detail)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// Failure is a directory or file the walk could not read.
type Failure struct {
	Path string `json:"path"`
	Op   string `json:"op"`
	Err  string `json:"error"`
}
