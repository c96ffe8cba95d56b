//go:build linux

package drives

import (
	"fmt"
	"os"
)

var mountsPath = "/proc/mounts"

// List returns the mounted filesystems that can hold user media.
func List() ([]Drive, error) {
	f, err := os.Open(mountsPath)
	if err != nil {
		return nil, fmt.Errorf("open mounts: %w", err)
	}
	defer f.Close()
	return parseMounts(f)
}
