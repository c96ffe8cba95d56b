//go:build windows

package drives

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// List returns every logical drive letter reported by the system.
func List() ([]Drive, error) {
	mask, err := windows.GetLogicalDrives()
	if err != nil {
		return nil, fmt.Errorf("get logical drives: %w", err)
	}
	return drivesFromMask(mask), nil
}
