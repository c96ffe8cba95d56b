//go:build !linux && !windows

package drives

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// List returns "/" plus every volume mounted under /Volumes when present.
func List() ([]Drive, error) {
	out := []Drive{{Path: "/"}}
	entries, err := os.ReadDir("/Volumes")
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("read volumes: %w", err)
	}
	var volumes []Drive
	for _, entry := range entries {
		volumes = append(volumes, Drive{Path: filepath.Join("/Volumes", entry.Name())})
	}
	sort.Slice(volumes, func(i, j int) bool { return volumes[i].Path < volumes[j].Path })
	return append(out, volumes...), nil
}
