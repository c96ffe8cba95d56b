package drives

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Drive is a mounted filesystem that can serve as a scan root.
type Drive struct {
	Path   string `json:"path"`
	Device string `json:"device,omitempty"`
	FSType string `json:"fs_type,omitempty"`
}

// Roots returns the drive paths in listing order.
func Roots(drives []Drive) []string {
	out := make([]string, 0, len(drives))
	for _, d := range drives {
		out = append(out, d.Path)
	}
	return out
}

var pseudoFilesystems = map[string]struct{}{
	"autofs": {}, "binfmt_misc": {}, "bpf": {}, "cgroup": {}, "cgroup2": {},
	"configfs": {}, "debugfs": {}, "devpts": {}, "devtmpfs": {}, "efivarfs": {},
	"fusectl": {}, "hugetlbfs": {}, "mqueue": {}, "nsfs": {}, "overlay": {},
	"proc": {}, "pstore": {}, "ramfs": {}, "rpc_pipefs": {}, "securityfs": {},
	"selinuxfs": {}, "squashfs": {}, "sysfs": {}, "tmpfs": {}, "tracefs": {},
}

var systemPrefixes = []string{"/proc", "/sys", "/dev", "/run", "/snap", "/boot"}

// SystemFolders returns the kernel and runtime trees that are never listed
// as drives. A walk that starts at "/" has to prune them itself.
func SystemFolders() []string {
	return append([]string(nil), systemPrefixes...)
}

// parseMounts reads /proc/mounts formatted data and keeps filesystems that
// can hold user media. Each mount point appears once; results are sorted.
func parseMounts(r io.Reader) ([]Drive, error) {
	seen := make(map[string]struct{})
	var out []Drive
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		device := decodeMountField(fields[0])
		mountPath := decodeMountField(fields[1])
		fsType := fields[2]
		if _, pseudo := pseudoFilesystems[fsType]; pseudo {
			continue
		}
		if isSystemPath(mountPath) {
			continue
		}
		if _, dup := seen[mountPath]; dup {
			continue
		}
		seen[mountPath] = struct{}{}
		out = append(out, Drive{Path: mountPath, Device: device, FSType: fsType})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan mounts: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func isSystemPath(path string) bool {
	for _, prefix := range systemPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// decodeMountField undoes the octal escapes the kernel applies to
// whitespace and backslashes in mount table fields.
func decodeMountField(field string) string {
	replacer := strings.NewReplacer(
		"\\040", " ",
		"\\011", "\t",
		"\\012", "\n",
		"\\134", "\\",
	)
	return replacer.Replace(field)
}
