package preflight

import (
	"fmt"
	"os"
)

// Access selects the permissions CheckDirectoryAccess requires.
type Access int

const (
	AccessRead Access = 1 << iota
	AccessWrite
)

func (a Access) label() string {
	switch {
	case a&AccessRead != 0 && a&AccessWrite != 0:
		return "read/write ok"
	case a&AccessWrite != 0:
		return "write ok"
	default:
		return "read ok"
	}
}

// CheckDirectoryAccess verifies that the directory exists and grants access.
func CheckDirectoryAccess(name, path string, access Access) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := testAccess(path, access); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, access.label())}
}

// CheckRoot verifies that a scan root exists and can be listed.
func CheckRoot(path string) Result {
	return CheckDirectoryAccess("Scan root", path, AccessRead)
}
