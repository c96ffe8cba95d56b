//go:build !windows

package preflight

import "golang.org/x/sys/unix"

func testAccess(path string, access Access) error {
	mode := uint32(unix.X_OK)
	if access&AccessRead != 0 {
		mode |= unix.R_OK
	}
	if access&AccessWrite != 0 {
		mode |= unix.W_OK
	}
	return unix.Access(path, mode)
}
