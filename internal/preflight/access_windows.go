//go:build windows

package preflight

import (
	"errors"
	"io"
	"os"
)

func testAccess(path string, access Access) error {
	if access&AccessRead != 0 {
		dir, err := os.Open(path)
		if err != nil {
			return err
		}
		_, err = dir.Readdirnames(1)
		_ = dir.Close()
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
	}
	if access&AccessWrite != 0 {
		scratch, err := os.CreateTemp(path, ".mediadupe-access-*")
		if err != nil {
			return err
		}
		name := scratch.Name()
		_ = scratch.Close()
		return os.Remove(name)
	}
	return nil
}
