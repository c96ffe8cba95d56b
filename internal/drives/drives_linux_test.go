//go:build linux

package drives

import (
	"os"
	"path/filepath"
	"testing"
)

func TestListReadsMountTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mounts")
	data := "proc /proc proc rw 0 0\n/dev/sda1 /data ext4 rw 0 0\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write mounts: %v", err)
	}
	orig := mountsPath
	mountsPath = path
	t.Cleanup(func() { mountsPath = orig })

	drives, err := List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(drives) != 1 || drives[0].Path != "/data" {
		t.Fatalf("unexpected drives %+v", drives)
	}

	mountsPath = filepath.Join(t.TempDir(), "missing")
	if _, err := List(); err == nil {
		t.Fatal("expected error for missing mount table")
	}
}
