package drives

import (
	"strings"
	"testing"
)

const sampleMounts = `sysfs /sys sysfs rw,nosuid,nodev,noexec,relatime 0 0
proc /proc proc rw,nosuid,nodev,noexec,relatime 0 0
udev /dev devtmpfs rw,nosuid,relatime 0 0
tmpfs /run tmpfs rw,nosuid,nodev 0 0
/dev/nvme0n1p2 / ext4 rw,relatime 0 0
/dev/nvme0n1p1 /boot/efi vfat rw,relatime 0 0
/dev/sdb1 /media/user/My\040Photos exfat rw,nosuid,nodev 0 0
/dev/sdc1 /mnt/archive ntfs3 rw,relatime 0 0
/dev/sdc1 /mnt/archive ntfs3 rw,relatime 0 0
/dev/loop3 /snap/core/123 squashfs ro,nodev 0 0
nas:/photos /mnt/nas nfs4 rw,relatime 0 0
overlay /var/lib/docker/overlay2/x/merged overlay rw 0 0
short line
`

func TestParseMountsSkipsPseudoFilesystems(t *testing.T) {
	drives, err := parseMounts(strings.NewReader(sampleMounts))
	if err != nil {
		t.Fatalf("parseMounts: %v", err)
	}
	want := []Drive{
		{Path: "/", Device: "/dev/nvme0n1p2", FSType: "ext4"},
		{Path: "/media/user/My Photos", Device: "/dev/sdb1", FSType: "exfat"},
		{Path: "/mnt/archive", Device: "/dev/sdc1", FSType: "ntfs3"},
		{Path: "/mnt/nas", Device: "nas:/photos", FSType: "nfs4"},
	}
	if len(drives) != len(want) {
		t.Fatalf("expected %d drives, got %d: %+v", len(want), len(drives), drives)
	}
	for i := range want {
		if drives[i] != want[i] {
			t.Fatalf("drive %d: got %+v want %+v", i, drives[i], want[i])
		}
	}
}

func TestDecodeMountField(t *testing.T) {
	cases := map[string]string{
		`/mnt/a\040b`:   "/mnt/a b",
		`/mnt/tab\011x`: "/mnt/tab\tx",
		`/mnt/back\134`: `/mnt/back\`,
		"/plain":        "/plain",
	}
	for input, want := range cases {
		if got := decodeMountField(input); got != want {
			t.Fatalf("decodeMountField(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestDrivesFromMask(t *testing.T) {
	// A:, C:, D:, Z:
	mask := uint32(1 | 1<<2 | 1<<3 | 1<<25)
	got := Roots(drivesFromMask(mask))
	want := []string{`A:\`, `C:\`, `D:\`, `Z:\`}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("got %v want %v", got, want)
	}
	if len(drivesFromMask(0)) != 0 {
		t.Fatal("expected no drives for empty mask")
	}
}

func TestSystemFoldersReturnsCopy(t *testing.T) {
	folders := SystemFolders()
	for _, want := range []string{"/proc", "/sys", "/dev"} {
		found := false
		for _, got := range folders {
			if got == want {
				found = true
			}
		}
		if !found {
			t.Fatalf("SystemFolders() = %v, missing %s", folders, want)
		}
	}
	folders[0] = "/changed"
	if SystemFolders()[0] == "/changed" {
		t.Fatal("SystemFolders shares its backing array")
	}
}
