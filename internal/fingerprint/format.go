package fingerprint

import "github.com/dustin/go-humanize"

func formatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
