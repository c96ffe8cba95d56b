package drives

// drivesFromMask expands a GetLogicalDrives bitmask, bit 0 being A:.
func drivesFromMask(mask uint32) []Drive {
	var out []Drive
	for i := 0; i < 26; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		out = append(out, Drive{Path: string(rune('A'+i)) + `:\`})
	}
	return out
}
