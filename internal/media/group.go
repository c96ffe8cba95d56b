package media

// DuplicateGroup is a terminal-stage bucket with at least two members.
// Members keep inventory discovery order.
type DuplicateGroup struct {
	ID      int          `json:"id"`
	Key     string       `json:"key"`
	Stage   Stage        `json:"-"`
	Size    int64        `json:"size"`
	Members []FileRecord `json:"members"`
}

// Reclaimable is the bytes freed by keeping a single member.
func (g DuplicateGroup) Reclaimable() int64 {
	if len(g.Members) < 2 {
		return 0
	}
	return int64(len(g.Members)-1) * g.Size
}

// Keeper returns the first-found member, the suggested file to keep.
func (g DuplicateGroup) Keeper() FileRecord {
	if len(g.Members) == 0 {
		return FileRecord{}
	}
	return g.Members[0]
}

// TotalReclaimable sums Reclaimable over groups.
func TotalReclaimable(groups []DuplicateGroup) int64 {
	var total int64
	for _, g := range groups {
		total += g.Reclaimable()
	}
	return total
}

// DuplicateFiles counts files that belong to any group.
func DuplicateFiles(groups []DuplicateGroup) int {
	total := 0
	for _, g := range groups {
		total += len(g.Members)
	}
	return total
}
