package report

import (
	"path/filepath"

	"mediadupe/internal/catalog"
	"mediadupe/internal/media"
)

const shortPathLimit = 60

// Row is one file of one duplicate group.
type Row struct {
	GroupID     int                 `json:"group_id"`
	FileName    string              `json:"file_name"`
	Path        string              `json:"path"`
	ShortPath   string              `json:"short_path"`
	Size        int64               `json:"size"`
	FileType    string              `json:"file_type"`
	Category    media.Category      `json:"category"`
	Fingerprint string              `json:"fingerprint"`
	Stage       string              `json:"stage"`
	Disposition catalog.Disposition `json:"disposition"`
	DuplicateOf []string            `json:"duplicate_of"`
}

// Options controls which rows BuildRows emits.
type Options struct {
	Annotations    map[string]catalog.Disposition
	IgnoredFolders []string
	// Dispositions restricts output to these values; empty means all.
	Dispositions []catalog.Disposition
}

// BuildRows flattens groups into rows in group order, members in discovery
// order. Files under an ignored folder are omitted, and so is their entry in
// every sibling's DuplicateOf list.
func BuildRows(groups []media.DuplicateGroup, opts Options) []Row {
	var filter map[catalog.Disposition]struct{}
	if len(opts.Dispositions) > 0 {
		filter = make(map[catalog.Disposition]struct{}, len(opts.Dispositions))
		for _, d := range opts.Dispositions {
			filter[d] = struct{}{}
		}
	}

	var rows []Row
	for _, g := range groups {
		visible := make([]media.FileRecord, 0, len(g.Members))
		for _, m := range g.Members {
			if !inIgnoredFolder(m.Path, opts.IgnoredFolders) {
				visible = append(visible, m)
			}
		}
		for _, m := range visible {
			disposition := catalog.DispositionNone
			if d, ok := opts.Annotations[m.Path]; ok && d != "" {
				disposition = d
			}
			if filter != nil {
				if _, ok := filter[disposition]; !ok {
					continue
				}
			}
			others := make([]string, 0, len(visible)-1)
			for _, o := range visible {
				if o.Path != m.Path {
					others = append(others, o.Path)
				}
			}
			rows = append(rows, Row{
				GroupID:     g.ID,
				FileName:    filepath.Base(m.Path),
				Path:        m.Path,
				ShortPath:   ShortenPath(m.Path),
				Size:        m.Size,
				FileType:    media.Ext(m.Path),
				Category:    m.Category,
				Fingerprint: g.Key,
				Stage:       g.Stage.String(),
				Disposition: disposition,
				DuplicateOf: others,
			})
		}
	}
	return rows
}

// ShortenPath keeps the last 60 characters of long paths behind a "..."
// prefix.
func ShortenPath(path string) string {
	runes := []rune(path)
	if len(runes) <= shortPathLimit {
		return path
	}
	return "..." + string(runes[len(runes)-shortPathLimit:])
}

func inIgnoredFolder(path string, folders []string) bool {
	if len(folders) == 0 {
		return false
	}
	dir := filepath.Dir(path)
	for _, folder := range folders {
		if media.WithinFolder(dir, folder) {
			return true
		}
	}
	return false
}
