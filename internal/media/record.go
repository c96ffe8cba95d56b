package media

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Category is the media kind derived from a file extension.
type Category string

const (
	CategoryImage Category = "image"
	CategoryVideo Category = "video"
	CategoryOther Category = "other"
)

var categoryByExt = map[string]Category{
	".jpg":  CategoryImage,
	".jpeg": CategoryImage,
	".png":  CategoryImage,
	".gif":  CategoryImage,
	".bmp":  CategoryImage,
	".tif":  CategoryImage,
	".tiff": CategoryImage,
	".heic": CategoryImage,
	".webp": CategoryImage,
	".mp4":  CategoryVideo,
	".m4v":  CategoryVideo,
	".mov":  CategoryVideo,
	".avi":  CategoryVideo,
	".mkv":  CategoryVideo,
	".wmv":  CategoryVideo,
	".webm": CategoryVideo,
}

// Ext returns the lower-cased extension of path including the dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// CategoryOf classifies path by extension.
func CategoryOf(path string) Category {
	if category, ok := categoryByExt[Ext(path)]; ok {
		return category
	}
	return CategoryOther
}

// FileRecord is one discovered file. Fingerprint fields are filled in by the
// detector on its own copy of the record.
type FileRecord struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Category  Category  `json:"category"`
	ModTime   time.Time `json:"mod_time"`
	QuickHash string    `json:"quick_hash,omitempty"`
	FullHash  string    `json:"full_hash,omitempty"`
	// Index is the discovery position within the inventory.
	Index int `json:"index"`
}

// NewRecord builds a record for a discovered file.
func NewRecord(path string, size int64, modTime time.Time, index int) FileRecord {
	return FileRecord{
		Path:     path,
		Size:     size,
		Category: CategoryOf(path),
		ModTime:  modTime,
		Index:    index,
	}
}

// Fingerprint returns the record's fingerprint for stage, or "" when that
// stage has not been computed.
func (r FileRecord) Fingerprint(stage Stage) string {
	switch stage {
	case StageSize:
		return strconv.FormatInt(r.Size, 10)
	case StageQuickHash:
		return r.QuickHash
	case StageFullHash:
		return r.FullHash
	default:
		return ""
	}
}

// Stage is a detection pipeline stage.
type Stage int

const (
	StageSize Stage = iota
	StageQuickHash
	StageFullHash
)

func (s Stage) String() string {
	switch s {
	case StageSize:
		return "size"
	case StageQuickHash:
		return "quick_hash"
	case StageFullHash:
		return "full_hash"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// ParseStage is the inverse of Stage.String.
func ParseStage(value string) (Stage, error) {
	switch strings.TrimSpace(value) {
	case "size":
		return StageSize, nil
	case "quick_hash":
		return StageQuickHash, nil
	case "full_hash":
		return StageFullHash, nil
	default:
		return 0, fmt.Errorf("unknown stage %q", value)
	}
}

// CloneRecords returns an independent copy of records.
func CloneRecords(records []FileRecord) []FileRecord {
	if records == nil {
		return nil
	}
	out := make([]FileRecord, len(records))
	copy(out, records)
	return out
}
