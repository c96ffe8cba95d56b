package catalog

import (
	"fmt"
	"strings"
	"time"

	"mediadupe/internal/media"
)

// Disposition is the user's intent for a file. The catalog only records it;
// nothing in mediadupe acts on it.
type Disposition string

const (
	DispositionNone         Disposition = "none"
	DispositionKeep         Disposition = "keep"
	DispositionDelete       Disposition = "delete"
	DispositionMove         Disposition = "move"
	DispositionReview       Disposition = "review"
	DispositionIgnoreFolder Disposition = "ignore-folder"
)

// Dispositions lists every accepted value in display order.
var Dispositions = []Disposition{
	DispositionNone,
	DispositionKeep,
	DispositionDelete,
	DispositionMove,
	DispositionReview,
	DispositionIgnoreFolder,
}

// ParseDisposition accepts the canonical values, case-insensitively, with
// spaces or underscores in place of the hyphen.
func ParseDisposition(value string) (Disposition, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.NewReplacer(" ", "-", "_", "-").Replace(normalized)
	if normalized == "" {
		return DispositionNone, nil
	}
	for _, d := range Dispositions {
		if string(d) == normalized {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown disposition %q (want one of %s)", value, dispositionList())
}

func dispositionList() string {
	parts := make([]string, len(Dispositions))
	for i, d := range Dispositions {
		parts[i] = string(d)
	}
	return strings.Join(parts, ", ")
}

// Label returns the display form.
func (d Disposition) Label() string {
	switch d {
	case DispositionKeep:
		return "Keep"
	case DispositionDelete:
		return "Delete"
	case DispositionMove:
		return "Move"
	case DispositionReview:
		return "Review"
	case DispositionIgnoreFolder:
		return "Ignore Folder"
	default:
		return "None"
	}
}

// Snapshot describes one completed inventory.
type Snapshot struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Roots         []string  `json:"roots"`
	Extensions    []string  `json:"extensions"`
	SkipPatterns  []string  `json:"skip_patterns"`
	FileCount     int       `json:"file_count"`
	DirsCompleted int       `json:"dirs_completed"`
	ErrorCount    int       `json:"error_count"`
}

// SnapshotInput is what a finished scan hands to SaveSnapshot.
type SnapshotInput struct {
	Roots         []string
	Extensions    []string
	SkipPatterns  []string
	Records       []media.FileRecord
	DirsCompleted int
	ErrorCount    int
}

// Detection describes one completed detection run.
type Detection struct {
	ID            string      `json:"id"`
	SnapshotID    string      `json:"snapshot_id"`
	CreatedAt     time.Time   `json:"created_at"`
	HighPrecision bool        `json:"high_precision"`
	Terminal      media.Stage `json:"-"`
	FailureCount  int         `json:"failure_count"`
}

// DetectionInput is what a finished detection hands to SaveDetection.
type DetectionInput struct {
	SnapshotID    string
	HighPrecision bool
	Terminal      media.Stage
	Groups        []media.DuplicateGroup
	FailureCount  int
}

// Counts summarizes catalog contents for status output.
type Counts struct {
	Snapshots     int
	LatestFiles   int
	Detections    int
	LatestGroups  int
	Annotations   int
	IgnoredFolder int
}
