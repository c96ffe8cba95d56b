package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Export is the JSON document handed to external collaborators.
type Export struct {
	SnapshotID  string  `json:"snapshot_id"`
	DetectionID string  `json:"detection_id"`
	Summary     Summary `json:"summary"`
	Rows        []Row   `json:"rows"`
}

// WriteJSON encodes export as indented JSON.
func WriteJSON(w io.Writer, export Export) error {
	if export.Rows == nil {
		export.Rows = []Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(export)
}

var csvHeader = []string{
	"group_id", "file_name", "full_path", "short_path", "size",
	"file_type", "checksum", "disposition", "duplicate_of",
}

// WriteCSV writes rows in the annotation export column layout.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.GroupID),
			r.FileName,
			r.Path,
			r.ShortPath,
			strconv.FormatInt(r.Size, 10),
			r.FileType,
			r.Fingerprint,
			r.Disposition.Label(),
			strings.Join(r.DuplicateOf, "; "),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
