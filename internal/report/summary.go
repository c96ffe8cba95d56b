package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"mediadupe/internal/fingerprint"
	"mediadupe/internal/media"
)

// Summary aggregates a detection result for display.
type Summary struct {
	Groups         int    `json:"groups"`
	DuplicateFiles int    `json:"duplicate_files"`
	Reclaimable    int64  `json:"reclaimable_bytes"`
	Terminal       string `json:"terminal_stage"`
	HighPrecision  bool   `json:"high_precision"`
	Failures       int    `json:"failures"`
	// SampledCoverage is the smallest fraction of any grouped file that the
	// quick hash read. It is 1 when groups were confirmed by full hash.
	SampledCoverage float64 `json:"sampled_coverage"`
	CoverageNote    string  `json:"coverage_note,omitempty"`
}

// Summarize computes the summary for groups produced at terminal.
func Summarize(groups []media.DuplicateGroup, terminal media.Stage, failures int, sampling fingerprint.Sampling) Summary {
	s := Summary{
		Groups:          len(groups),
		DuplicateFiles:  media.DuplicateFiles(groups),
		Reclaimable:     media.TotalReclaimable(groups),
		Terminal:        terminal.String(),
		HighPrecision:   terminal == media.StageFullHash,
		Failures:        failures,
		SampledCoverage: 1,
	}
	if terminal != media.StageQuickHash || len(groups) == 0 {
		return s
	}
	var largest int64
	for _, g := range groups {
		if g.Size > largest {
			largest = g.Size
		}
	}
	s.SampledCoverage = sampling.Coverage(largest)
	s.CoverageNote = sampling.CollisionNote(largest)
	return s
}

// Render formats the summary as indented key/value lines.
func (s Summary) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Duplicate groups: %d\n", s.Groups)
	fmt.Fprintf(&b, "Duplicate files:  %d\n", s.DuplicateFiles)
	fmt.Fprintf(&b, "Reclaimable:      %s\n", humanize.IBytes(uint64(s.Reclaimable)))
	fmt.Fprintf(&b, "Terminal stage:   %s\n", s.Terminal)
	if s.Failures > 0 {
		fmt.Fprintf(&b, "Unreadable files: %d\n", s.Failures)
	}
	if s.CoverageNote != "" {
		fmt.Fprintf(&b, "Coverage:         %s\n", s.CoverageNote)
	}
	return b.String()
}
