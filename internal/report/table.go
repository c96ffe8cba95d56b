package report

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"mediadupe/internal/media"
)

// Alignment selects column text alignment.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// RenderTable draws headers and rows with rounded borders.
func RenderTable(headers []string, rows [][]string, aligns []Alignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == AlignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// RowsTable renders export rows the way the groups command shows them.
func RowsTable(rows []Row) string {
	headers := []string{"Group", "File", "Path", "Size", "Type", "Fingerprint", "Disposition", "Duplicate Of"}
	aligns := []Alignment{AlignRight, AlignLeft, AlignLeft, AlignRight, AlignLeft, AlignLeft, AlignLeft, AlignLeft}
	body := make([][]string, 0, len(rows))
	for _, r := range rows {
		body = append(body, []string{
			strconv.Itoa(r.GroupID),
			r.FileName,
			r.ShortPath,
			humanize.IBytes(uint64(r.Size)),
			r.FileType,
			shortFingerprint(r.Fingerprint),
			r.Disposition.Label(),
			strings.Join(shortPaths(r.DuplicateOf), "; "),
		})
	}
	return RenderTable(headers, body, aligns)
}

// InventoryTable renders scanned records.
func InventoryTable(records []media.FileRecord) string {
	headers := []string{"#", "Path", "Size", "Category"}
	aligns := []Alignment{AlignRight, AlignLeft, AlignRight, AlignLeft}
	body := make([][]string, 0, len(records))
	for _, r := range records {
		body = append(body, []string{
			strconv.Itoa(r.Index + 1),
			ShortenPath(r.Path),
			humanize.IBytes(uint64(r.Size)),
			string(r.Category),
		})
	}
	return RenderTable(headers, body, aligns)
}

// KeyValueTable renders two-column label/value rows.
func KeyValueTable(pairs [][2]string) string {
	body := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		body = append(body, []string{p[0], p[1]})
	}
	return RenderTable([]string{"Item", "Value"}, body, []Alignment{AlignLeft, AlignRight})
}

func shortFingerprint(value string) string {
	if len(value) > 16 {
		return value[:16]
	}
	return value
}

func shortPaths(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = ShortenPath(p)
	}
	return out
}
