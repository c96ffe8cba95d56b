package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"
)

// SetAnnotation records a disposition for path. DispositionNone clears it.
func (s *Store) SetAnnotation(ctx context.Context, path string, disposition Disposition) error {
	if path == "" {
		return fmt.Errorf("annotate: empty path")
	}
	if disposition == DispositionNone || disposition == "" {
		if _, err := s.execWithRetry(ctx, `DELETE FROM annotations WHERE path = ?`, path); err != nil {
			return fmt.Errorf("clear annotation: %w", err)
		}
		return nil
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO annotations (path, disposition, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(path) DO UPDATE SET disposition = excluded.disposition, updated_at = excluded.updated_at`,
		path, string(disposition), formatTime(time.Now()),
	); err != nil {
		return fmt.Errorf("set annotation: %w", err)
	}
	return nil
}

// Annotations returns every recorded disposition keyed by path.
func (s *Store) Annotations(ctx context.Context) (map[string]Disposition, error) {
	rows, err := s.db.QueryContext(orBackground(ctx), `SELECT path, disposition FROM annotations`)
	if err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	defer rows.Close()
	out := make(map[string]Disposition)
	for rows.Next() {
		var path, disposition string
		if err := rows.Scan(&path, &disposition); err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}
		out[path] = Disposition(disposition)
	}
	return out, rows.Err()
}

// IgnoredFolders returns the parent folders of files annotated
// ignore-folder, sorted and de-duplicated. Scans add them to the skip list.
func (s *Store) IgnoredFolders(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(orBackground(ctx),
		`SELECT path FROM annotations WHERE disposition = ?`, string(DispositionIgnoreFolder))
	if err != nil {
		return nil, fmt.Errorf("list ignored folders: %w", err)
	}
	defer rows.Close()
	seen := make(map[string]struct{})
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scan ignored folder: %w", err)
		}
		seen[filepath.Dir(path)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	folders := make([]string, 0, len(seen))
	for dir := range seen {
		folders = append(folders, dir)
	}
	sort.Strings(folders)
	return folders, nil
}

// Counts summarizes the catalog.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	ctx = orBackground(ctx)
	var c Counts
	queries := []struct {
		dest  *int
		query string
	}{
		{&c.Snapshots, `SELECT COUNT(1) FROM snapshots`},
		{&c.LatestFiles, `SELECT COALESCE((SELECT file_count FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT 1), 0)`},
		{&c.Detections, `SELECT COUNT(1) FROM detections`},
		{&c.LatestGroups, `SELECT COUNT(DISTINCT group_id) FROM group_members WHERE detection_id =
            (SELECT id FROM detections ORDER BY created_at DESC, rowid DESC LIMIT 1)`},
		{&c.Annotations, `SELECT COUNT(1) FROM annotations`},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return Counts{}, fmt.Errorf("count: %w", err)
		}
	}
	folders, err := s.IgnoredFolders(ctx)
	if err != nil {
		return Counts{}, err
	}
	c.IgnoredFolder = len(folders)
	return c, nil
}
