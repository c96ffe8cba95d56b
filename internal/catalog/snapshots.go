package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mediadupe/internal/media"
)

// ErrNotFound is returned when a snapshot or detection does not exist.
var ErrNotFound = errors.New("not found")

// SaveSnapshot stores a completed inventory under a new snapshot ID.
func (s *Store) SaveSnapshot(ctx context.Context, in SnapshotInput) (*Snapshot, error) {
	snap := &Snapshot{
		ID:            uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		Roots:         nonNil(in.Roots),
		Extensions:    nonNil(in.Extensions),
		SkipPatterns:  nonNil(in.SkipPatterns),
		FileCount:     len(in.Records),
		DirsCompleted: in.DirsCompleted,
		ErrorCount:    in.ErrorCount,
	}
	rootsJSON, err := json.Marshal(snap.Roots)
	if err != nil {
		return nil, fmt.Errorf("marshal roots: %w", err)
	}
	extJSON, err := json.Marshal(snap.Extensions)
	if err != nil {
		return nil, fmt.Errorf("marshal extensions: %w", err)
	}
	skipJSON, err := json.Marshal(snap.SkipPatterns)
	if err != nil {
		return nil, fmt.Errorf("marshal skip patterns: %w", err)
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snapshots (
                id, created_at, roots_json, extensions_json, skip_patterns_json,
                file_count, dirs_completed, error_count
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			snap.ID, formatTime(snap.CreatedAt), string(rootsJSON), string(extJSON), string(skipJSON),
			snap.FileCount, snap.DirsCompleted, snap.ErrorCount,
		); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO files (snapshot_id, file_index, path, size, category, mod_time)
             VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare file insert: %w", err)
		}
		defer stmt.Close()
		for i, r := range in.Records {
			if _, err := stmt.ExecContext(ctx, snap.ID, i, r.Path, r.Size, string(r.Category), formatTime(r.ModTime)); err != nil {
				return fmt.Errorf("insert file %s: %w", r.Path, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

const snapshotColumns = `id, created_at, roots_json, extensions_json, skip_patterns_json,
    file_count, dirs_completed, error_count`

func scanSnapshot(row interface{ Scan(...any) error }) (*Snapshot, error) {
	var (
		snap                         Snapshot
		created                      string
		rootsJSON, extJSON, skipJSON string
	)
	if err := row.Scan(&snap.ID, &created, &rootsJSON, &extJSON, &skipJSON,
		&snap.FileCount, &snap.DirsCompleted, &snap.ErrorCount); err != nil {
		return nil, err
	}
	snap.CreatedAt = parseTime(created)
	if err := json.Unmarshal([]byte(rootsJSON), &snap.Roots); err != nil {
		return nil, fmt.Errorf("decode roots: %w", err)
	}
	if err := json.Unmarshal([]byte(extJSON), &snap.Extensions); err != nil {
		return nil, fmt.Errorf("decode extensions: %w", err)
	}
	if err := json.Unmarshal([]byte(skipJSON), &snap.SkipPatterns); err != nil {
		return nil, fmt.Errorf("decode skip patterns: %w", err)
	}
	return &snap, nil
}

// GetSnapshot returns the snapshot with id.
func (s *Store) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	row := s.db.QueryRowContext(orBackground(ctx),
		`SELECT `+snapshotColumns+` FROM snapshots WHERE id = ?`, id)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return snap, nil
}

// LatestSnapshot returns the most recent snapshot, or ErrNotFound.
func (s *Store) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	row := s.db.QueryRowContext(orBackground(ctx),
		`SELECT `+snapshotColumns+` FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT 1`)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no snapshots: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return snap, nil
}

// ListSnapshots returns snapshots newest first.
func (s *Store) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(orBackground(ctx),
		`SELECT `+snapshotColumns+` FROM snapshots ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()
	var out []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, *snap)
	}
	return out, rows.Err()
}

// LoadInventory returns the records of a snapshot in discovery order.
func (s *Store) LoadInventory(ctx context.Context, snapshotID string) ([]media.FileRecord, error) {
	if _, err := s.GetSnapshot(ctx, snapshotID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(orBackground(ctx),
		`SELECT file_index, path, size, category, mod_time FROM files
         WHERE snapshot_id = ? ORDER BY file_index`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}
	defer rows.Close()
	var out []media.FileRecord
	for rows.Next() {
		var (
			r        media.FileRecord
			category string
			modTime  string
		)
		if err := rows.Scan(&r.Index, &r.Path, &r.Size, &category, &modTime); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		r.Category = media.Category(category)
		r.ModTime = parseTime(modTime)
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteSnapshot removes a snapshot and everything derived from it.
func (s *Store) DeleteSnapshot(ctx context.Context, id string) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
	}
	return nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return append([]string(nil), values...)
}
