package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mediadupe/internal/media"
)

// SaveDetection stores the groups of a completed detection.
func (s *Store) SaveDetection(ctx context.Context, in DetectionInput) (*Detection, error) {
	if _, err := s.GetSnapshot(ctx, in.SnapshotID); err != nil {
		return nil, err
	}
	det := &Detection{
		ID:            uuid.NewString(),
		SnapshotID:    in.SnapshotID,
		CreatedAt:     time.Now().UTC(),
		HighPrecision: in.HighPrecision,
		Terminal:      in.Terminal,
		FailureCount:  in.FailureCount,
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO detections (id, snapshot_id, created_at, high_precision, terminal_stage, failure_count)
             VALUES (?, ?, ?, ?, ?, ?)`,
			det.ID, det.SnapshotID, formatTime(det.CreatedAt), boolToInt(det.HighPrecision),
			det.Terminal.String(), det.FailureCount,
		); err != nil {
			return fmt.Errorf("insert detection: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO group_members (
                detection_id, group_id, group_key, position, file_index, path,
                size, category, mod_time, quick_hash, full_hash
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare member insert: %w", err)
		}
		defer stmt.Close()
		for _, g := range in.Groups {
			for pos, m := range g.Members {
				if _, err := stmt.ExecContext(ctx,
					det.ID, g.ID, g.Key, pos, m.Index, m.Path,
					m.Size, string(m.Category), formatTime(m.ModTime),
					nullableString(m.QuickHash), nullableString(m.FullHash),
				); err != nil {
					return fmt.Errorf("insert group %d member %s: %w", g.ID, m.Path, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return det, nil
}

const detectionColumns = `id, snapshot_id, created_at, high_precision, terminal_stage, failure_count`

func scanDetection(row interface{ Scan(...any) error }) (*Detection, error) {
	var (
		det      Detection
		created  string
		highPrec int
		terminal string
	)
	if err := row.Scan(&det.ID, &det.SnapshotID, &created, &highPrec, &terminal, &det.FailureCount); err != nil {
		return nil, err
	}
	det.CreatedAt = parseTime(created)
	det.HighPrecision = highPrec != 0
	stage, err := media.ParseStage(terminal)
	if err != nil {
		return nil, err
	}
	det.Terminal = stage
	return &det, nil
}

// LatestDetection returns the most recent detection, optionally restricted
// to a snapshot.
func (s *Store) LatestDetection(ctx context.Context, snapshotID string) (*Detection, error) {
	query := `SELECT ` + detectionColumns + ` FROM detections`
	var args []any
	if snapshotID != "" {
		query += ` WHERE snapshot_id = ?`
		args = append(args, snapshotID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT 1`
	det, err := scanDetection(s.db.QueryRowContext(orBackground(ctx), query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no detections: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("latest detection: %w", err)
	}
	return det, nil
}

// LoadGroups returns the groups of a detection ordered by group id, with
// members in discovery order.
func (s *Store) LoadGroups(ctx context.Context, detectionID string) ([]media.DuplicateGroup, error) {
	var terminal string
	err := s.db.QueryRowContext(orBackground(ctx),
		`SELECT terminal_stage FROM detections WHERE id = ?`, detectionID).Scan(&terminal)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("detection %s: %w", detectionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load detection: %w", err)
	}
	stage, err := media.ParseStage(terminal)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(orBackground(ctx),
		`SELECT group_id, group_key, file_index, path, size, category, mod_time, quick_hash, full_hash
         FROM group_members WHERE detection_id = ? ORDER BY group_id, position`, detectionID)
	if err != nil {
		return nil, fmt.Errorf("load groups: %w", err)
	}
	defer rows.Close()

	var groups []media.DuplicateGroup
	for rows.Next() {
		var (
			groupID   int
			key       string
			m         media.FileRecord
			category  string
			modTime   string
			quickHash sql.NullString
			fullHash  sql.NullString
		)
		if err := rows.Scan(&groupID, &key, &m.Index, &m.Path, &m.Size, &category, &modTime, &quickHash, &fullHash); err != nil {
			return nil, fmt.Errorf("scan group member: %w", err)
		}
		m.Category = media.Category(category)
		m.ModTime = parseTime(modTime)
		m.QuickHash = quickHash.String
		m.FullHash = fullHash.String
		if n := len(groups); n == 0 || groups[n-1].ID != groupID {
			groups = append(groups, media.DuplicateGroup{ID: groupID, Key: key, Stage: stage, Size: m.Size})
		}
		last := &groups[len(groups)-1]
		last.Members = append(last.Members, m)
	}
	return groups, rows.Err()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
