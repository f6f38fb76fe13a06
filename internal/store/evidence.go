package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// InsertEvidence appends an evidence row for itemCode and returns its
// store-assigned id.
//
// The referenced requirement must resolve through the catalog; unknown
// codes fail with a not-found error and write nothing. All three fields
// must be non-empty after trimming. On success the row is committed with
// status 'completed' and both timestamps set to the current time.
//
// The existence check and the insert share one transaction, so a
// concurrent catalog change cannot slip between them.
func (s *Store) InsertEvidence(ctx context.Context, itemCode, evidenceType, content string) (int64, error) {
	if strings.TrimSpace(itemCode) == "" {
		return 0, NewValidationError("item_code is required")
	}
	if strings.TrimSpace(evidenceType) == "" {
		return 0, NewValidationError("evidence_type is required")
	}
	if strings.TrimSpace(content) == "" {
		return 0, NewValidationError("content is required")
	}

	if err := s.requireCatalog(ctx); err != nil {
		return 0, err
	}

	var id int64
	err := s.withRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("insert evidence: begin tx: %w", err)
		}
		defer tx.Rollback() // No-op if committed

		var one int
		err = tx.QueryRowContext(ctx,
			`SELECT 1 FROM `+catalogObject+` WHERE item_code = ?`, itemCode).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return NewNotFoundError("requirement %q not found", itemCode)
		}
		if err != nil {
			return fmt.Errorf("insert evidence: resolve %s: %w", itemCode, err)
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO evidences (item_code, evidence_type, content, status)
			VALUES (?, ?, ?, ?)
		`, itemCode, evidenceType, content, StatusCompleted)
		if err != nil {
			return fmt.Errorf("insert evidence: %w", err)
		}

		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert evidence: last insert id: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("insert evidence: commit: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, asStorageError(err, "insert evidence for %s", itemCode)
	}

	return id, nil
}

// GetEvidence returns one evidence row by its store-assigned id.
func (s *Store) GetEvidence(ctx context.Context, id int64) (Evidence, error) {
	var ev Evidence
	err := s.db.QueryRowContext(ctx, `
		SELECT id, item_code, evidence_type, content, status, created_by, created_at, updated_at
		FROM evidences
		WHERE id = ?
	`, id).Scan(
		&ev.ID, &ev.ItemCode, &ev.EvidenceType, &ev.Content,
		&ev.Status, &ev.CreatedBy, &ev.CreatedAt, &ev.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Evidence{}, NewNotFoundError("evidence %d not found", id)
	}
	if err != nil {
		return Evidence{}, asStorageError(err, "get evidence %d", id)
	}
	return ev, nil
}

// RecentEvidence returns up to limit evidence rows for itemCode, newest
// first. Rows sharing a created_at second keep insertion order (id ASC)
// as the stable tiebreak.
func (s *Store) RecentEvidence(ctx context.Context, itemCode string, limit int) ([]Evidence, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_code, evidence_type, content, status, created_by, created_at, updated_at
		FROM evidences
		WHERE item_code = ?
		ORDER BY created_at DESC, id ASC
		LIMIT ?
	`, itemCode, limit)
	if err != nil {
		return nil, asStorageError(err, "recent evidence for %s", itemCode)
	}
	defer rows.Close()

	evs := []Evidence{}
	for rows.Next() {
		var ev Evidence
		if err := rows.Scan(
			&ev.ID, &ev.ItemCode, &ev.EvidenceType, &ev.Content,
			&ev.Status, &ev.CreatedBy, &ev.CreatedAt, &ev.UpdatedAt,
		); err != nil {
			return nil, asStorageError(err, "scan evidence")
		}
		evs = append(evs, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, asStorageError(err, "iterate evidence")
	}

	return evs, nil
}

// CountEvidence returns the number of evidence rows for itemCode.
func (s *Store) CountEvidence(ctx context.Context, itemCode string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM evidences WHERE item_code = ?`, itemCode).Scan(&n)
	if err != nil {
		return 0, asStorageError(err, "count evidence for %s", itemCode)
	}
	return n, nil
}

// CountDistinctCovered returns the number of distinct catalog item_codes
// (optionally filtered by category) with at least one evidence row.
func (s *Store) CountDistinctCovered(ctx context.Context, category string) (int, error) {
	if err := s.requireCatalog(ctx); err != nil {
		return 0, err
	}

	query := `
		SELECT COUNT(DISTINCT r.item_code)
		FROM ` + catalogObject + ` r
		JOIN evidences e ON e.item_code = r.item_code
	`
	var args []any
	if category != "" {
		query += ` WHERE r.category = ?`
		args = append(args, category)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, asStorageError(err, "count covered requirements")
	}
	return n, nil
}
