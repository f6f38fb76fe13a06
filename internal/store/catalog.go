package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// requirementColumns is the canonical projection every catalog read uses.
// COALESCE keeps nullable text fields as empty strings; control_objective
// is NULL by construction when the compat view backs the catalog.
const requirementColumns = `
	item_code,
	COALESCE(category, ''),
	title,
	COALESCE(description, ''),
	COALESCE(requirement, ''),
	COALESCE(control_objective, '')
`

// GetRequirement returns the catalog entry for item_code.
// Fails with a not-found error for unknown codes.
func (s *Store) GetRequirement(ctx context.Context, itemCode string) (Requirement, error) {
	if err := s.requireCatalog(ctx); err != nil {
		return Requirement{}, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+requirementColumns+`
		FROM `+catalogObject+`
		WHERE item_code = ?
	`, itemCode)

	req, err := scanRequirement(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Requirement{}, NewNotFoundError("requirement %q not found", itemCode)
		}
		return Requirement{}, asStorageError(err, "get requirement %s", itemCode)
	}
	return req, nil
}

// ListRequirements returns catalog entries ordered by item_code
// ascending (lexicographic on the dotted string, matching the catalog's
// own code format). An empty category returns the whole catalog.
func (s *Store) ListRequirements(ctx context.Context, category string) ([]Requirement, error) {
	if err := s.requireCatalog(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + requirementColumns + ` FROM ` + catalogObject
	var args []any
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY item_code ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, asStorageError(err, "list requirements")
	}
	defer rows.Close()

	return collectRequirements(rows)
}

// collectRequirements drains rows into a slice, returning an empty slice
// (not nil) for empty result sets.
func collectRequirements(rows *sql.Rows) ([]Requirement, error) {
	reqs := []Requirement{}
	for rows.Next() {
		req, err := scanRequirement(rows.Scan)
		if err != nil {
			return nil, asStorageError(err, "scan requirement")
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, asStorageError(err, "iterate requirements")
	}
	return reqs, nil
}

// scanRequirement scans the canonical projection into a Requirement.
func scanRequirement(scan func(dest ...any) error) (Requirement, error) {
	var req Requirement
	err := scan(
		&req.ItemCode, &req.Category, &req.Title,
		&req.Description, &req.RequirementText, &req.ControlObjective,
	)
	if err != nil {
		return Requirement{}, fmt.Errorf("scan requirement: %w", err)
	}
	return req, nil
}

// ChapterCount pairs a top-level chapter prefix ("1", "2", "3") with
// the number of requirements under it.
type ChapterCount struct {
	Chapter string
	Count   int
}

// CountByChapter groups the catalog by the item_code's chapter prefix
// (the part before the first dot), ordered by chapter ascending.
func (s *Store) CountByChapter(ctx context.Context) ([]ChapterCount, error) {
	if err := s.requireCatalog(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT
			CASE
				WHEN instr(item_code, '.') = 0 THEN item_code
				ELSE substr(item_code, 1, instr(item_code, '.') - 1)
			END AS chapter,
			COUNT(*)
		FROM `+catalogObject+`
		GROUP BY chapter
		ORDER BY chapter ASC
	`)
	if err != nil {
		return nil, asStorageError(err, "count by chapter")
	}
	defer rows.Close()

	counts := []ChapterCount{}
	for rows.Next() {
		var c ChapterCount
		if err := rows.Scan(&c.Chapter, &c.Count); err != nil {
			return nil, asStorageError(err, "scan chapter count")
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, asStorageError(err, "iterate chapter counts")
	}
	return counts, nil
}

// CountRequirements returns the catalog size, optionally filtered by
// category.
func (s *Store) CountRequirements(ctx context.Context, category string) (int, error) {
	if err := s.requireCatalog(ctx); err != nil {
		return 0, err
	}

	query := `SELECT COUNT(*) FROM ` + catalogObject
	var args []any
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, asStorageError(err, "count requirements")
	}
	return n, nil
}
