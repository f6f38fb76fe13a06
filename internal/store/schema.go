package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// Capability names the physical shape the requirement catalog was found
// in. Probes run in fixed priority order and the result is cached for
// the lifetime of the store handle (adaptation is deterministic, so a
// failed probe is not retried).
type Capability int

const (
	// CapUnknown means EnsureSchema has not probed yet.
	CapUnknown Capability = iota

	// CapMissing means no usable requirement source was found.
	// Catalog operations fail with a schema-missing error.
	CapMissing

	// CapCanonicalTable means isms_requirements exists as a real table.
	// The search index shadow is maintainable via triggers.
	CapCanonicalTable

	// CapCompatView means isms_requirements is a read-only view, either
	// synthesized here over the alternate controls/control_sections pair
	// or provided by the caller. No triggers can hang off a view, so the
	// search index is unavailable and search falls back to scanning.
	CapCompatView
)

func (c Capability) String() string {
	switch c {
	case CapMissing:
		return "missing"
	case CapCanonicalTable:
		return "canonical_table"
	case CapCompatView:
		return "compat_view"
	default:
		return "unknown"
	}
}

// catalogObject is the canonical name every read path queries,
// regardless of which physical shape backs it.
const catalogObject = "isms_requirements"

// compatViewSQL synthesizes the canonical shape over the alternate
// normalized pair: a controls table keyed by control_id plus a
// control_sections table holding labeled text blocks per control.
//
// control_objective has no counterpart in the alternate shape and stays
// NULL; it is never inferred.
const compatViewSQL = `
CREATE VIEW ` + catalogObject + ` AS
SELECT
    c.control_id AS item_code,
    CASE
        WHEN instr(c.control_id, '.') = 0 THEN c.control_id
        ELSE substr(c.control_id, 1, instr(c.control_id, '.') - 1)
    END AS category,
    c.name AS title,
    COALESCE(
        (SELECT s.body FROM control_sections s
         WHERE s.control_id = c.control_id AND s.label = 'detailed_explanation'),
        (SELECT s.body FROM control_sections s
         WHERE s.control_id = c.control_id AND s.label = 'key_checks')
    ) AS description,
    (SELECT s.body FROM control_sections s
     WHERE s.control_id = c.control_id AND s.label = 'certification_criteria') AS requirement,
    NULL AS control_objective
FROM controls c
`

// searchIndexSQL creates the trigram FTS5 shadow of the catalog plus the
// triggers that keep it synchronized. Triggers run inside the same
// transaction as the base-table write, so index maintenance commits or
// rolls back with the write it mirrors.
const searchIndexSQL = `
CREATE VIRTUAL TABLE IF NOT EXISTS requirements_fts USING fts5(
    item_code UNINDEXED,
    haystack,
    tokenize = 'trigram'
);

CREATE TRIGGER IF NOT EXISTS requirements_fts_ai
AFTER INSERT ON ` + catalogObject + `
BEGIN
    INSERT INTO requirements_fts(item_code, haystack)
    VALUES (NEW.item_code, NEW.title || ' ' || COALESCE(NEW.description, '')
        || ' ' || COALESCE(NEW.requirement, '') || ' ' || COALESCE(NEW.category, ''));
END;

CREATE TRIGGER IF NOT EXISTS requirements_fts_ad
AFTER DELETE ON ` + catalogObject + `
BEGIN
    DELETE FROM requirements_fts WHERE item_code = OLD.item_code;
END;

CREATE TRIGGER IF NOT EXISTS requirements_fts_au
AFTER UPDATE ON ` + catalogObject + `
BEGIN
    DELETE FROM requirements_fts WHERE item_code = OLD.item_code;
    INSERT INTO requirements_fts(item_code, haystack)
    VALUES (NEW.item_code, NEW.title || ' ' || COALESCE(NEW.description, '')
        || ' ' || COALESCE(NEW.requirement, '') || ' ' || COALESCE(NEW.category, ''));
END;
`

// EnsureSchema guarantees the canonical catalog shape is queryable when
// any known physical shape is present. Idempotent and cheap after the
// first call; safe to call on every request.
//
// Probe order:
//  1. isms_requirements exists (table or view) with the canonical columns
//  2. the alternate controls/control_sections pair exists: synthesize the
//     compatibility view
//  3. nothing usable: log a warning, leave the store untouched, and let
//     subsequent catalog calls fail with a schema-missing error
//
// All creation is check-then-create; repeated calls never duplicate or
// replace caller-provided objects.
func (s *Store) EnsureSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cap != CapUnknown {
		return nil
	}

	cap, err := s.probeSchema(ctx)
	if err != nil {
		return asStorageError(err, "schema probe")
	}

	if cap == CapCanonicalTable {
		if err := s.ensureSearchIndex(ctx); err != nil {
			return asStorageError(err, "ensure search index")
		}
	}

	if cap == CapMissing {
		slog.Warn("no requirement catalog found; catalog operations will fail until one is provisioned",
			"object", catalogObject)
	} else {
		slog.Debug("requirement catalog ready", "capability", cap.String())
	}

	s.cap = cap
	return nil
}

// probeSchema runs the capability probes in priority order.
func (s *Store) probeSchema(ctx context.Context) (Capability, error) {
	typ, err := s.objectType(ctx, catalogObject)
	if err != nil {
		return CapUnknown, err
	}

	switch typ {
	case "table", "view":
		ok, err := s.hasCanonicalColumns(ctx)
		if err != nil {
			return CapUnknown, err
		}
		if ok {
			if typ == "table" {
				return CapCanonicalTable, nil
			}
			return CapCompatView, nil
		}
		// An object with the canonical name but the wrong shape is not
		// ours to fix; fall through to the alternate probe.
	}

	controls, err := s.objectType(ctx, "controls")
	if err != nil {
		return CapUnknown, err
	}
	sections, err := s.objectType(ctx, "control_sections")
	if err != nil {
		return CapUnknown, err
	}
	if controls == "table" && sections == "table" && typ == "" {
		if _, err := s.db.ExecContext(ctx, compatViewSQL); err != nil {
			return CapUnknown, fmt.Errorf("create compatibility view: %w", err)
		}
		slog.Info("synthesized requirement compatibility view",
			"object", catalogObject, "source", "controls/control_sections")
		return CapCompatView, nil
	}

	return CapMissing, nil
}

// objectType returns the sqlite_master type ("table", "view") for name,
// or "" when no such object exists.
func (s *Store) objectType(ctx context.Context, name string) (string, error) {
	var typ string
	err := s.db.QueryRowContext(ctx,
		`SELECT type FROM sqlite_master WHERE name = ?`, name).Scan(&typ)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("probe %s: %w", name, err)
	}
	return typ, nil
}

// hasCanonicalColumns checks that the catalog object exposes the columns
// every read path depends on.
func (s *Store) hasCanonicalColumns(ctx context.Context) (bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, catalogObject)
	if err != nil {
		return false, fmt.Errorf("inspect %s columns: %w", catalogObject, err)
	}
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, fmt.Errorf("scan column name: %w", err)
		}
		found[name] = true
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("iterate columns: %w", err)
	}

	for _, col := range []string{"item_code", "category", "title", "description", "requirement"} {
		if !found[col] {
			return false, nil
		}
	}
	return true, nil
}

// ensureSearchIndex creates the FTS shadow and its triggers, then
// backfills it when its row count has drifted from the base table
// (e.g. a database whose rows predate the index).
func (s *Store) ensureSearchIndex(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, searchIndexSQL); err != nil {
		return fmt.Errorf("create search index: %w", err)
	}

	var base, shadow int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+catalogObject).Scan(&base); err != nil {
		return fmt.Errorf("count catalog rows: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM requirements_fts`).Scan(&shadow); err != nil {
		return fmt.Errorf("count index rows: %w", err)
	}
	if base == shadow {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("rebuild search index: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM requirements_fts`); err != nil {
		return fmt.Errorf("rebuild search index: clear: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO requirements_fts(item_code, haystack)
		SELECT item_code, title || ' ' || COALESCE(description, '')
		    || ' ' || COALESCE(requirement, '') || ' ' || COALESCE(category, '')
		FROM `+catalogObject)
	if err != nil {
		return fmt.Errorf("rebuild search index: backfill: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("rebuild search index: commit: %w", err)
	}

	slog.Info("rebuilt search index", "rows", base)
	return nil
}

// capability returns the cached probe result.
func (s *Store) capability() Capability {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cap
}

// resetSchemaCache forces the next EnsureSchema call to re-probe.
// Called after provisioning changes the physical shape (see Seed).
func (s *Store) resetSchemaCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cap = CapUnknown
}

// requireCatalog ensures the schema has been probed and a requirement
// source exists. Every catalog-touching operation calls this first.
func (s *Store) requireCatalog(ctx context.Context) error {
	if err := s.EnsureSchema(ctx); err != nil {
		return err
	}
	if s.capability() == CapMissing {
		return NewSchemaMissingError(
			"no requirement catalog: provision %s or a controls/control_sections pair", catalogObject)
	}
	return nil
}
