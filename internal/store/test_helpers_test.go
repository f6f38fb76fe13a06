package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore opens a fresh store on a temp file.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createSeededStore opens a fresh store and loads the sample catalog.
func createSeededStore(t *testing.T) *Store {
	t.Helper()
	s := createTestStore(t)
	if _, err := s.Seed(context.Background()); err != nil {
		t.Fatalf("Seed() failed: %v", err)
	}
	return s
}

// createCatalogStore opens a fresh store with a canonical catalog table
// holding exactly the given requirements.
func createCatalogStore(t *testing.T, reqs ...Requirement) *Store {
	t.Helper()
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.db.ExecContext(ctx, canonicalTableSQL); err != nil {
		t.Fatalf("create catalog table failed: %v", err)
	}
	for _, req := range reqs {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO isms_requirements
			(item_code, category, title, description, requirement, control_objective)
			VALUES (?, ?, ?, ?, ?, ?)
		`, req.ItemCode, req.Category, req.Title, req.Description,
			req.RequirementText, req.ControlObjective)
		if err != nil {
			t.Fatalf("insert requirement %s failed: %v", req.ItemCode, err)
		}
	}
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() failed: %v", err)
	}
	return s
}

// createAlternateStore opens a fresh store holding the alternate
// controls/control_sections pair instead of the canonical catalog.
func createAlternateStore(t *testing.T) *Store {
	t.Helper()
	s := createTestStore(t)
	ctx := context.Background()

	stmts := []string{
		`CREATE TABLE controls (
			control_id TEXT PRIMARY KEY,
			name       TEXT NOT NULL
		)`,
		`CREATE TABLE control_sections (
			control_id TEXT NOT NULL,
			label      TEXT NOT NULL,
			body       TEXT NOT NULL,
			PRIMARY KEY (control_id, label)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("create alternate schema failed: %v", err)
		}
	}
	return s
}

// insertControl adds one control with labeled sections to an alternate
// store.
func insertControl(t *testing.T, s *Store, id, name string, sections map[string]string) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO controls (control_id, name) VALUES (?, ?)`, id, name); err != nil {
		t.Fatalf("insert control %s failed: %v", id, err)
	}
	for label, body := range sections {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO control_sections (control_id, label, body) VALUES (?, ?, ?)`,
			id, label, body)
		if err != nil {
			t.Fatalf("insert section %s/%s failed: %v", id, label, err)
		}
	}
}
