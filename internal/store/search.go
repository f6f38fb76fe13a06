package store

import (
	"context"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Trigram FTS can only match substrings of at least three characters;
// shorter keywords take the scan path.
const ftsMinRunes = 3

// SearchRequirements returns catalog entries where keyword is a
// case-insensitive substring of the title, description, requirement
// text or category, ordered by item_code ascending. There is no
// relevance ranking; an empty result set is a valid answer.
//
// When the trigram index is available (canonical table) and the keyword
// is long enough for trigram matching, the index serves the query.
// Otherwise the catalog is scanned with Unicode case folding — the
// catalog is small reference data, so the scan stays cheap.
func (s *Store) SearchRequirements(ctx context.Context, keyword string) ([]Requirement, error) {
	kw := strings.TrimSpace(keyword)
	if kw == "" {
		return nil, NewValidationError("keyword is required")
	}

	if err := s.requireCatalog(ctx); err != nil {
		return nil, err
	}

	if s.capability() == CapCanonicalTable && utf8.RuneCountInString(kw) >= ftsMinRunes {
		return s.searchIndexed(ctx, kw)
	}
	return s.searchScan(ctx, kw)
}

// searchIndexed answers a search via the trigram FTS shadow.
func (s *Store) searchIndexed(ctx context.Context, keyword string) ([]Requirement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+requirementColumns+`
		FROM `+catalogObject+`
		WHERE item_code IN (
			SELECT item_code FROM requirements_fts WHERE requirements_fts MATCH ?
		)
		ORDER BY item_code ASC
	`, ftsQuery(keyword))
	if err != nil {
		return nil, asStorageError(err, "search requirements (indexed)")
	}
	defer rows.Close()

	return collectRequirements(rows)
}

// ftsQuery quotes the keyword so FTS treats it as one literal string
// rather than query syntax.
func ftsQuery(keyword string) string {
	return `"` + strings.ReplaceAll(keyword, `"`, `""`) + `"`
}

// searchScan answers a search by folding and scanning the catalog.
func (s *Store) searchScan(ctx context.Context, keyword string) ([]Requirement, error) {
	reqs, err := s.ListRequirements(ctx, "")
	if err != nil {
		return nil, err
	}

	folder := cases.Fold()
	needle := folder.String(keyword)

	matches := []Requirement{}
	for _, req := range reqs {
		haystack := strings.Join([]string{
			req.Title, req.Description, req.RequirementText, req.Category,
		}, " ")
		if strings.Contains(folder.String(haystack), needle) {
			matches = append(matches, req)
		}
	}
	return matches, nil
}
