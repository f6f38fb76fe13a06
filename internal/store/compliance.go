package store

import (
	"context"
	"math"
)

// Compliance tiers for callers that render a status glyph.
const (
	TierOK   = "ok"
	TierWarn = "warn"
	TierFail = "fail"
)

// Thresholds are the tier cut-offs as percentages. They are
// configuration, not aggregator contract; DefaultThresholds gives the
// stated defaults.
type Thresholds struct {
	OK   float64
	Warn float64
}

// DefaultThresholds returns the standard cut-offs: ok at 80%, warn at 50%.
func DefaultThresholds() Thresholds {
	return Thresholds{OK: 80, Warn: 50}
}

// Tier maps a compliance rate to its tier.
func (t Thresholds) Tier(rate float64) string {
	switch {
	case rate >= t.OK:
		return TierOK
	case rate >= t.Warn:
		return TierWarn
	default:
		return TierFail
	}
}

// rateOf computes covered/total*100 rounded to one decimal, guarding
// the empty catalog.
func rateOf(covered, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return math.Round(float64(covered)/float64(total)*1000) / 10
}

// OverallCompliance computes the coverage rollup, optionally filtered by
// category. Counts are recomputed from the store on every call — never
// cached — so the result is consistent with the latest committed write.
func (s *Store) OverallCompliance(ctx context.Context, category string) (Coverage, error) {
	total, err := s.CountRequirements(ctx, category)
	if err != nil {
		return Coverage{}, err
	}
	covered, err := s.CountDistinctCovered(ctx, category)
	if err != nil {
		return Coverage{}, err
	}

	return Coverage{
		Category: category,
		Total:    total,
		Covered:  covered,
		Rate:     rateOf(covered, total),
	}, nil
}

// ComplianceByCategory computes one rollup per category, grouped and
// ordered by category ascending.
func (s *Store) ComplianceByCategory(ctx context.Context) ([]Coverage, error) {
	if err := s.requireCatalog(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT
			COALESCE(r.category, ''),
			COUNT(DISTINCT r.item_code),
			COUNT(DISTINCT CASE WHEN e.id IS NOT NULL THEN r.item_code END)
		FROM `+catalogObject+` r
		LEFT JOIN evidences e ON e.item_code = r.item_code
		GROUP BY COALESCE(r.category, '')
		ORDER BY COALESCE(r.category, '') ASC
	`)
	if err != nil {
		return nil, asStorageError(err, "compliance by category")
	}
	defer rows.Close()

	rollups := []Coverage{}
	for rows.Next() {
		var c Coverage
		if err := rows.Scan(&c.Category, &c.Total, &c.Covered); err != nil {
			return nil, asStorageError(err, "scan category rollup")
		}
		c.Rate = rateOf(c.Covered, c.Total)
		rollups = append(rollups, c)
	}
	if err := rows.Err(); err != nil {
		return nil, asStorageError(err, "iterate category rollups")
	}

	return rollups, nil
}
