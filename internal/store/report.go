package store

import (
	"context"
	"time"
)

// reportEpoch is the default window start when the caller omits one:
// early enough to cover any evidence this system has ever written.
const reportEpoch = "2020-01-01"

const dateLayout = "2006-01-02"

// BuildAuditReport aggregates evidence whose created_at date falls within
// [startDate, endDate] inclusive, joined against the catalog. Dates are
// YYYY-MM-DD strings; an empty startDate defaults to the report epoch and
// an empty endDate to today. Timestamps are ISO-ordered, so comparing the
// date prefix of created_at is sufficient.
func (s *Store) BuildAuditReport(ctx context.Context, startDate, endDate string, th Thresholds) (Report, error) {
	if startDate == "" {
		startDate = reportEpoch
	}
	if endDate == "" {
		endDate = time.Now().Format(dateLayout)
	}
	if _, err := time.Parse(dateLayout, startDate); err != nil {
		return Report{}, NewValidationError("start_date %q is not a YYYY-MM-DD date", startDate)
	}
	if _, err := time.Parse(dateLayout, endDate); err != nil {
		return Report{}, NewValidationError("end_date %q is not a YYYY-MM-DD date", endDate)
	}

	total, err := s.CountRequirements(ctx, "")
	if err != nil {
		return Report{}, err
	}

	var covered, evidenceCount int
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT e.item_code), COUNT(*)
		FROM evidences e
		JOIN `+catalogObject+` r ON r.item_code = e.item_code
		WHERE substr(e.created_at, 1, 10) BETWEEN ? AND ?
	`, startDate, endDate).Scan(&covered, &evidenceCount)
	if err != nil {
		return Report{}, asStorageError(err, "windowed evidence counts")
	}

	perCategory, err := s.windowedCategoryCounts(ctx, startDate, endDate)
	if err != nil {
		return Report{}, err
	}

	rate := rateOf(covered, total)
	return Report{
		StartDate:         startDate,
		EndDate:           endDate,
		TotalRequirements: total,
		CoveredInWindow:   covered,
		EvidenceInWindow:  evidenceCount,
		Rate:              rate,
		PerCategory:       perCategory,
		Recommendation:    th.Tier(rate),
	}, nil
}

// windowedCategoryCounts returns, per category, the number of distinct
// covered item_codes within the window, ordered by category ascending.
func (s *Store) windowedCategoryCounts(ctx context.Context, startDate, endDate string) ([]CategoryCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(r.category, ''), COUNT(DISTINCT e.item_code)
		FROM evidences e
		JOIN `+catalogObject+` r ON r.item_code = e.item_code
		WHERE substr(e.created_at, 1, 10) BETWEEN ? AND ?
		GROUP BY COALESCE(r.category, '')
		ORDER BY COALESCE(r.category, '') ASC
	`, startDate, endDate)
	if err != nil {
		return nil, asStorageError(err, "windowed category counts")
	}
	defer rows.Close()

	counts := []CategoryCount{}
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Covered); err != nil {
			return nil, asStorageError(err, "scan category count")
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, asStorageError(err, "iterate category counts")
	}

	return counts, nil
}
