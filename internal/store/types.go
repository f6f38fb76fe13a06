package store

// Requirement is one checklist control item from the ISMS-P catalog.
// Catalog rows are reference data: loaded at provisioning time and
// rarely mutated afterwards. ItemCode is the identifier every other
// entity references and is never reassigned.
type Requirement struct {
	ItemCode        string
	Category        string
	Title           string
	Description     string
	RequirementText string

	// ControlObjective is empty when the catalog was synthesized from the
	// alternate controls/control_sections shape, which carries no mapping
	// for it. It is never inferred.
	ControlObjective string
}

// Evidence statuses. Programmatic inserts commit with StatusCompleted;
// the DDL default stays StatusPending for rows created by outside tooling.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusRejected  = "rejected"
)

// Evidence is a timestamped claim that a requirement is satisfied.
// Rows are append-only: the core never updates or deletes them.
// Timestamps are the ISO strings SQLite stores, so ordering and
// date-window comparisons work on the string form directly.
type Evidence struct {
	ID           int64
	ItemCode     string
	EvidenceType string
	Content      string
	Status       string
	CreatedBy    string
	CreatedAt    string
	UpdatedAt    string
}

// Coverage is a derived compliance rollup. It is recomputed on every
// aggregation call and never cached.
type Coverage struct {
	// Category is empty for the overall (unfiltered) rollup.
	Category string
	Total    int
	Covered  int
	// Rate is covered/total*100 rounded to one decimal, 0.0 when Total is 0.
	Rate float64
}

// CategoryCount is one per-category line of an audit report.
type CategoryCount struct {
	Category string
	Covered  int
}

// Report is a time-windowed aggregation of evidence against the catalog.
type Report struct {
	StartDate         string
	EndDate           string
	TotalRequirements int
	CoveredInWindow   int
	EvidenceInWindow  int
	Rate              float64
	PerCategory       []CategoryCount
	// Recommendation is the tier derived from Rate: "ok", "warn" or "fail".
	Recommendation string
}
