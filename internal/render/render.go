// Package render turns operation outcomes into the plain-text blocks
// served to clients. Output is deterministic: same input, same bytes.
package render

import (
	"fmt"
	"strings"

	"github.com/auditkit/ismsp/internal/dispatch"
	"github.com/auditkit/ismsp/internal/store"
)

// tierGlyph maps a compliance tier to its status marker.
func tierGlyph(tier string) string {
	switch tier {
	case store.TierOK:
		return "[OK]"
	case store.TierWarn:
		return "[WARN]"
	default:
		return "[FAIL]"
	}
}

// SearchResults lists the catalog entries matching a keyword.
func SearchResults(keyword string, matches []store.Requirement) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search results for %q: %d requirement(s)\n", keyword, len(matches))
	if len(matches) == 0 {
		b.WriteString("\nNo requirements matched.\n")
		return b.String()
	}
	for _, req := range matches {
		fmt.Fprintf(&b, "\n[%s] %s\n", req.ItemCode, req.Title)
		fmt.Fprintf(&b, "  Category: %s\n", req.Category)
		if req.Description != "" {
			fmt.Fprintf(&b, "  %s\n", req.Description)
		}
	}
	return b.String()
}

// Detail renders one requirement with its recent evidence trail.
func Detail(d dispatch.RequirementDetail) string {
	var b strings.Builder
	req := d.Requirement
	fmt.Fprintf(&b, "[%s] %s\n", req.ItemCode, req.Title)
	fmt.Fprintf(&b, "Category: %s\n", req.Category)
	if req.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", req.Description)
	}
	if req.RequirementText != "" {
		fmt.Fprintf(&b, "Requirement: %s\n", req.RequirementText)
	}
	if req.ControlObjective != "" {
		fmt.Fprintf(&b, "Control objective: %s\n", req.ControlObjective)
	}

	if len(d.Evidence) == 0 {
		b.WriteString("\nNo evidence recorded.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "\nRecent evidence (%d shown):\n", len(d.Evidence))
	for _, ev := range d.Evidence {
		fmt.Fprintf(&b, "  #%d %s [%s] %s: %s\n",
			ev.ID, ev.CreatedAt, ev.Status, ev.EvidenceType, ev.Content)
	}
	return b.String()
}

// EvidenceCreated confirms an evidence append.
func EvidenceCreated(g dispatch.GeneratedEvidence) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Evidence #%d recorded for [%s] %s\n",
		g.ID, g.Requirement.ItemCode, g.Requirement.Title)
	fmt.Fprintf(&b, "  Type:    %s\n", g.Evidence.EvidenceType)
	fmt.Fprintf(&b, "  Status:  %s\n", g.Evidence.Status)
	fmt.Fprintf(&b, "  Content: %s\n", g.Evidence.Content)
	fmt.Fprintf(&b, "  Created: %s\n", g.Evidence.CreatedAt)
	return b.String()
}

// ComplianceBoard renders the coverage rollup with a status glyph per
// line. Thresholds decide the glyph for each category row.
func ComplianceBoard(c dispatch.ComplianceStatus, th store.Thresholds) string {
	var b strings.Builder
	scope := c.Overall.Category
	if scope == "" {
		scope = "all categories"
	}
	fmt.Fprintf(&b, "Compliance status (%s)\n", scope)
	fmt.Fprintf(&b, "%s %.1f%%: %d of %d requirements covered\n",
		tierGlyph(c.Tier), c.Overall.Rate, c.Overall.Covered, c.Overall.Total)

	if len(c.Categories) > 0 {
		b.WriteString("\nBy category:\n")
		for _, cat := range c.Categories {
			fmt.Fprintf(&b, "  %s %5.1f%% (%d/%d) %s\n",
				tierGlyph(th.Tier(cat.Rate)), cat.Rate, cat.Covered, cat.Total, cat.Category)
		}
	}
	return b.String()
}

// AuditReport renders the windowed evidence report.
func AuditReport(r store.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Audit report: %s to %s\n", r.StartDate, r.EndDate)
	fmt.Fprintf(&b, "Requirements:      %d\n", r.TotalRequirements)
	fmt.Fprintf(&b, "Covered in window: %d\n", r.CoveredInWindow)
	fmt.Fprintf(&b, "Evidence records:  %d\n", r.EvidenceInWindow)
	fmt.Fprintf(&b, "Compliance rate:   %.1f%%\n", r.Rate)

	if len(r.PerCategory) > 0 {
		b.WriteString("\nCovered by category:\n")
		for _, cat := range r.PerCategory {
			fmt.Fprintf(&b, "  %d  %s\n", cat.Covered, cat.Category)
		}
	}

	b.WriteString("\nRecommendation: ")
	switch r.Recommendation {
	case store.TierOK:
		b.WriteString("coverage meets the target; keep evidence current.\n")
	case store.TierWarn:
		b.WriteString("coverage is below target; prioritize uncovered requirements.\n")
	default:
		b.WriteString("coverage is critically low; schedule a remediation plan.\n")
	}
	return b.String()
}
