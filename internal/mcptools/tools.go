// Package mcptools exposes the audit operations as MCP tools. Each tool
// is a thin adapter: parse arguments, dispatch the typed request, render
// the outcome as text. No business logic lives here.
package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/auditkit/ismsp/internal/dispatch"
	"github.com/auditkit/ismsp/internal/render"
	"github.com/auditkit/ismsp/internal/store"
)

// toolError maps a dispatch failure onto an MCP tool error result. The
// store error kinds are part of the message, so clients can still
// distinguish validation from not-found.
func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

// SearchTool finds requirements by keyword.
type SearchTool struct {
	d *dispatch.Dispatcher
}

func NewSearchTool(d *dispatch.Dispatcher) *SearchTool {
	return &SearchTool{d: d}
}

func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("search_requirements",
		mcp.WithDescription("Search ISMS-P certification requirements by keyword. "+
			"Matches against title, description, requirement text and category."),
		mcp.WithString("keyword",
			mcp.Required(),
			mcp.Description("Keyword to search for (e.g. 암호, 접근통제, log)"),
		),
	)
}

func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keyword := req.GetString("keyword", "")

	out, err := t.d.Do(ctx, dispatch.SearchRequirements{Keyword: keyword})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(render.SearchResults(keyword, out.Matches)), nil
}

// DetailTool fetches one requirement with its recent evidence.
type DetailTool struct {
	d *dispatch.Dispatcher
}

func NewDetailTool(d *dispatch.Dispatcher) *DetailTool {
	return &DetailTool{d: d}
}

func (t *DetailTool) Definition() mcp.Tool {
	return mcp.NewTool("get_requirement_detail",
		mcp.WithDescription("Get the full text of one ISMS-P requirement plus its "+
			"most recent evidence records."),
		mcp.WithString("item_code",
			mcp.Required(),
			mcp.Description("Requirement item code (e.g. 1.1.1, 2.7.1)"),
		),
	)
}

func (t *DetailTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	itemCode := req.GetString("item_code", "")

	out, err := t.d.Do(ctx, dispatch.GetRequirementDetail{ItemCode: itemCode})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(render.Detail(*out.Detail)), nil
}

// EvidenceTool records a compliance evidence entry.
type EvidenceTool struct {
	d *dispatch.Dispatcher
}

func NewEvidenceTool(d *dispatch.Dispatcher) *EvidenceTool {
	return &EvidenceTool{d: d}
}

func (t *EvidenceTool) Definition() mcp.Tool {
	return mcp.NewTool("generate_evidence",
		mcp.WithDescription("Record a compliance evidence entry for a requirement. "+
			"The entry is append-only and stored with status 'completed'."),
		mcp.WithString("item_code",
			mcp.Required(),
			mcp.Description("Requirement item code the evidence belongs to"),
		),
		mcp.WithString("evidence_type",
			mcp.Required(),
			mcp.Description("Kind of evidence (e.g. 정책문서, 스크린샷, 설정값)"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Evidence body text"),
		),
	)
}

func (t *EvidenceTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := t.d.Do(ctx, dispatch.GenerateEvidence{
		ItemCode:     req.GetString("item_code", ""),
		EvidenceType: req.GetString("evidence_type", ""),
		Content:      req.GetString("content", ""),
	})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(render.EvidenceCreated(*out.Evidence)), nil
}

// ComplianceTool reports the current coverage rollup.
type ComplianceTool struct {
	d  *dispatch.Dispatcher
	th store.Thresholds
}

func NewComplianceTool(d *dispatch.Dispatcher, th store.Thresholds) *ComplianceTool {
	return &ComplianceTool{d: d, th: th}
}

func (t *ComplianceTool) Definition() mcp.Tool {
	return mcp.NewTool("check_compliance",
		mcp.WithDescription("Check the current compliance coverage: how many "+
			"requirements have at least one evidence record, overall or per category."),
		mcp.WithString("category",
			mcp.Description("Optional category to scope the check to (exact match)"),
		),
	)
}

func (t *ComplianceTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := t.d.Do(ctx, dispatch.CheckCompliance{
		Category: req.GetString("category", ""),
	})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(render.ComplianceBoard(*out.Compliance, t.th)), nil
}

// ReportTool builds the windowed audit report.
type ReportTool struct {
	d *dispatch.Dispatcher
}

func NewReportTool(d *dispatch.Dispatcher) *ReportTool {
	return &ReportTool{d: d}
}

func (t *ReportTool) Definition() mcp.Tool {
	return mcp.NewTool("create_audit_report",
		mcp.WithDescription("Create an audit report over evidence recorded in a "+
			"date window. Dates are inclusive YYYY-MM-DD; both are optional."),
		mcp.WithString("start_date",
			mcp.Description("Window start (YYYY-MM-DD, default 2020-01-01)"),
		),
		mcp.WithString("end_date",
			mcp.Description("Window end (YYYY-MM-DD, default today)"),
		),
	)
}

func (t *ReportTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := t.d.Do(ctx, dispatch.CreateAuditReport{
		StartDate: req.GetString("start_date", ""),
		EndDate:   req.GetString("end_date", ""),
	})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(render.AuditReport(*out.Report)), nil
}
