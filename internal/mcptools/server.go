package mcptools

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/auditkit/ismsp/internal/dispatch"
	"github.com/auditkit/ismsp/internal/store"
)

// New builds the MCP server with all audit tools registered. This is
// the composition root for the tool layer; the dispatcher and its store
// are owned by the caller.
func New(d *dispatch.Dispatcher, th store.Thresholds, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"isms-p-audit",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	searchTool := NewSearchTool(d)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	detailTool := NewDetailTool(d)
	s.AddTool(detailTool.Definition(), detailTool.Handle)

	evidenceTool := NewEvidenceTool(d)
	s.AddTool(evidenceTool.Definition(), evidenceTool.Handle)

	complianceTool := NewComplianceTool(d, th)
	s.AddTool(complianceTool.Definition(), complianceTool.Handle)

	reportTool := NewReportTool(d)
	s.AddTool(reportTool.Definition(), reportTool.Handle)

	return s
}
