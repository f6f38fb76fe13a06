package mcptools

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditkit/ismsp/internal/dispatch"
	"github.com/auditkit/ismsp/internal/store"
)

func newTestDispatcher(t *testing.T) *dispatch.Dispatcher {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.Seed(context.Background())
	require.NoError(t, err)

	d := dispatch.New(s, store.DefaultThresholds(), 2)
	t.Cleanup(d.Close)
	return d
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text payload of a tool result.
func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok, "expected text content")
	return tc.Text
}

func TestSearchTool(t *testing.T) {
	tool := NewSearchTool(newTestDispatcher(t))

	res, err := tool.Handle(context.Background(), callRequest(map[string]any{
		"keyword": "암호",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	text := resultText(t, res)
	assert.Contains(t, text, "2.7.1")
	assert.Contains(t, text, "3.2.2")
}

func TestSearchTool_MissingKeyword(t *testing.T) {
	tool := NewSearchTool(newTestDispatcher(t))

	res, err := tool.Handle(context.Background(), callRequest(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "VALIDATION")
}

func TestDetailTool(t *testing.T) {
	tool := NewDetailTool(newTestDispatcher(t))

	res, err := tool.Handle(context.Background(), callRequest(map[string]any{
		"item_code": "1.1.1",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "정책 수립")
}

func TestDetailTool_UnknownCode(t *testing.T) {
	tool := NewDetailTool(newTestDispatcher(t))

	res, err := tool.Handle(context.Background(), callRequest(map[string]any{
		"item_code": "9.9.9",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "NOT_FOUND")
}

func TestEvidenceAndComplianceTools(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	evTool := NewEvidenceTool(d)
	res, err := evTool.Handle(ctx, callRequest(map[string]any{
		"item_code":     "2.7.1",
		"evidence_type": "정책문서",
		"content":       "암호정책서 v1.0 제정",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Evidence #1 recorded")

	compTool := NewComplianceTool(d, store.DefaultThresholds())
	res, err = compTool.Handle(ctx, callRequest(map[string]any{
		"category": "암호화 적용",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	text := resultText(t, res)
	assert.Contains(t, text, "[OK]")
	assert.Contains(t, text, "1 of 1")
}

func TestReportTool(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	evTool := NewEvidenceTool(d)
	_, err := evTool.Handle(ctx, callRequest(map[string]any{
		"item_code":     "1.1.1",
		"evidence_type": "문서",
		"content":       "정책서",
	}))
	require.NoError(t, err)

	tool := NewReportTool(d)
	res, err := tool.Handle(ctx, callRequest(nil))
	require.NoError(t, err)
	require.False(t, res.IsError)

	text := resultText(t, res)
	assert.Contains(t, text, "Audit report:")
	assert.Contains(t, text, "Covered in window: 1")
}

func TestReportTool_BadDate(t *testing.T) {
	tool := NewReportTool(newTestDispatcher(t))

	res, err := tool.Handle(context.Background(), callRequest(map[string]any{
		"start_date": "last tuesday",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "VALIDATION")
}

func TestNew_RegistersAllTools(t *testing.T) {
	d := newTestDispatcher(t)
	s := New(d, store.DefaultThresholds(), "test")
	require.NotNil(t, s)
}

func TestToolDefinitions(t *testing.T) {
	d := newTestDispatcher(t)

	defs := []mcp.Tool{
		NewSearchTool(d).Definition(),
		NewDetailTool(d).Definition(),
		NewEvidenceTool(d).Definition(),
		NewComplianceTool(d, store.DefaultThresholds()).Definition(),
		NewReportTool(d).Definition(),
	}

	names := map[string]bool{}
	for _, def := range defs {
		assert.NotEmpty(t, def.Description, "tool %s has no description", def.Name)
		assert.False(t, names[def.Name], "duplicate tool name %s", def.Name)
		names[def.Name] = true
	}
	for _, want := range []string{
		"search_requirements", "get_requirement_detail", "generate_evidence",
		"check_compliance", "create_audit_report",
	} {
		assert.True(t, names[want], "missing tool %s (have %s)",
			want, strings.Join(keys(names), ", "))
	}
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
