package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/borderux/recursica-forge-sub006/pkg/document"
	"github.com/borderux/recursica-forge-sub006/pkg/host"
	"github.com/borderux/recursica-forge-sub006/pkg/mcplog"
)

// --- helpers ---

const testSpec = `{"ui-kit": {
  "global": {"form": {
    "color": {"type": "color", "value": "#111111"},
    "radius": {"type": "dimension", "value": {"value": 2, "unit": "px"}}
  }},
  "components": {
    "button": {
      "color": {"surface": {"type": "color", "value": "{ui-kit.0.global.form.color}"}},
      "padding": {"type": "dimension", "value": {"value": 4, "unit": "px"}}
    },
    "text-field": {
      "outline": {"type": "color", "value": "{ui-kit.global.missing}"}
    }
  }
}}`

func testSet(t *testing.T, spec string) document.Set {
	t.Helper()
	set, err := document.ParseSet([]byte(`{}`), []byte(`{}`), []byte(spec))
	require.NoError(t, err)
	return set
}

type stubSource struct {
	h   *host.Host
	set document.Set
	err error
}

func (s *stubSource) Reload() (host.Update, error) {
	if s.err != nil {
		return host.Update{}, s.err
	}
	return s.h.Recompute(s.set), nil
}

func testServer(t *testing.T) *Server {
	t.Helper()
	h := host.New(host.DefaultConfig(), nil)
	h.Recompute(testSet(t, testSpec))
	return NewServer(h, nil, "", nil)
}

func callTool(t *testing.T, s *Server, req mcp.CallToolRequest) *mcp.CallToolResult {
	t.Helper()
	var handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
	for _, tool := range s.tools() {
		if tool.Tool.Name == req.Params.Name {
			handler = tool.Handler
		}
	}
	if handler == nil {
		t.Fatalf("unknown tool: %s", req.Params.Name)
	}

	result, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func makeRequest(toolName string, args map[string]any) mcp.CallToolRequest {
	var arguments any
	if args != nil {
		arguments = args
	}
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      toolName,
			Arguments: arguments,
		},
	}
}

func resultJSON(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return textContent.Text
}

func decode(t *testing.T, result *mcp.CallToolResult, v any) {
	t.Helper()
	require.False(t, result.IsError, resultJSON(t, result))
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), v))
}

// --- get_status ---

func TestHandleGetStatus(t *testing.T) {
	s := testServer(t)

	var status map[string]any
	decode(t, callTool(t, s, makeRequest("get_status", nil)), &status)
	assert.Equal(t, "light", status["mode"])
	assert.Equal(t, float64(5), status["bindings"])
	assert.Equal(t, []any{"button", "text-field"}, status["components"])
	assert.Equal(t, []any{"recursica-components-text-field-outline"}, status["unresolved"])
	assert.Equal(t, []any{}, status["verbatim"])
	assert.NotEmpty(t, status["digest"])
}

// --- recompute ---

func TestHandleRecompute_NoSource(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("recompute", nil))
	assert.True(t, result.IsError)
}

func TestHandleRecompute(t *testing.T) {
	h := host.New(host.DefaultConfig(), nil)
	h.Recompute(testSet(t, testSpec))

	src := &stubSource{h: h, set: testSet(t, `{"ui-kit": {"global": {"form": {
	  "color": {"type": "color", "value": "#222222"}
	}}}}`)}
	s := NewServer(h, src, "", nil)

	var resp map[string]any
	decode(t, callTool(t, s, makeRequest("recompute", nil)), &resp)
	assert.Equal(t, float64(1), resp["bindings"])
	assert.Equal(t, false, resp["cached"])

	diff := resp["diff"].(map[string]any)
	assert.Equal(t, []any{"recursica-global-form-color"}, diff["changed"])
	assert.Len(t, diff["removed"], 4)

	src.err = errors.New("failed to load documents: boom")
	result := callTool(t, s, makeRequest("recompute", nil))
	assert.True(t, result.IsError)
	assert.Contains(t, resultJSON(t, result), "boom")
}

// --- list_bindings ---

func TestHandleListBindings(t *testing.T) {
	s := testServer(t)

	var resp listBindingsResponse
	decode(t, callTool(t, s, makeRequest("list_bindings", nil)), &resp)
	assert.Equal(t, 5, resp.Total)

	decode(t, callTool(t, s, makeRequest("list_bindings", map[string]any{"group": "components"})), &resp)
	assert.Equal(t, 3, resp.Total)

	decode(t, callTool(t, s, makeRequest("list_bindings", map[string]any{
		"pattern": "recursica-components-button-**",
		"limit":   float64(1),
	})), &resp)
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Bindings, 1)
	assert.Equal(t, "recursica-components-button-color-surface", resp.Bindings[0].Name)
}

func TestHandleListBindings_Empty(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("list_bindings", map[string]any{"keyword": "nothing-matches"}))
	assert.JSONEq(t, `{"total": 0, "bindings": []}`, resultJSON(t, result))
}

func TestHandleListBindings_InvalidPattern(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("list_bindings", map[string]any{"pattern": "recursica-["}))
	assert.True(t, result.IsError)
}

// --- get_binding ---

func TestHandleGetBinding(t *testing.T) {
	s := testServer(t)

	var resp bindingResponse
	decode(t, callTool(t, s, makeRequest("get_binding", map[string]any{"name": "components-button-color-surface"})), &resp)
	require.NotNil(t, resp.Binding)
	assert.Equal(t, "var(--recursica-global-form-color)", resp.Binding.Value)
	assert.Equal(t, []string{"recursica-global-form-color"}, resp.Chain.Steps)
	assert.Equal(t, "#111111", resp.Chain.Value)
	assert.Empty(t, resp.Referrers)

	decode(t, callTool(t, s, makeRequest("get_binding", map[string]any{"name": "var(--recursica-global-form-color)"})), &resp)
	assert.Equal(t, []string{"recursica-components-button-color-surface"}, resp.Referrers)
}

func TestHandleGetBinding_Errors(t *testing.T) {
	s := testServer(t)
	assert.True(t, callTool(t, s, makeRequest("get_binding", map[string]any{"name": "global-nope"})).IsError)
	assert.True(t, callTool(t, s, makeRequest("get_binding", nil)).IsError)
}

// --- components ---

func TestHandleListComponents(t *testing.T) {
	s := testServer(t)

	var comps []componentSummary
	decode(t, callTool(t, s, makeRequest("list_components", nil)), &comps)
	assert.Equal(t, []componentSummary{
		{Name: "button", BindingCount: 2},
		{Name: "text-field", BindingCount: 1},
	}, comps)
}

func TestHandleGetComponentBindings(t *testing.T) {
	s := testServer(t)

	var bs []map[string]any
	decode(t, callTool(t, s, makeRequest("get_component_bindings", map[string]any{"component": "Button"})), &bs)
	assert.Len(t, bs, 2)

	assert.True(t, callTool(t, s, makeRequest("get_component_bindings", map[string]any{"component": "chip"})).IsError)
	assert.True(t, callTool(t, s, makeRequest("get_component_bindings", nil)).IsError)
}

func TestHandleComponentBinding(t *testing.T) {
	s := testServer(t)

	var resp componentBindingResponse
	decode(t, callTool(t, s, makeRequest("component_binding", map[string]any{
		"component": "button",
		"property":  "color.surface",
	})), &resp)
	assert.True(t, resp.Found)
	assert.Equal(t, "recursica-components-button-color-surface", resp.Name)
	assert.NotNil(t, resp.Binding)

	var missing componentBindingResponse
	decode(t, callTool(t, s, makeRequest("component_binding", map[string]any{
		"component": "button",
		"variant":   "variants.styles.solid",
		"state":     "hover",
		"property":  "background",
	})), &missing)
	assert.False(t, missing.Found)
	assert.Nil(t, missing.Binding)
	assert.Equal(t, "recursica-components-button-variants-styles-solid-hover-background", missing.Name)

	assert.True(t, callTool(t, s, makeRequest("component_binding", map[string]any{"component": "button"})).IsError)
}

// --- search_bindings ---

func TestHandleSearchBindings(t *testing.T) {
	s := testServer(t)

	var results []searchResult
	decode(t, callTool(t, s, makeRequest("search_bindings", map[string]any{"query": "radius"})), &results)
	require.Len(t, results, 1)
	assert.Equal(t, "recursica-global-form-radius", results[0].Name)
	assert.Equal(t, "name", results[0].MatchReason)

	decode(t, callTool(t, s, makeRequest("search_bindings", map[string]any{"query": "recursica", "limit": float64(2)})), &results)
	assert.Len(t, results, 2)

	assert.True(t, callTool(t, s, makeRequest("search_bindings", nil)).IsError)
}

// --- audit ---

func TestHandleAudit(t *testing.T) {
	s := testServer(t)

	var report map[string]any
	decode(t, callTool(t, s, makeRequest("audit", nil)), &report)
	assert.Equal(t, false, report["valid"])
	assert.Equal(t, float64(5), report["checked"])

	findings := report["findings"].([]any)
	require.NotEmpty(t, findings)
	first := findings[0].(map[string]any)
	assert.Equal(t, "recursica-components-text-field-outline", first["name"])
	assert.Equal(t, "dangling-reference", first["rule"])
}

func TestHandleAudit_Clean(t *testing.T) {
	h := host.New(host.DefaultConfig(), nil)
	h.Recompute(testSet(t, `{"ui-kit": {"global": {"gap": {"type": "dimension", "value": {"value": 8, "unit": "px"}}}}}`))
	s := NewServer(h, nil, "", nil)

	result := callTool(t, s, makeRequest("audit", nil))
	assert.JSONEq(t, `{"checked": 1, "valid": true, "findings": []}`, resultJSON(t, result))
}

// --- middleware ---

func TestLoggingMiddleware(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcp.jsonl")
	logger, err := mcplog.NewLogger(path)
	require.NoError(t, err)

	h := host.New(host.DefaultConfig(), nil)
	h.Recompute(testSet(t, testSpec))
	s := NewServer(h, nil, "", logger)

	handler := s.loggingMiddleware()(s.handleGetBinding)
	_, err = handler(context.Background(), makeRequest("get_binding", map[string]any{"name": "global-form-radius"}))
	require.NoError(t, err)
	_, err = handler(context.Background(), makeRequest("get_binding", map[string]any{"name": "global-nope"}))
	require.NoError(t, err)
	require.NoError(t, logger.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []mcplog.LogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e mcplog.LogEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		entries = append(entries, e)
	}

	require.Len(t, entries, 2)
	assert.Equal(t, "get_binding", entries[0].Tool)
	assert.Equal(t, "global-form-radius", entries[0].Params["name"])
	assert.Equal(t, 5, entries[0].Bindings)
	assert.Equal(t, h.Digest(), entries[0].Digest)
	assert.Positive(t, entries[0].ResponseBytes)
	assert.False(t, entries[0].IsError)
	assert.True(t, entries[1].IsError)
}
