package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/borderux/recursica-forge-sub006/pkg/audit"
	"github.com/borderux/recursica-forge-sub006/pkg/bindings"
	"github.com/borderux/recursica-forge-sub006/pkg/catalog"
)

// --- response types ---

type statusResponse struct {
	Mode       string   `json:"mode"`
	Digest     string   `json:"digest,omitempty"`
	Bindings   int      `json:"bindings"`
	Leaves     int      `json:"leaves"`
	Passes     int      `json:"passes"`
	Components []string `json:"components"`
	Unresolved []string `json:"unresolved"`
	Verbatim   []string `json:"verbatim"`
	Recomputes int64    `json:"recomputes"`
	CacheHits  int64    `json:"cache_hits"`
}

type recomputeResponse struct {
	Digest     string        `json:"digest"`
	Cached     bool          `json:"cached"`
	Bindings   int           `json:"bindings"`
	Unresolved int           `json:"unresolved"`
	Diff       bindings.Diff `json:"diff"`
}

type listBindingsResponse struct {
	Total    int               `json:"total"`
	Bindings []catalog.Binding `json:"bindings"`
}

type bindingResponse struct {
	Binding   *catalog.Binding `json:"binding"`
	Chain     catalog.Chain    `json:"chain"`
	Referrers []string         `json:"referrers"`
}

type componentSummary struct {
	Name         string `json:"name"`
	BindingCount int    `json:"binding_count"`
}

type componentBindingResponse struct {
	Name    string           `json:"name"`
	Found   bool             `json:"found"`
	Binding *catalog.Binding `json:"binding,omitempty"`
}

type searchResult struct {
	Name        string `json:"name"`
	Value       string `json:"value"`
	MatchReason string `json:"match_reason"`
}

// --- handlers ---

func (s *Server) handleGetStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res := s.host.Current()
	stats := s.host.Stats()

	return jsonResult(statusResponse{
		Mode:       res.Mode,
		Digest:     s.host.Digest(),
		Bindings:   len(res.Bindings),
		Leaves:     res.Leaves,
		Passes:     res.Passes,
		Components: nonNil(res.Components),
		Unresolved: nonNil(res.Unresolved),
		Verbatim:   nonNil(res.Verbatim),
		Recomputes: stats.Recomputes,
		CacheHits:  stats.CacheHits,
	})
}

func (s *Server) handleRecompute(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.source == nil {
		return mcp.NewToolResultError("no document source configured; start the server with document paths"), nil
	}

	update, err := s.source.Reload()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(recomputeResponse{
		Digest:     update.Digest,
		Cached:     update.Cached,
		Bindings:   len(update.Result.Bindings),
		Unresolved: len(update.Result.Unresolved),
		Diff:       update.Diff,
	})
}

func (s *Server) handleListBindings(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	group := req.GetString("group", "")
	pattern := req.GetString("pattern", "")
	keyword := req.GetString("keyword", "")
	limit := req.GetInt("limit", 0)

	bs, err := s.query().ListBindings(group, pattern, keyword)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp := listBindingsResponse{Total: len(bs), Bindings: bs}
	if limit > 0 && len(bs) > limit {
		resp.Bindings = bs[:limit]
	}
	if resp.Bindings == nil {
		resp.Bindings = []catalog.Binding{}
	}
	return jsonResult(resp)
}

func (s *Server) handleGetBinding(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	qs := s.query()
	b, ok := qs.GetBinding(name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("binding not found: %s", name)), nil
	}

	return jsonResult(bindingResponse{
		Binding:   b,
		Chain:     qs.Follow(b.Name),
		Referrers: nonNil(qs.Referrers(b.Name)),
	})
}

func (s *Server) handleListComponents(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	qs := s.query()
	out := make([]componentSummary, 0, len(qs.ListComponents()))
	for _, c := range qs.ListComponents() {
		out = append(out, componentSummary{Name: c, BindingCount: len(qs.GetComponentBindings(c))})
	}
	return jsonResult(out)
}

func (s *Server) handleGetComponentBindings(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	component, err := req.RequireString("component")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	bs := s.query().GetComponentBindings(component)
	if len(bs) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("component not found: %s", component)), nil
	}
	return jsonResult(bs)
}

func (s *Server) handleComponentBinding(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	component, err := req.RequireString("component")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	property, err := req.RequireString("property")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	name, b, ok := s.query().ComponentBinding(component,
		req.GetString("variant", ""),
		req.GetString("state", ""),
		req.GetString("layer", ""),
		property,
	)
	return jsonResult(componentBindingResponse{Name: name, Found: ok, Binding: b})
}

func (s *Server) handleSearchBindings(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", 0)

	matches := s.query().SearchBindings(query)
	out := make([]searchResult, 0, len(matches))
	for _, m := range matches {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, searchResult{Name: m.Binding.Name, Value: m.Binding.Value, MatchReason: m.MatchReason})
	}
	return jsonResult(out)
}

func (s *Server) handleAudit(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report := audit.Run(s.host.Current(), s.namespace)
	if report.Findings == nil {
		report.Findings = []audit.Finding{}
	}
	return jsonResult(report)
}

// --- helpers ---

// query builds a query service over the current map.
func (s *Server) query() *catalog.QueryService {
	return catalog.FromResultQuery(s.host.Current(), s.namespace)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
