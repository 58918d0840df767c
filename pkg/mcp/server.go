package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/borderux/recursica-forge-sub006/pkg/host"
	"github.com/borderux/recursica-forge-sub006/pkg/mcplog"
	"github.com/borderux/recursica-forge-sub006/pkg/resolver"
)

const serverVersion = "0.1.0-dev"

// Source re-reads the input documents and recomputes the host's map.
// *watch.DocumentWatcher implements it.
type Source interface {
	Reload() (host.Update, error)
}

// Server exposes the current binding map as MCP tools.
type Server struct {
	mcpServer *server.MCPServer
	host      *host.Host
	source    Source // nil disables the recompute tool
	namespace string
	logger    *mcplog.Logger
}

// NewServer creates an MCP server over h. logger may be nil.
func NewServer(h *host.Host, src Source, namespace string, logger *mcplog.Logger) *Server {
	if namespace == "" {
		namespace = resolver.DefaultNamespace
	}
	s := &Server{host: h, source: src, namespace: namespace, logger: logger}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if logger != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}

	s.mcpServer = server.NewMCPServer("recursica-forge", serverVersion, opts...)
	s.mcpServer.AddTools(s.tools()...)
	return s
}

func (s *Server) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: getStatusTool(), Handler: s.handleGetStatus},
		{Tool: recomputeTool(), Handler: s.handleRecompute},
		{Tool: listBindingsTool(), Handler: s.handleListBindings},
		{Tool: getBindingTool(), Handler: s.handleGetBinding},
		{Tool: listComponentsTool(), Handler: s.handleListComponents},
		{Tool: getComponentBindingsTool(), Handler: s.handleGetComponentBindings},
		{Tool: componentBindingTool(), Handler: s.handleComponentBinding},
		{Tool: searchBindingsTool(), Handler: s.handleSearchBindings},
		{Tool: auditTool(), Handler: s.handleAudit},
	}
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
