package main

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// binaryPath is set by TestMain after building the binary.
var binaryPath string

func TestMain(m *testing.M) {
	if os.Getenv("INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	tmp, err := os.MkdirTemp("", "forge-integration-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmp)

	binaryPath = filepath.Join(tmp, "forge")
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

// --- helpers ---

func skipIfNotIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("INTEGRATION") == "" {
		t.Skip("set INTEGRATION=1 to run integration tests")
	}
}

// startServer launches forge serve as a subprocess and returns an initialized MCP client.
func startServer(t *testing.T, args ...string) *client.Client {
	t.Helper()

	c, err := client.NewStdioMCPClient(binaryPath, nil, append([]string{"serve"}, args...)...)
	require.NoError(t, err, "failed to start MCP server")
	t.Cleanup(func() {
		c.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "forge-integration-test",
		Version: "1.0.0",
	}

	result, err := c.Initialize(ctx, initReq)
	require.NoError(t, err, "failed to initialize MCP session")
	assert.Equal(t, "recursica-forge", result.ServerInfo.Name)

	return c
}

func callToolHelper(t *testing.T, c *client.Client, toolName string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req := mcp.CallToolRequest{}
	req.Params.Name = toolName
	if args != nil {
		req.Params.Arguments = args
	}

	result, err := c.CallTool(ctx, req)
	require.NoError(t, err, "CallTool(%s) failed", toolName)
	return result
}

func extractText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content, "expected content in result")
	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return textContent.Text
}

// --- integration tests ---

func TestIntegration_ListTools(t *testing.T) {
	skipIfNotIntegration(t)
	c := startServer(t, "--sample")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tools, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	require.NoError(t, err)

	toolNames := make([]string, len(tools.Tools))
	for i, tool := range tools.Tools {
		toolNames[i] = tool.Name
	}
	for _, name := range []string{
		"get_status",
		"recompute",
		"list_bindings",
		"get_binding",
		"list_components",
		"get_component_bindings",
		"component_binding",
		"search_bindings",
		"audit",
	} {
		assert.Contains(t, toolNames, name, "missing tool: %s", name)
	}
}

func TestIntegration_SampleBindings(t *testing.T) {
	skipIfNotIntegration(t)
	c := startServer(t, "--sample")

	t.Run("status", func(t *testing.T) {
		result := callToolHelper(t, c, "get_status", nil)
		assert.False(t, result.IsError)

		var status map[string]any
		require.NoError(t, json.Unmarshal([]byte(extractText(t, result)), &status))
		assert.Equal(t, float64(14), status["bindings"])
		assert.Equal(t, "light", status["mode"])
	})

	t.Run("get binding", func(t *testing.T) {
		result := callToolHelper(t, c, "get_binding", map[string]any{"name": "components-button-padding"})
		assert.False(t, result.IsError)

		var resp map[string]any
		require.NoError(t, json.Unmarshal([]byte(extractText(t, result)), &resp))
		binding, ok := resp["binding"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "recursica-components-button-padding", binding["name"])
		assert.Equal(t, "12px", binding["value"])
	})

	t.Run("unknown binding is an error result", func(t *testing.T) {
		result := callToolHelper(t, c, "get_binding", map[string]any{"name": "nope"})
		assert.True(t, result.IsError)
	})

	t.Run("recompute without a source", func(t *testing.T) {
		result := callToolHelper(t, c, "recompute", nil)
		assert.True(t, result.IsError)
	})

	t.Run("audit", func(t *testing.T) {
		result := callToolHelper(t, c, "audit", nil)
		assert.False(t, result.IsError)

		var report map[string]any
		require.NoError(t, json.Unmarshal([]byte(extractText(t, result)), &report))
		assert.Equal(t, true, report["valid"])
	})
}

func TestIntegration_RecomputeFromFiles(t *testing.T) {
	skipIfNotIntegration(t)

	dir := t.TempDir()
	_, err := execute(t, "init", "--dir", dir)
	require.NoError(t, err)

	c := startServer(t, "--config", filepath.Join(dir, ".forge", "config.yaml"))

	result := callToolHelper(t, c, "recompute", nil)
	assert.False(t, result.IsError)

	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(extractText(t, result)), &resp))
	assert.Equal(t, float64(14), resp["bindings"])
	assert.Equal(t, true, resp["cached"])
}
