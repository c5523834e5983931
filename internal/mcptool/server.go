// Package mcptool implements the Model Context Protocol server, exposing the
// context-assembly endpoint to coding agents. The tool proxies the studio
// server's internal HTTP API rather than opening the database itself, so the
// agent always sees the same state as the editors.
package mcptool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Version is advertised to clients for capability negotiation.
const Version = "1.0.0"

// Serve starts the MCP server over stdio. baseURL points at a running studio
// server, e.g. http://127.0.0.1:8000.
func Serve(baseURL string) error {
	// Log to stderr; stdout is reserved for MCP JSON-RPC messages
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	h := &handlers{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: 30 * time.Second},
	}

	s := server.NewMCPServer(
		"studio",
		Version,
		server.WithToolCapabilities(true),
	)

	s.AddTool(
		mcp.NewTool("get_application_context",
			mcp.WithDescription("Fetch the design context for a node: the ancestor chain as background and the node plus its descendants as content to develop, each with the design document as JSON and readable text"),
			mcp.WithString("node_id", mcp.Required(), mcp.Description("Node ID (UUID)")),
		),
		h.getApplicationContext,
	)

	slog.Info("studio MCP server ready", "version", Version, "transport", "stdio", "backend", h.base)

	err := server.ServeStdio(s)
	if errors.Is(err, context.Canceled) {
		slog.Info("server stopped")
		return nil
	}
	return err
}

// handlers holds the HTTP client used to reach the studio server.
type handlers struct {
	base   string
	client *http.Client
}

// getApplicationContext handles get_application_context tool calls by
// fetching the internal application-detail endpoint and returning its JSON
// verbatim. Backend errors come back as tool errors so the agent can react,
// rather than failing the protocol call.
func (h *handlers) getApplicationContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodeID, err := req.RequireString("node_id")
	if err != nil {
		return mcp.NewToolResultError("node_id is required"), nil
	}

	endpoint := fmt.Sprintf("%s/internal/nodes/%s/application-detail",
		h.base, url.PathEscape(nodeID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("build request: %v", err)), nil
	}

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("studio server unreachable: %v", err)), nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read response: %v", err)), nil
	}
	if resp.StatusCode != http.StatusOK {
		return mcp.NewToolResultError(fmt.Sprintf("studio server returned %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}
