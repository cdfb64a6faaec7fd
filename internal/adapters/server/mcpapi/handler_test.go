package mcpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/hylla/tix/internal/adapters/server/common"
	"github.com/hylla/tix/internal/app"
	"github.com/mark3labs/mcp-go/mcp"
)

// jsonRPCResponse models minimal JSON-RPC response fields used in MCP adapter tests.
type jsonRPCResponse struct {
	ID     float64        `json:"id"`
	Result map[string]any `json:"result"`
}

func newTestServer(t *testing.T) (*httptest.Server, *app.Store) {
	t.Helper()
	n := 0
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := app.NewStore(nil, app.StoreOptions{
		IDGen: func() string {
			n++
			return "t" + strconv.Itoa(n)
		},
		Clock: func() time.Time {
			now = now.Add(time.Second)
			return now
		},
	})
	handler, err := NewHandler(Config{}, common.NewAppServiceAdapter(store))
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	_, _ = postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	return server, store
}

// callToolRequest constructs one deterministic tools/call JSON-RPC request payload.
func callToolRequest(id int, toolName string, arguments map[string]any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      toolName,
			"arguments": arguments,
		},
	}
}

// toolResultText decodes the first text entry from one tool-call result payload.
func toolResultText(t *testing.T, result map[string]any) string {
	t.Helper()
	contentRaw, ok := result["content"].([]any)
	if !ok || len(contentRaw) == 0 {
		t.Fatalf("content missing in tool result: %#v", result)
	}
	first, ok := contentRaw[0].(map[string]any)
	if !ok {
		t.Fatalf("first content entry has unexpected type: %#v", contentRaw[0])
	}
	text, ok := first["text"].(string)
	if !ok {
		t.Fatalf("content text missing in tool result: %#v", first)
	}
	return text
}

// toolResultStructured decodes structuredContent as one map for stable assertions.
func toolResultStructured(t *testing.T, result map[string]any) map[string]any {
	t.Helper()
	structured, ok := result["structuredContent"].(map[string]any)
	if !ok {
		t.Fatalf("structuredContent missing in tool result: %#v", result)
	}
	return structured
}

// postJSONRPC sends one JSON-RPC payload and decodes the response body.
func postJSONRPC(t *testing.T, client *http.Client, url string, payload any) (*http.Response, jsonRPCResponse) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	var decoded jsonRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if err := resp.Body.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return resp, decoded
}

// initializeRequest builds a deterministic MCP initialize request payload.
func initializeRequest() map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params": map[string]any{
			"protocolVersion": mcp.LATEST_PROTOCOL_VERSION,
			"clientInfo": map[string]any{
				"name":    "tix-test",
				"version": "1.0.0",
			},
		},
	}
}

func callTool(t *testing.T, server *httptest.Server, id int, name string, args map[string]any) map[string]any {
	t.Helper()
	_, resp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(id, name, args))
	if resp.Result == nil {
		t.Fatalf("%s returned no result", name)
	}
	return resp.Result
}

func isToolError(result map[string]any) bool {
	isError, _ := result["isError"].(bool)
	return isError
}

// TestHandlerUsesStatelessTransport verifies MCP transport does not issue session ids.
func TestHandlerUsesStatelessTransport(t *testing.T) {
	handler, err := NewHandler(Config{}, common.NewAppServiceAdapter(app.NewStore(nil, app.StoreOptions{})))
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	server := httptest.NewServer(handler)
	defer server.Close()

	resp, decoded := postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if decoded.ID != 1 {
		t.Fatalf("id = %v, want 1", decoded.ID)
	}
	if got := resp.Header.Get("Mcp-Session-Id"); got != "" {
		t.Fatalf("Mcp-Session-Id header = %q, want empty (stateless transport)", got)
	}
}

// TestHandlerRegistersTicketTools verifies MCP tool discovery lists every ticket tool.
func TestHandlerRegistersTicketTools(t *testing.T) {
	server, _ := newTestServer(t)
	_, toolsResp := postJSONRPC(t, server.Client(), server.URL, map[string]any{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "tools/list",
	})
	toolsRaw, ok := toolsResp.Result["tools"].([]any)
	if !ok {
		t.Fatalf("tools list payload missing tools: %#v", toolsResp.Result)
	}
	toolNames := make([]string, 0, len(toolsRaw))
	for _, toolRaw := range toolsRaw {
		toolMap, ok := toolRaw.(map[string]any)
		if !ok {
			continue
		}
		name, _ := toolMap["name"].(string)
		toolNames = append(toolNames, name)
	}
	for _, required := range []string{
		"tix.list_tickets",
		"tix.get_ticket",
		"tix.create_ticket",
		"tix.update_ticket",
		"tix.delete_ticket",
		"tix.status_counts",
	} {
		if !slices.Contains(toolNames, required) {
			t.Fatalf("tool list missing %q: %#v", required, toolNames)
		}
	}
}

// TestHandlerTicketToolLifecycle verifies create, update, list, counts and delete over MCP.
func TestHandlerTicketToolLifecycle(t *testing.T) {
	server, store := newTestServer(t)

	created := callTool(t, server, 3, "tix.create_ticket", map[string]any{
		"title":    "Login fails",
		"priority": "high",
		"assignee": "bo",
	})
	if isToolError(created) {
		t.Fatalf("create_ticket error: %s", toolResultText(t, created))
	}
	ticket := toolResultStructured(t, created)
	if ticket["id"] != "t1" || ticket["status"] != "open" || ticket["priority"] != "high" {
		t.Fatalf("unexpected created ticket %#v", ticket)
	}

	updated := callTool(t, server, 4, "tix.update_ticket", map[string]any{
		"id":     "t1",
		"status": "resolved",
	})
	if isToolError(updated) {
		t.Fatalf("update_ticket error: %s", toolResultText(t, updated))
	}
	got, ok := store.Get("t1")
	if !ok || got.Status != "resolved" || got.Assignee != "bo" || got.Title != "Login fails" {
		t.Fatalf("unexpected stored ticket %#v", got)
	}

	list := callTool(t, server, 5, "tix.list_tickets", map[string]any{"status": "resolved", "search": "LOGIN"})
	payload := toolResultStructured(t, list)
	if total, _ := payload["total"].(float64); total != 1 {
		t.Fatalf("unexpected list payload %#v", payload)
	}

	counts := toolResultStructured(t, callTool(t, server, 6, "tix.status_counts", map[string]any{}))
	countMap, _ := counts["counts"].(map[string]any)
	if resolved, _ := countMap["resolved"].(float64); resolved != 1 {
		t.Fatalf("unexpected counts %#v", counts)
	}

	for id := 7; id <= 8; id++ {
		deleted := callTool(t, server, id, "tix.delete_ticket", map[string]any{"id": "t1"})
		if isToolError(deleted) {
			t.Fatalf("delete_ticket error: %s", toolResultText(t, deleted))
		}
	}
	if len(store.List()) != 0 {
		t.Fatalf("expected empty store, got %#v", store.List())
	}
}

// TestHandlerToolErrors verifies invalid and missing inputs surface as prefixed tool errors.
func TestHandlerToolErrors(t *testing.T) {
	server, _ := newTestServer(t)
	cases := []struct {
		name   string
		tool   string
		args   map[string]any
		prefix string
	}{
		{name: "missing title", tool: "tix.create_ticket", args: map[string]any{}, prefix: "invalid_request:"},
		{name: "bad priority", tool: "tix.create_ticket", args: map[string]any{"title": "x", "priority": "critical"}, prefix: "invalid_request:"},
		{name: "missing id", tool: "tix.get_ticket", args: map[string]any{}, prefix: "invalid_request:"},
		{name: "unknown get", tool: "tix.get_ticket", args: map[string]any{"id": "nope"}, prefix: "not_found:"},
		{name: "unknown update", tool: "tix.update_ticket", args: map[string]any{"id": "nope", "title": "x"}, prefix: "not_found:"},
		{name: "bad filter", tool: "tix.list_tickets", args: map[string]any{"status": "done"}, prefix: "invalid_request:"},
	}
	for idx, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := callTool(t, server, 10+idx, tc.tool, tc.args)
			if !isToolError(result) {
				t.Fatalf("isError = false, want true: %#v", result)
			}
			if text := toolResultText(t, result); !strings.HasPrefix(text, tc.prefix) {
				t.Fatalf("text = %q, want prefix %q", text, tc.prefix)
			}
		})
	}
}

// TestNewHandlerRequiresService verifies construction fails without a ticket service.
func TestNewHandlerRequiresService(t *testing.T) {
	if _, err := NewHandler(Config{}, nil); err == nil {
		t.Fatal("expected error without ticket service")
	}
}

// TestNormalizeConfig verifies MCP config defaults.
func TestNormalizeConfig(t *testing.T) {
	cfg := normalizeConfig(Config{EndpointPath: "tools/"})
	if cfg.ServerName != "tix" || cfg.ServerVersion != "dev" || cfg.EndpointPath != "/tools" {
		t.Fatalf("unexpected normalized config %#v", cfg)
	}
}

// TestToolResultFromError verifies error mapping without transport.
func TestToolResultFromError(t *testing.T) {
	result := toolResultFromError(context.Canceled)
	if !result.IsError {
		t.Fatal("IsError = false, want true")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok || !strings.HasPrefix(text.Text, "internal_error:") {
		t.Fatalf("unexpected result content %#v", result.Content)
	}
}
