// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hylla/tix/internal/adapters/server/common"
	"github.com/hylla/tix/internal/domain"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing the ticket tools.
func NewHandler(cfg Config, tickets common.TicketService) (*Handler, error) {
	if tickets == nil {
		return nil, fmt.Errorf("ticket service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerReadTools(mcpSrv, tickets)
	registerWriteTools(mcpSrv, tickets)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "tix"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

func statusNames() []string {
	out := make([]string, 0, len(domain.Statuses()))
	for _, s := range domain.Statuses() {
		out = append(out, string(s))
	}
	return out
}

func priorityNames() []string {
	out := make([]string, 0, len(domain.Priorities()))
	for _, p := range domain.Priorities() {
		out = append(out, string(p))
	}
	return out
}

// registerReadTools registers the list, get and counts tools.
func registerReadTools(srv *mcpserver.MCPServer, tickets common.TicketService) {
	srv.AddTool(
		mcp.NewTool(
			"tix.list_tickets",
			mcp.WithDescription("List tickets newest first, filtered by search text, status and priority."),
			mcp.WithString("search", mcp.Description("Case-insensitive substring of title or description")),
			mcp.WithString("status", mcp.Description("Status filter"), mcp.Enum(append([]string{"all"}, statusNames()...)...)),
			mcp.WithString("priority", mcp.Description("Priority filter"), mcp.Enum(append([]string{"all"}, priorityNames()...)...)),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			list, err := tickets.ListTickets(ctx, common.ListTicketsRequest{
				Search:   req.GetString("search", ""),
				Status:   req.GetString("status", ""),
				Priority: req.GetString("priority", ""),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(list)
			if err != nil {
				return nil, fmt.Errorf("encode list_tickets result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tix.get_ticket",
			mcp.WithDescription("Return one ticket by id."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Ticket id")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			ticket, err := tickets.GetTicket(ctx, id)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(ticket)
			if err != nil {
				return nil, fmt.Errorf("encode get_ticket result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tix.status_counts",
			mcp.WithDescription("Return ticket counts per status over the whole store."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			counts, err := tickets.StatusCounts(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"counts": counts,
				"total":  counts.Total(),
			})
			if err != nil {
				return nil, fmt.Errorf("encode status_counts result: %w", err)
			}
			return result, nil
		},
	)
}

// registerWriteTools registers the create, update and delete tools.
func registerWriteTools(srv *mcpserver.MCPServer, tickets common.TicketService) {
	srv.AddTool(
		mcp.NewTool(
			"tix.create_ticket",
			mcp.WithDescription("Create one ticket. Status defaults to open and priority to medium."),
			mcp.WithString("title", mcp.Required(), mcp.Description("Ticket title")),
			mcp.WithString("description", mcp.Description("Markdown description")),
			mcp.WithString("status", mcp.Description("Initial status"), mcp.Enum(statusNames()...)),
			mcp.WithString("priority", mcp.Description("Initial priority"), mcp.Enum(priorityNames()...)),
			mcp.WithString("assignee", mcp.Description("Assignee name")),
			mcp.WithString("reporter", mcp.Description("Reporter name")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args common.CreateTicketRequest
			if err := req.BindArguments(&args); err != nil {
				return invalidRequestToolResult(err), nil
			}
			if strings.TrimSpace(args.Title) == "" {
				return mcp.NewToolResultError(`invalid_request: required argument "title" not found`), nil
			}
			ticket, err := tickets.CreateTicket(ctx, args)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(ticket)
			if err != nil {
				return nil, fmt.Errorf("encode create_ticket result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tix.update_ticket",
			mcp.WithDescription("Update one ticket. Only the arguments that are present change."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Ticket id")),
			mcp.WithString("title", mcp.Description("New title")),
			mcp.WithString("description", mcp.Description("New markdown description")),
			mcp.WithString("status", mcp.Description("New status"), mcp.Enum(statusNames()...)),
			mcp.WithString("priority", mcp.Description("New priority"), mcp.Enum(priorityNames()...)),
			mcp.WithString("assignee", mcp.Description("New assignee; empty clears it")),
			mcp.WithString("reporter", mcp.Description("New reporter")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args struct {
				ID          string  `json:"id"`
				Title       *string `json:"title"`
				Description *string `json:"description"`
				Status      *string `json:"status"`
				Priority    *string `json:"priority"`
				Assignee    *string `json:"assignee"`
				Reporter    *string `json:"reporter"`
			}
			if err := req.BindArguments(&args); err != nil {
				return invalidRequestToolResult(err), nil
			}
			if strings.TrimSpace(args.ID) == "" {
				return mcp.NewToolResultError(`invalid_request: required argument "id" not found`), nil
			}
			ticket, err := tickets.UpdateTicket(ctx, common.UpdateTicketRequest{
				ID:          args.ID,
				Title:       args.Title,
				Description: args.Description,
				Status:      args.Status,
				Priority:    args.Priority,
				Assignee:    args.Assignee,
				Reporter:    args.Reporter,
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(ticket)
			if err != nil {
				return nil, fmt.Errorf("encode update_ticket result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tix.delete_ticket",
			mcp.WithDescription("Delete one ticket. Unknown ids succeed."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Ticket id")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			if err := tickets.DeleteTicket(ctx, id); err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"id":      id,
				"deleted": true,
			})
			if err != nil {
				return nil, fmt.Errorf("encode delete_ticket result: %w", err)
			}
			return result, nil
		},
	)
}

// invalidRequestToolResult wraps argument decode failures.
func invalidRequestToolResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError("invalid_request: " + err.Error())
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
