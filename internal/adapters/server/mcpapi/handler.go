// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hylla/kanboard/internal/adapters/server/common"
	"github.com/hylla/kanboard/internal/domain"
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

// NewHandler builds one stateless MCP adapter exposing the board tools.
func NewHandler(cfg Config, board common.BoardService) (*Handler, error) {
	if board == nil {
		return nil, fmt.Errorf("board service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerBoardTools(mcpSrv, board)
	registerCardTools(mcpSrv, board)

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
		cfg.ServerName = "kanboard"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// statusValues lists the accepted status arguments in board order.
func statusValues() []string {
	statuses := domain.Statuses()
	out := make([]string, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, string(status))
	}
	return out
}

// registerBoardTools registers `kanboard.get_board` and `kanboard.move_card`.
func registerBoardTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"kanboard.get_board",
			mcp.WithDescription("Return every column with its ordered cards."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			view, err := board.GetBoard(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(view)
			if err != nil {
				return nil, fmt.Errorf("encode get_board result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"kanboard.move_card",
			mcp.WithDescription("Drop one card onto another card (insert next to it) or onto a column id (append)."),
			mcp.WithString("card_id", mcp.Required(), mcp.Description("Card being moved")),
			mcp.WithString("target_id", mcp.Required(), mcp.Description("Target card id or column id")),
			mcp.WithString("position", mcp.Description("Placement relative to a target card"), mcp.Enum(common.DropBefore, common.DropAfter)),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			cardID, err := req.RequireString("card_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			targetID, err := req.RequireString("target_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			moved, err := board.MoveCard(ctx, common.MoveCardRequest{
				CardID:   cardID,
				TargetID: targetID,
				Position: req.GetString("position", ""),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(moved)
			if err != nil {
				return nil, fmt.Errorf("encode move_card result: %w", err)
			}
			return result, nil
		},
	)
}

// registerCardTools registers card get/create/update/delete tools.
func registerCardTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"kanboard.get_card",
			mcp.WithDescription("Return one card by id."),
			mcp.WithString("card_id", mcp.Required(), mcp.Description("Card identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			cardID, err := req.RequireString("card_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			card, err := board.GetCard(ctx, cardID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(card)
			if err != nil {
				return nil, fmt.Errorf("encode get_card result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"kanboard.create_card",
			mcp.WithDescription("Create a card at the end of the column matching its status."),
			mcp.WithString("title", mcp.Required(), mcp.Description("Card title")),
			mcp.WithString("description", mcp.Required(), mcp.Description("Card description (markdown)")),
			mcp.WithString("status", mcp.Description("Column status, defaults to backlog"), mcp.Enum(statusValues()...)),
			mcp.WithString("assignee_id", mcp.Description("Optional assignee id")),
			mcp.WithString("assignee_name", mcp.Description("Optional assignee display name")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			title, err := req.RequireString("title")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			description, err := req.RequireString("description")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			in := common.CreateCardRequest{
				Title:       title,
				Description: description,
				Status:      req.GetString("status", string(domain.StatusBacklog)),
				Assignee:    assigneeFromRequest(req),
			}
			card, err := board.CreateCard(ctx, in)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(card)
			if err != nil {
				return nil, fmt.Errorf("encode create_card result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"kanboard.update_card",
			mcp.WithDescription("Update card fields; a status change moves the card to the end of that column."),
			mcp.WithString("card_id", mcp.Required(), mcp.Description("Card identifier")),
			mcp.WithString("title", mcp.Description("New title")),
			mcp.WithString("description", mcp.Description("New description")),
			mcp.WithString("status", mcp.Description("New status"), mcp.Enum(statusValues()...)),
			mcp.WithString("assignee_id", mcp.Description("New assignee id")),
			mcp.WithString("assignee_name", mcp.Description("New assignee display name")),
			mcp.WithBoolean("unassign", mcp.Description("Clear the assignee")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args struct {
				CardID       string  `json:"card_id"`
				Title        *string `json:"title"`
				Description  *string `json:"description"`
				Status       *string `json:"status"`
				AssigneeID   string  `json:"assignee_id"`
				AssigneeName string  `json:"assignee_name"`
				Unassign     bool    `json:"unassign"`
			}
			if err := req.BindArguments(&args); err != nil {
				return toolResultFromError(errors.Join(common.ErrInvalidRequest, err)), nil
			}
			if strings.TrimSpace(args.CardID) == "" {
				return mcp.NewToolResultError(`invalid_request: required argument "card_id" not found`), nil
			}
			in := common.UpdateCardRequest{
				ID:          args.CardID,
				Title:       args.Title,
				Description: args.Description,
				Status:      args.Status,
				Assignee:    assigneeFromRequest(req),
				Unassign:    args.Unassign,
			}
			card, err := board.UpdateCard(ctx, in)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(card)
			if err != nil {
				return nil, fmt.Errorf("encode update_card result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"kanboard.delete_card",
			mcp.WithDescription("Delete one card by id."),
			mcp.WithString("card_id", mcp.Required(), mcp.Description("Card identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			cardID, err := req.RequireString("card_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err := board.DeleteCard(ctx, cardID); err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"deleted": strings.TrimSpace(cardID),
			})
			if err != nil {
				return nil, fmt.Errorf("encode delete_card result: %w", err)
			}
			return result, nil
		},
	)
}

// assigneeFromRequest builds an assignee from assignee_id/assignee_name arguments.
func assigneeFromRequest(req mcp.CallToolRequest) *common.AssigneeView {
	id := strings.TrimSpace(req.GetString("assignee_id", ""))
	name := strings.TrimSpace(req.GetString("assignee_name", ""))
	if id == "" && name == "" {
		return nil
	}
	return &common.AssigneeView{ID: id, Name: name}
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrValidationFailed):
		return mcp.NewToolResultError("validation_failed: " + err.Error())
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, common.ErrConflict):
		return mcp.NewToolResultError("conflict: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
