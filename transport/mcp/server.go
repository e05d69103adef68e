package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/entity"
)

const (
	serverName    = "tictactoe-multiplayer"
	serverVersion = "1.0.0"
)

type sessionLookup interface {
	GetSessionSnapshot(ctx context.Context, id string) (*entity.Snapshot, error)
}

// Server exposes read-only session inspection as MCP tools.
type Server struct {
	logger    *slog.Logger
	sessions  sessionLookup
	rules     *entity.Rules
	mcpServer *server.MCPServer
}

func New(logger *slog.Logger, sessions sessionLookup, rules *entity.Rules) *Server {
	that := &Server{
		logger:   logger.With("component", "mcp"),
		sessions: sessions,
		rules:    rules,
	}

	that.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Multiplayer tic-tac-toe - read-only MCP interface

AVAILABLE TOOLS:
- get_rules: board size, win length and the player roster
- get_session: current state of a session by id

Moves are only accepted over the websocket protocol.`),
	)

	that.registerTools()

	return that
}

func (that *Server) registerTools() {
	that.mcpServer.AddTool(mcp.Tool{
		Name:        "get_rules",
		Description: "Get the board size, win length and player roster",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, that.handleGetRules)

	that.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get the board, turn, outcome and scores of a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": map[string]any{
					"type":        "string",
					"description": "Session id as returned in state messages",
				},
			},
			Required: []string{"session_id"},
		},
	}, that.handleGetSession)
}

func (that *Server) MCPServer() *server.MCPServer {
	return that.mcpServer
}

// ServeHTTP - JSON-RPC over plain POST.
func (that *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	response := that.mcpServer.HandleMessage(r.Context(), body)

	responseData, err := json.Marshal(response)
	if err != nil {
		that.logger.Error("failed to marshal mcp response", "error", err)
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err = w.Write(responseData); err != nil {
		that.logger.Error("failed to write mcp response", "error", err)
	}
}

func (that *Server) handleGetRules(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return textResult(that.rules)
}

func (that *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)
	if sessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	snapshot, err := that.sessions.GetSessionSnapshot(ctx, sessionID)
	if errors.Is(err, apperror.ErrSessionNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("session %s not found", sessionID)), nil
	}

	if err != nil {
		that.logger.Error("failed to get session", "session_id", sessionID, "error", err)
		return mcp.NewToolResultError(apperror.ReasonInternal), nil
	}

	return textResult(snapshot)
}

func textResult(value any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool result: %w", err)
	}

	return mcp.NewToolResultText(string(raw)), nil
}
