// Package mcptools exposes the agent service as MCP tools so assistant hosts
// can chat with the wellness agent and read a user's tracking state.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/gab-cat/cold-start-sub000/internal/agent"
)

// AgentAPI is the slice of the agent service the tools need.
// *agentclient.Client satisfies it.
type AgentAPI interface {
	SendMessage(ctx context.Context, userID, text string, at time.Time) (*agent.Reply, error)
	GetProfile(ctx context.Context, userID string) (json.RawMessage, error)
	ListActivities(ctx context.Context, userID string, limit int) (json.RawMessage, error)
	ListGoals(ctx context.Context, userID string, statuses ...string) (json.RawMessage, error)
	Streaks(ctx context.Context, userID string) (json.RawMessage, error)
	Summary(ctx context.Context, userID, date string) (json.RawMessage, error)
}

// ChatHandler provides the send_message tool.
type ChatHandler struct {
	api AgentAPI
	now func() time.Time
}

func NewChatHandler(api AgentAPI) *ChatHandler {
	return &ChatHandler{api: api, now: time.Now}
}

// RegisterTools registers send_message with the MCP server.
func (h *ChatHandler) RegisterTools(s *server.MCPServer) error {
	tool := mcp.NewTool("send_message",
		mcp.WithDescription("Send a message to the wellness agent on behalf of a user. The agent may log activities, adjust goals or answer questions, and replies in natural language."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("The user's ID")),
		mcp.WithString("message", mcp.Required(), mcp.Description("Message text, e.g. 'walked 3km this morning'")),
		mcp.WithString("client_timestamp", mcp.Description("When the user sent the message (RFC3339). Defaults to now.")),
	)
	s.AddTool(tool, h.handleSendMessage)
	return nil
}

func (h *ChatHandler) handleSendMessage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id parameter is required"), nil
	}
	message, err := req.RequireString("message")
	if err != nil || strings.TrimSpace(message) == "" {
		return mcp.NewToolResultError("message parameter is required"), nil
	}

	at := h.now().UTC()
	if raw, ok := req.GetArguments()["client_timestamp"].(string); ok && raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("client_timestamp must be RFC3339: %v", err)), nil
		}
		at = ts
	}

	start := time.Now()
	reply, err := h.api.SendMessage(ctx, userID, message, at)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Dur("elapsed", time.Since(start)).Msg("send_message failed")
		return mcp.NewToolResultError(fmt.Sprintf("send_message failed: %v", err)), nil
	}
	log.Debug().
		Str("user_id", userID).
		Bool("success", reply.Success).
		Int("actions", reply.ActionsExecutedCount).
		Dur("elapsed", time.Since(start)).
		Msg("send_message completed")

	b, _ := json.MarshalIndent(reply, "", "  ")
	return mcp.NewToolResultText(string(b)), nil
}

// TrackingHandler provides read-only tools over profiles, goals, streaks and summaries.
type TrackingHandler struct {
	api AgentAPI
}

func NewTrackingHandler(api AgentAPI) *TrackingHandler {
	return &TrackingHandler{api: api}
}

// RegisterTools registers the tracking tools with the MCP server.
func (h *TrackingHandler) RegisterTools(s *server.MCPServer) error {
	userArg := mcp.WithString("user_id", mcp.Required(), mcp.Description("The user's ID"))

	s.AddTool(mcp.NewTool("get_profile",
		mcp.WithDescription("Get a user's profile, preferences and linked messaging accounts"),
		userArg,
	), h.handleGetProfile)

	s.AddTool(mcp.NewTool("list_activities",
		mcp.WithDescription("List a user's most recent logged activities, newest first"),
		userArg,
		mcp.WithNumber("limit", mcp.Description("Number of activities to return (1-100, default 20)")),
	), h.handleListActivities)

	s.AddTool(mcp.NewTool("list_goals",
		mcp.WithDescription("List a user's goals with their current progress"),
		userArg,
		mcp.WithString("status", mcp.Description("Comma-separated statuses to include, e.g. 'active,paused'")),
	), h.handleListGoals)

	s.AddTool(mcp.NewTool("get_streaks",
		mcp.WithDescription("Get a user's streaks and whether each one is at risk of breaking"),
		userArg,
	), h.handleGetStreaks)

	s.AddTool(mcp.NewTool("get_daily_summary",
		mcp.WithDescription("Get the daily summary for a user's local date"),
		userArg,
		mcp.WithString("date", mcp.Required(), mcp.Description("Local date in YYYY-MM-DD form")),
	), h.handleGetDailySummary)

	return nil
}

func (h *TrackingHandler) handleGetProfile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id parameter is required"), nil
	}
	return rawResult("get_profile", userID)(h.api.GetProfile(ctx, userID))
}

func (h *TrackingHandler) handleListActivities(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id parameter is required"), nil
	}
	limit := 20
	if v, ok := req.GetArguments()["limit"].(float64); ok && v >= 1 && v <= 100 {
		limit = int(v)
	}
	return rawResult("list_activities", userID)(h.api.ListActivities(ctx, userID, limit))
}

func (h *TrackingHandler) handleListGoals(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id parameter is required"), nil
	}
	var statuses []string
	if raw, ok := req.GetArguments()["status"].(string); ok {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				statuses = append(statuses, s)
			}
		}
	}
	return rawResult("list_goals", userID)(h.api.ListGoals(ctx, userID, statuses...))
}

func (h *TrackingHandler) handleGetStreaks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id parameter is required"), nil
	}
	return rawResult("get_streaks", userID)(h.api.Streaks(ctx, userID))
}

func (h *TrackingHandler) handleGetDailySummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id parameter is required"), nil
	}
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError("date parameter is required"), nil
	}
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return mcp.NewToolResultError("date must be YYYY-MM-DD"), nil
	}
	return rawResult("get_daily_summary", userID)(h.api.Summary(ctx, userID, date))
}

// rawResult turns a raw JSON answer into an indented text result, or a tool error.
func rawResult(tool, userID string) func(json.RawMessage, error) (*mcp.CallToolResult, error) {
	return func(data json.RawMessage, err error) (*mcp.CallToolResult, error) {
		if err != nil {
			log.Error().Err(err).Str("user_id", userID).Msgf("%s failed", tool)
			return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", tool, err)), nil
		}
		var v any
		if json.Unmarshal(data, &v) != nil {
			return mcp.NewToolResultText(string(data)), nil
		}
		b, _ := json.MarshalIndent(v, "", "  ")
		return mcp.NewToolResultText(string(b)), nil
	}
}
