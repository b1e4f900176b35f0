package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gab-cat/cold-start-sub000/internal/agent"
	"github.com/gab-cat/cold-start-sub000/internal/agentclient"
)

type fakeAPI struct {
	gotUser     string
	gotText     string
	gotAt       time.Time
	gotLimit    int
	gotStatuses []string
	gotDate     string
	err         error
}

func (f *fakeAPI) SendMessage(_ context.Context, userID, text string, at time.Time) (*agent.Reply, error) {
	f.gotUser, f.gotText, f.gotAt = userID, text, at
	if f.err != nil {
		return nil, f.err
	}
	return &agent.Reply{Success: true, ResponseText: "Logged your walk.", ActionsExecutedCount: 1}, nil
}

func (f *fakeAPI) GetProfile(_ context.Context, userID string) (json.RawMessage, error) {
	f.gotUser = userID
	return json.RawMessage(`{"userId":"` + userID + `"}`), f.err
}

func (f *fakeAPI) ListActivities(_ context.Context, userID string, limit int) (json.RawMessage, error) {
	f.gotUser, f.gotLimit = userID, limit
	return json.RawMessage(`[]`), f.err
}

func (f *fakeAPI) ListGoals(_ context.Context, userID string, statuses ...string) (json.RawMessage, error) {
	f.gotUser, f.gotStatuses = userID, statuses
	return json.RawMessage(`{"goals":[],"count":0}`), f.err
}

func (f *fakeAPI) Streaks(_ context.Context, userID string) (json.RawMessage, error) {
	f.gotUser = userID
	return json.RawMessage(`[]`), f.err
}

func (f *fakeAPI) Summary(_ context.Context, userID, date string) (json.RawMessage, error) {
	f.gotUser, f.gotDate = userID, date
	return json.RawMessage(`{"date":"` + date + `"}`), f.err
}

func call(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", res.Content[0])
	return tc.Text
}

func TestSendMessage(t *testing.T) {
	api := &fakeAPI{}
	h := NewChatHandler(api)
	fixed := time.Date(2025, 6, 2, 2, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return fixed }

	res, err := h.handleSendMessage(context.Background(), call(map[string]any{
		"user_id": "u1",
		"message": "walked 3km",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "u1", api.gotUser)
	assert.Equal(t, "walked 3km", api.gotText)
	assert.Equal(t, fixed, api.gotAt)

	var reply agent.Reply
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &reply))
	assert.Equal(t, "Logged your walk.", reply.ResponseText)
	assert.Equal(t, 1, reply.ActionsExecutedCount)
}

func TestSendMessageTimestampAndErrors(t *testing.T) {
	api := &fakeAPI{}
	h := NewChatHandler(api)

	res, err := h.handleSendMessage(context.Background(), call(map[string]any{
		"user_id": "u1", "message": "hi", "client_timestamp": "2025-06-01T23:30:00+08:00",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.True(t, api.gotAt.Equal(time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)))

	res, _ = h.handleSendMessage(context.Background(), call(map[string]any{"user_id": "u1", "message": "hi", "client_timestamp": "yesterday"}))
	assert.True(t, res.IsError)

	res, _ = h.handleSendMessage(context.Background(), call(map[string]any{"user_id": "u1", "message": "   "}))
	assert.True(t, res.IsError)

	res, _ = h.handleSendMessage(context.Background(), call(map[string]any{"message": "hi"}))
	assert.True(t, res.IsError)

	api.err = errors.New("connection refused")
	res, err = h.handleSendMessage(context.Background(), call(map[string]any{"user_id": "u1", "message": "hi"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "connection refused")
}

func TestTrackingTools(t *testing.T) {
	api := &fakeAPI{}
	h := NewTrackingHandler(api)
	ctx := context.Background()

	res, err := h.handleListGoals(ctx, call(map[string]any{"user_id": "u1", "status": "active, paused,"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, []string{"active", "paused"}, api.gotStatuses)

	_, err = h.handleListActivities(ctx, call(map[string]any{"user_id": "u1", "limit": float64(5)}))
	require.NoError(t, err)
	assert.Equal(t, 5, api.gotLimit)

	_, err = h.handleListActivities(ctx, call(map[string]any{"user_id": "u1", "limit": float64(500)}))
	require.NoError(t, err)
	assert.Equal(t, 20, api.gotLimit)

	res, err = h.handleGetDailySummary(ctx, call(map[string]any{"user_id": "u1", "date": "2025-06-02"}))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), `"date": "2025-06-02"`)

	res, _ = h.handleGetDailySummary(ctx, call(map[string]any{"user_id": "u1", "date": "06/02/2025"}))
	assert.True(t, res.IsError)

	res, _ = h.handleGetStreaks(ctx, call(map[string]any{}))
	assert.True(t, res.IsError)
}

func TestGetProfileThroughClient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/ghost" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Not Found","code":404}`))
	}))
	defer ts.Close()

	h := NewTrackingHandler(agentclient.New(ts.URL))
	res, err := h.handleGetProfile(context.Background(), call(map[string]any{"user_id": "ghost"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "status 404")
}
