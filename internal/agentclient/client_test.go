package agentclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	query  url.Values
	body   map[string]any
}

func newBackend(t *testing.T, status int, reply string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.EscapedPath(), query: r.URL.Query()}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &rec.body)
		}
		calls = append(calls, rec)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestSendMessage(t *testing.T) {
	srv, calls := newBackend(t, http.StatusOK, `{"success":true,"responseText":"Nice walk!","actionsExecutedCount":1}`)
	c := New(srv.URL)

	at := time.Date(2025, 6, 2, 2, 0, 0, 0, time.UTC)
	reply, err := c.SendMessage(context.Background(), "u-1", "walked 3km", at)
	require.NoError(t, err)
	assert.True(t, reply.Success)
	assert.Equal(t, "Nice walk!", reply.ResponseText)
	assert.Equal(t, 1, reply.ActionsExecutedCount)

	require.Len(t, *calls, 1)
	got := (*calls)[0]
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/api/users/u-1/messages", got.path)
	assert.Equal(t, "walked 3km", got.body["message"])
	assert.Equal(t, "2025-06-02T02:00:00Z", got.body["clientTimestamp"])
}

func TestQueryPaths(t *testing.T) {
	srv, calls := newBackend(t, http.StatusOK, `[]`)
	c := New(srv.URL + "/")
	ctx := context.Background()

	_, err := c.ListGoals(ctx, "u-1", "active", "paused")
	require.NoError(t, err)
	_, err = c.ListActivities(ctx, "u-1", 5)
	require.NoError(t, err)
	_, err = c.Summary(ctx, "u-1", "2025-06-02")
	require.NoError(t, err)
	_, err = c.Streaks(ctx, "u-1")
	require.NoError(t, err)

	require.Len(t, *calls, 4)
	assert.Equal(t, "/api/users/u-1/goals", (*calls)[0].path)
	assert.Equal(t, "active,paused", (*calls)[0].query.Get("status"))
	assert.Equal(t, "5", (*calls)[1].query.Get("limit"))
	assert.Equal(t, "/api/users/u-1/summaries/2025-06-02", (*calls)[2].path)
	assert.Equal(t, "/api/users/u-1/streaks", (*calls)[3].path)
}

func TestStatusErrors(t *testing.T) {
	srv, _ := newBackend(t, http.StatusNotFound, `{"error":"not found","code":404}`)
	c := New(srv.URL)

	_, err := c.GetProfile(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Status)
	assert.Contains(t, se.Body, "not found")
}

func TestCanceledContext(t *testing.T) {
	srv, calls := newBackend(t, http.StatusOK, `{}`)
	c := New(srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Streaks(ctx, "u-1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, *calls)
}

func TestInvalidOptionPanics(t *testing.T) {
	assert.Panics(t, func() { New("http://x", WithHTTPTimeout(0)) })
	assert.Panics(t, func() { New("") })
}
