// Package agentclient is a small HTTP SDK for the agent service API. The CLI
// and the MCP server both speak to the service through it.
package agentclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/gab-cat/cold-start-sub000/internal/agent"
)

type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

// New constructs a Client for baseURL. Invalid options panic, matching a
// programming error rather than a runtime condition.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		panic("baseURL cannot be empty")
	}
	c := &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(30 * time.Second).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				return err != nil || r.StatusCode() >= http.StatusInternalServerError
			}),
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			panic(err)
		}
	}
	return c
}

// ProfileRequest is the body for CreateProfile.
type ProfileRequest struct {
	UserID       string            `json:"userId"`
	DisplayName  string            `json:"displayName,omitempty"`
	Preferences  map[string]string `json:"preferences,omitempty"`
	MessagingIDs map[string]string `json:"messagingIds,omitempty"`
}

// GoalRequest is the body for CreateGoal.
type GoalRequest struct {
	Type      string  `json:"type"`
	Target    float64 `json:"target"`
	Unit      string  `json:"unit,omitempty"`
	Milestone string  `json:"milestone,omitempty"`
}

// SendMessage runs one conversational turn for userID.
func (c *Client) SendMessage(ctx context.Context, userID, text string, at time.Time) (*agent.Reply, error) {
	body := map[string]any{"message": text, "clientTimestamp": at.UTC()}
	data, err := c.do(ctx, http.MethodPost, userPath(userID, "messages"), body)
	if err != nil {
		return nil, err
	}
	var reply agent.Reply
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	return &reply, nil
}

func (c *Client) CreateProfile(ctx context.Context, req ProfileRequest) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/api/users", req)
}

func (c *Client) GetProfile(ctx context.Context, userID string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, userPath(userID, ""), nil)
}

// ListActivities returns up to limit recent activities; limit <= 0 uses the server default.
func (c *Client) ListActivities(ctx context.Context, userID string, limit int) (json.RawMessage, error) {
	path := userPath(userID, "activities")
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}
	return c.do(ctx, http.MethodGet, path, nil)
}

// LogActivity posts activity-log params as the dashboard would.
func (c *Client) LogActivity(ctx context.Context, userID string, params map[string]any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, userPath(userID, "activities"), params)
}

// ListGoals filters by statuses when any are given.
func (c *Client) ListGoals(ctx context.Context, userID string, statuses ...string) (json.RawMessage, error) {
	path := userPath(userID, "goals")
	if len(statuses) > 0 {
		path += "?status=" + url.QueryEscape(strings.Join(statuses, ","))
	}
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) CreateGoal(ctx context.Context, userID string, req GoalRequest) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, userPath(userID, "goals"), req)
}

func (c *Client) Streaks(ctx context.Context, userID string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, userPath(userID, "streaks"), nil)
}

// Summary fetches the summary for a local date in YYYY-MM-DD form.
func (c *Client) Summary(ctx context.Context, userID, date string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, userPath(userID, "summaries/"+url.PathEscape(date)), nil)
}

// Health returns the service health document.
func (c *Client) Health(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/api/health", nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	c.log.Debug().Str("method", method).Str("path", path).Msg("request")
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, &StatusError{Status: resp.StatusCode(), Body: string(bytes.TrimSpace(resp.Body()))}
	}
	return json.RawMessage(resp.Body()), nil
}

func userPath(userID, rest string) string {
	p := "/api/users/" + url.PathEscape(userID)
	if rest != "" {
		p += "/" + rest
	}
	return p
}
