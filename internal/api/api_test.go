package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gab-cat/cold-start-sub000/internal/actions"
	"github.com/gab-cat/cold-start-sub000/internal/agent"
	"github.com/gab-cat/cold-start-sub000/internal/model"
	"github.com/gab-cat/cold-start-sub000/internal/store"
	"github.com/gab-cat/cold-start-sub000/internal/store/sqlite"
	"github.com/gab-cat/cold-start-sub000/internal/tracking"
)

// 10:00 on 2025-06-02 in Manila.
var testNow = time.Date(2025, 6, 2, 2, 0, 0, 0, time.UTC)

type turnCall struct {
	userID   string
	text     string
	clientTS *time.Time
}

type stubPipeline struct {
	mu    sync.Mutex
	calls []turnCall
	reply agent.Reply
}

func (s *stubPipeline) ProcessMessage(_ context.Context, userID, text string, clientTS *time.Time) agent.Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, turnCall{userID: userID, text: text, clientTS: clientTS})
	return s.reply
}

type sent struct{ chatID, text string }

type fakeSender struct {
	mu   sync.Mutex
	sent []sent
}

func (f *fakeSender) Platform() string { return "telegram" }

func (f *fakeSender) Send(_ context.Context, chatID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{chatID: chatID, text: text})
	return nil
}

type stubHealth struct{ ok bool }

func (s stubHealth) IsHealthy() bool             { return s.ok }
func (s stubHealth) Components() map[string]bool { return map[string]bool{"store": s.ok} }

type fixture struct {
	store    store.Store
	pipeline *stubPipeline
	sender   *fakeSender
	router   *mux.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := sqlite.New(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	m := tracking.NewMaintainer(s, zerolog.Nop())
	f := &fixture{
		store:    s,
		pipeline: &stubPipeline{reply: agent.Reply{Success: true, ResponseText: "Nice walk!", ResponseType: model.ResponseConfirmation, Confidence: 0.9}},
		sender:   &fakeSender{},
	}
	f.router = NewRouter(Deps{
		Store:           s,
		Pipeline:        f.pipeline,
		Executor:        actions.NewExecutor(s, m, zerolog.Nop()),
		Tracker:         m,
		Sender:          f.sender,
		Health:          stubHealth{ok: false},
		DefaultLocation: time.UTC,
		Log:             zerolog.Nop(),
		Now:             func() time.Time { return testNow },
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func (f *fixture) createUser(t *testing.T) {
	t.Helper()
	rr := f.do(t, http.MethodPost, "/api/users",
		`{"userId":"u1","displayName":"Sam","preferences":{"timezone":"Asia/Manila"},"messagingIds":{"telegram":"555"}}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestUsers(t *testing.T) {
	f := newFixture(t)
	f.createUser(t)

	rr := f.do(t, http.MethodPost, "/api/users", `{"userId":"u1"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = f.do(t, http.MethodGet, "/api/users/u1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	p := decode[model.UserProfile](t, rr)
	assert.Equal(t, "Sam", p.DisplayName)
	assert.Equal(t, "Asia/Manila", p.Preferences.Timezone)

	rr = f.do(t, http.MethodGet, "/api/users/ghost", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.do(t, http.MethodPost, "/api/users", `{"userId":"bad id"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodPost, "/api/users", `{"userId":"u2","preferences":{"timezone":"Mars/Base"}}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPostMessage(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/api/users/u1/messages",
		`{"message":"walked 3km this morning","clientTimestamp":"2025-06-02T01:55:00Z"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	reply := decode[agent.Reply](t, rr)
	assert.True(t, reply.Success)
	assert.Equal(t, "Nice walk!", reply.ResponseText)

	require.Len(t, f.pipeline.calls, 1)
	call := f.pipeline.calls[0]
	assert.Equal(t, "u1", call.userID)
	assert.Equal(t, "walked 3km this morning", call.text)
	require.NotNil(t, call.clientTS)
	assert.True(t, call.clientTS.Equal(time.Date(2025, 6, 2, 1, 55, 0, 0, time.UTC)))

	rr = f.do(t, http.MethodPost, "/api/users/u1/messages", `{"message":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = f.do(t, http.MethodPost, "/api/users/u1/messages", `not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Len(t, f.pipeline.calls, 1)
}

func TestFailedTurnIsStill200(t *testing.T) {
	f := newFixture(t)
	f.pipeline.reply = agent.Reply{Success: false, ResponseText: agent.GenericFailureText}

	rr := f.do(t, http.MethodPost, "/api/users/u1/messages", `{"message":"hello"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	reply := decode[agent.Reply](t, rr)
	assert.False(t, reply.Success)
	assert.Equal(t, agent.GenericFailureText, reply.ResponseText)
}

func TestTelegramWebhook(t *testing.T) {
	f := newFixture(t)
	f.createUser(t)

	rr := f.do(t, http.MethodPost, "/api/webhooks/telegram",
		`{"update_id":1,"message":{"message_id":7,"date":1748829600,"text":"drank 500ml water","chat":{"id":555}}}`)
	require.Equal(t, http.StatusOK, rr.Code)

	require.Len(t, f.pipeline.calls, 1)
	assert.Equal(t, "u1", f.pipeline.calls[0].userID)
	require.NotNil(t, f.pipeline.calls[0].clientTS)
	assert.Equal(t, int64(1748829600), f.pipeline.calls[0].clientTS.Unix())
	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, sent{chatID: "555", text: "Nice walk!"}, f.sender.sent[0])

	// unlinked chat gets a hint and no turn
	rr = f.do(t, http.MethodPost, "/api/webhooks/telegram",
		`{"update_id":2,"message":{"message_id":8,"text":"hi","chat":{"id":999}}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, f.pipeline.calls, 1)
	require.Len(t, f.sender.sent, 2)
	assert.Equal(t, UnlinkedChatText, f.sender.sent[1].text)

	// garbage and non-text updates are acknowledged and ignored
	for _, body := range []string{`{{`, `{"update_id":3}`, `{"update_id":4,"message":{"chat":{"id":555},"text":""}}`} {
		rr = f.do(t, http.MethodPost, "/api/webhooks/telegram", body)
		assert.Equal(t, http.StatusOK, rr.Code)
	}
	assert.Len(t, f.pipeline.calls, 1)
	assert.Len(t, f.sender.sent, 2)
}

func TestDashboardTracking(t *testing.T) {
	f := newFixture(t)
	f.createUser(t)

	rr := f.do(t, http.MethodPost, "/api/users/u1/activities", `{"activityType":"walk","distanceKm":3}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	act := decode[model.Activity](t, rr)
	assert.Equal(t, model.SourceDashboard, act.Source)
	assert.Equal(t, "Walk", act.Name)

	rr = f.do(t, http.MethodPost, "/api/users/u1/activities", `{"activityType":"walk","pace":"fast"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = f.do(t, http.MethodPost, "/api/users/u1/activities", `{"activityType":"skydiving"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodGet, "/api/users/u1/activities?limit=5", "")
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[struct {
		Activities []model.Activity `json:"activities"`
		Count      int              `json:"count"`
	}](t, rr)
	assert.Equal(t, 1, list.Count)

	// a new goal picks up progress from activities already logged today
	rr = f.do(t, http.MethodPost, "/api/users/u1/goals", `{"type":"daily-steps","target":8000}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	g := decode[model.Goal](t, rr)
	assert.Equal(t, "steps", g.Unit)
	assert.Equal(t, model.ActorUser, g.CreatedBy)
	assert.InDelta(t, 3900, g.CurrentProgress, 0.001)

	rr = f.do(t, http.MethodPost, "/api/users/u1/goals", `{"type":"daily-steps","target":-1}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodGet, "/api/users/u1/goals?status=active", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), g.ID)
	rr = f.do(t, http.MethodGet, "/api/users/u1/goals?status=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodGet, "/api/users/u1/streaks", "")
	require.Equal(t, http.StatusOK, rr.Code)
	streaks := decode[struct {
		Streaks []tracking.StreakCheck `json:"streaks"`
	}](t, rr)
	types := map[model.StreakType]int{}
	for _, c := range streaks.Streaks {
		types[c.Streak.Type] = c.Streak.Count
	}
	assert.Equal(t, 1, types[model.StreakWorkout])
	assert.Equal(t, 1, types[model.StreakLogging])

	// no outbox worker ran, so the summary is derived on demand
	rr = f.do(t, http.MethodGet, "/api/users/u1/summaries/2025-06-02", "")
	require.Equal(t, http.StatusOK, rr.Code)
	sum := decode[model.DailySummary](t, rr)
	assert.Equal(t, 3900, sum.Steps)
	assert.Equal(t, 1, sum.WorkoutCount)

	rr = f.do(t, http.MethodGet, "/api/users/u1/summaries/June-2", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Status     string          `json:"status"`
		Components map[string]bool `json:"components"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, map[string]bool{"store": false}, body.Components)

	rr = f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "go_goroutines"))
}
