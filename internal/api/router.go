// Package api is the HTTP surface of the agent service.
package api

import (
	"context"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gab-cat/cold-start-sub000/internal/actions"
	"github.com/gab-cat/cold-start-sub000/internal/agent"
	"github.com/gab-cat/cold-start-sub000/internal/api/recovery"
	"github.com/gab-cat/cold-start-sub000/internal/messaging"
	"github.com/gab-cat/cold-start-sub000/internal/model"
	"github.com/gab-cat/cold-start-sub000/internal/store"
	"github.com/gab-cat/cold-start-sub000/internal/tracking"
)

// MessageProcessor runs one conversational turn; *agent.Pipeline satisfies it.
type MessageProcessor interface {
	ProcessMessage(ctx context.Context, userID, text string, clientTS *time.Time) agent.Reply
}

type ActionExecutor interface {
	Execute(ctx context.Context, userID string, a actions.Action, ec actions.ExecContext) (actions.Result, error)
}

// Tracker is the subset of *tracking.Maintainer the dashboard endpoints need.
type Tracker interface {
	RecomputeGoals(ctx context.Context, userID string, now time.Time, loc *time.Location) ([]model.Goal, error)
	StreakStatus(ctx context.Context, userID string, now time.Time, loc *time.Location) ([]tracking.StreakCheck, error)
	RecomputeDaily(ctx context.Context, userID, date string, loc *time.Location) (*model.DailySummary, error)
}

// HealthReporter exposes cached service health; *health.ServiceChecker satisfies it.
type HealthReporter interface {
	IsHealthy() bool
	Components() map[string]bool
}

// Deps wires the router. Sender may be nil when no platform is configured.
type Deps struct {
	Store           store.Store
	Pipeline        MessageProcessor
	Executor        ActionExecutor
	Tracker         Tracker
	Sender          messaging.Sender
	Health          HealthReporter
	DefaultLocation *time.Location
	Log             zerolog.Logger
	Now             func() time.Time
}

// NewRouter registers every route of the service.
func NewRouter(d Deps) *mux.Router {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.DefaultLocation == nil {
		d.DefaultLocation = time.UTC
	}
	if d.Sender == nil {
		d.Sender = messaging.Disabled{Name: messaging.PlatformTelegram}
	}

	router := mux.NewRouter()
	router.Use(recovery.New(d.Log))

	users := &userHandler{deps: d}
	chat := &messageHandler{deps: d, log: d.Log.With().Str("component", "api.messages").Logger()}
	track := &trackingHandler{deps: d}
	hh := &healthHandler{reporter: d.Health, now: d.Now}

	// Health & metrics
	router.HandleFunc("/api/health", hh.CheckHealth).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Conversation
	router.HandleFunc("/api/users/{userId}/messages", chat.PostMessage).Methods("POST")
	router.HandleFunc("/api/webhooks/telegram", chat.TelegramWebhook).Methods("POST")

	// Profiles
	router.HandleFunc("/api/users", users.CreateUser).Methods("POST")
	router.HandleFunc("/api/users/{userId}", users.GetUser).Methods("GET")

	// Dashboard
	router.HandleFunc("/api/users/{userId}/activities", track.ListActivities).Methods("GET")
	router.HandleFunc("/api/users/{userId}/activities", track.LogActivity).Methods("POST")
	router.HandleFunc("/api/users/{userId}/goals", track.ListGoals).Methods("GET")
	router.HandleFunc("/api/users/{userId}/goals", track.CreateGoal).Methods("POST")
	router.HandleFunc("/api/users/{userId}/streaks", track.ListStreaks).Methods("GET")
	router.HandleFunc("/api/users/{userId}/summaries/{date}", track.GetSummary).Methods("GET")

	return router
}

// userLocation resolves the user's timezone, falling back to def when the
// profile does not exist.
func userLocation(ctx context.Context, s store.Store, userID string, def *time.Location) (*time.Location, error) {
	p, err := s.Profiles().Get(ctx, userID)
	if err != nil {
		if model.IsNotFound(err) {
			return def, nil
		}
		return nil, err
	}
	return p.Location(def), nil
}
