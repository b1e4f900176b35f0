package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/gab-cat/cold-start-sub000/internal/actions"
	"github.com/gab-cat/cold-start-sub000/internal/api/respond"
	"github.com/gab-cat/cold-start-sub000/internal/api/validate"
	"github.com/gab-cat/cold-start-sub000/internal/model"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	maxBodyBytes     = 64 << 10
)

type trackingHandler struct {
	deps Deps
}

// pathUser returns the validated {userId} or writes a 400.
func pathUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := mux.Vars(r)["userId"]
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return "", false
	}
	return userID, true
}

func (h *trackingHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUser(w, r)
	if !ok {
		return
	}
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respond.WriteBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}
	acts, err := h.deps.Store.Activities().ListRecent(r.Context(), userID, limit)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"activities": acts, "count": len(acts)})
}

// LogActivity takes the same params as the activity-log operation and runs
// them through the executor, so dashboard entries get the same goal and
// streak maintenance as chat entries.
func (h *trackingHandler) LogActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUser(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		respond.WriteBadRequest(w, "unreadable body")
		return
	}
	action, err := actions.Decode(string(actions.OpLogActivity), body)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	loc, err := userLocation(r.Context(), h.deps.Store, userID, h.deps.DefaultLocation)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	res, err := h.deps.Executor.Execute(r.Context(), userID, action, actions.ExecContext{
		Now:      h.deps.Now(),
		Location: loc,
		Source:   model.SourceDashboard,
	})
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, res.Activity)
}

func (h *trackingHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUser(w, r)
	if !ok {
		return
	}
	var statuses []model.GoalStatus
	if v := r.URL.Query().Get("status"); v != "" {
		for _, s := range strings.Split(v, ",") {
			st := model.GoalStatus(strings.TrimSpace(s))
			if !st.Valid() {
				respond.WriteBadRequest(w, "unknown goal status "+string(st))
				return
			}
			statuses = append(statuses, st)
		}
	}
	goals, err := h.deps.Store.Goals().List(r.Context(), userID, statuses...)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"goals": goals, "count": len(goals)})
}

type createGoalRequest struct {
	Type            model.GoalType `json:"type"`
	Target          float64        `json:"target"`
	Unit            string         `json:"unit,omitempty"`
	Milestone       string         `json:"milestone,omitempty"`
	AgentAdjustable *bool          `json:"agentAdjustable,omitempty"`
}

// CreateGoal stores a user-created goal and immediately derives its progress
// from activities already logged this day and week.
func (h *trackingHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUser(w, r)
	if !ok {
		return
	}
	var in createGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	g := model.Goal{
		UserID:          userID,
		Type:            in.Type,
		Target:          in.Target,
		Unit:            in.Unit,
		Status:          model.GoalActive,
		Milestone:       in.Milestone,
		AgentAdjustable: true,
		CreatedBy:       model.ActorUser,
	}
	if in.AgentAdjustable != nil {
		g.AgentAdjustable = *in.AgentAdjustable
	}
	if g.Unit == "" {
		g.Unit = g.Type.DefaultUnit()
	}
	if err := validate.CreateGoal(g); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	ctx := r.Context()
	created, err := h.deps.Store.Goals().Create(ctx, g)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	loc, err := userLocation(ctx, h.deps.Store, userID, h.deps.DefaultLocation)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	if _, err := h.deps.Tracker.RecomputeGoals(ctx, userID, h.deps.Now(), loc); err != nil {
		h.deps.Log.Error().Stack().Err(err).Str("user_id", userID).Str("goal_id", created.ID).Msg("goal recompute failed")
		respond.WriteJSON(w, http.StatusCreated, created)
		return
	}
	fresh, err := h.deps.Store.Goals().Get(ctx, userID, created.ID)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, fresh)
}

func (h *trackingHandler) ListStreaks(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUser(w, r)
	if !ok {
		return
	}
	loc, err := userLocation(r.Context(), h.deps.Store, userID, h.deps.DefaultLocation)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	checks, err := h.deps.Tracker.StreakStatus(r.Context(), userID, h.deps.Now(), loc)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"streaks": checks, "count": len(checks)})
}

// GetSummary returns the stored summary of a local date, deriving it on
// demand when the outbox has not produced one yet.
func (h *trackingHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUser(w, r)
	if !ok {
		return
	}
	date := mux.Vars(r)["date"]
	if err := validate.Date(date); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	ctx := r.Context()
	sum, err := h.deps.Store.Summaries().Get(ctx, userID, date)
	if err == nil {
		respond.WriteJSON(w, http.StatusOK, sum)
		return
	}
	if !model.IsNotFound(err) {
		respond.WriteDomainError(w, err)
		return
	}
	loc, err := userLocation(ctx, h.deps.Store, userID, h.deps.DefaultLocation)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	sum, err = h.deps.Tracker.RecomputeDaily(ctx, userID, date, loc)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, sum)
}
