package api

import (
	"net/http"
	"time"

	"github.com/gab-cat/cold-start-sub000/internal/api/respond"
)

type healthHandler struct {
	reporter HealthReporter
	now      func() time.Time
}

type healthResponse struct {
	Status     string          `json:"status"`
	Timestamp  time.Time       `json:"timestamp"`
	Components map[string]bool `json:"components,omitempty"`
}

// CheckHealth reports the cached service health. The status code is always
// 200; callers read the status field.
func (h *healthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "healthy", Timestamp: h.now().UTC()}
	if h.reporter != nil {
		if !h.reporter.IsHealthy() {
			resp.Status = "unhealthy"
		}
		resp.Components = h.reporter.Components()
	}
	respond.WriteJSON(w, http.StatusOK, resp)
}
