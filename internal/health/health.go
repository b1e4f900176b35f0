package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Checker is implemented by component-level checkers (store, index, embedder, llm).
type Checker interface {
	Name() string
	IsHealthy() bool
	Start(ctx context.Context, interval time.Duration)
}

// ServiceChecker folds component checkers into one service health flag.
type ServiceChecker struct {
	healthy atomic.Bool
	deps    []Checker
	log     zerolog.Logger
}

func NewServiceChecker(log zerolog.Logger, deps ...Checker) *ServiceChecker {
	return &ServiceChecker{deps: deps, log: log}
}

// IsHealthy returns the cached service health.
func (h *ServiceChecker) IsHealthy() bool { return h.healthy.Load() }

// Components reports the cached health of every dependency by name.
func (h *ServiceChecker) Components() map[string]bool {
	out := make(map[string]bool, len(h.deps))
	for _, c := range h.deps {
		out[c.Name()] = c.IsHealthy()
	}
	return out
}

// Start starts every dependency checker and then re-evaluates the service
// flag on each tick until ctx is done.
func (h *ServiceChecker) Start(ctx context.Context, interval time.Duration) {
	for _, c := range h.deps {
		go c.Start(ctx, interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := false
	eval := func() {
		all := true
		for _, c := range h.deps {
			if !c.IsHealthy() {
				all = false
				break
			}
		}
		h.healthy.Store(all)
		if all != prev {
			if all {
				h.log.Info().Msg("service health: UP")
			} else {
				h.log.Error().Interface("components", h.Components()).Msg("service health: DOWN")
			}
			prev = all
		}
	}

	eval()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			eval()
		}
	}
}
