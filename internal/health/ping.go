package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Pinger can be implemented by components to expose a health probe.
// HealthPing must return nil when the component is healthy.
type Pinger interface {
	HealthPing(ctx context.Context) error
}

// PingChecker polls a Pinger and caches the result. It starts unhealthy until
// the first successful probe.
type PingChecker struct {
	name         string
	target       Pinger
	healthy      atomic.Bool
	log          zerolog.Logger
	probeTimeout time.Duration
}

func NewPingChecker(name string, target Pinger, log zerolog.Logger, probeTimeout time.Duration) *PingChecker {
	if probeTimeout <= 0 {
		probeTimeout = 2 * time.Second
	}
	return &PingChecker{name: name, target: target, log: log, probeTimeout: probeTimeout}
}

func (c *PingChecker) Name() string    { return c.name }
func (c *PingChecker) IsHealthy() bool { return c.healthy.Load() }

func (c *PingChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Probe(ctx)
		}
	}
}

// Probe runs one health ping and records the result.
func (c *PingChecker) Probe(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	if err := c.target.HealthPing(probeCtx); err != nil {
		if c.healthy.Swap(false) {
			c.log.Error().Stack().Str("checker", c.name).Err(err).Msg("health check failed")
		}
		return false
	}
	if !c.healthy.Swap(true) {
		c.log.Info().Str("checker", c.name).Msg("health check recovered")
	}
	return true
}
