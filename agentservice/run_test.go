package agentservice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gab-cat/cold-start-sub000/internal/config"
)

type flagChecker struct{ ok bool }

func (f flagChecker) Name() string                         { return "store" }
func (f flagChecker) IsHealthy() bool                      { return f.ok }
func (f flagChecker) Start(context.Context, time.Duration) {}

func TestCalculateStartupHealthTimeout(t *testing.T) {
	assert.Equal(t, 60, calculateStartupHealthTimeout(1))
	assert.Equal(t, 60, calculateStartupHealthTimeout(30))
	assert.Equal(t, 90, calculateStartupHealthTimeout(45))
}

func TestWaitUntilHealthy(t *testing.T) {
	cfg := config.NewForTesting()
	assert.NoError(t, waitUntilHealthy(context.Background(), cfg, flagChecker{ok: true}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, waitUntilHealthy(ctx, cfg, flagChecker{ok: false}), context.Canceled)
}

func TestWriteTimeoutCoversTurn(t *testing.T) {
	cfg := config.NewForTesting()
	srv := newHTTPServer(context.Background(), cfg, nil)
	assert.Greater(t, srv.WriteTimeout, cfg.TurnTimeout)
	assert.Equal(t, ":8080", srv.Addr)
}
