package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeChecker struct {
	name    string
	healthy atomic.Bool
}

func (f *fakeChecker) Name() string                               { return f.name }
func (f *fakeChecker) IsHealthy() bool                            { return f.healthy.Load() }
func (f *fakeChecker) Start(ctx context.Context, _ time.Duration) {}

type fakePinger struct{ fail atomic.Bool }

func (p *fakePinger) HealthPing(context.Context) error {
	if p.fail.Load() {
		return errors.New("down")
	}
	return nil
}

func TestServiceChecker_Transitions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := &fakeChecker{name: "store"}
	b := &fakeChecker{name: "llm"}
	a.healthy.Store(true)
	b.healthy.Store(true)

	svc := NewServiceChecker(zerolog.Nop(), a, b)
	go svc.Start(ctx, 10*time.Millisecond)

	waitTrue(t, svc.IsHealthy)

	b.healthy.Store(false)
	waitTrue(t, func() bool { return !svc.IsHealthy() })
	if comps := svc.Components(); comps["store"] != true || comps["llm"] != false {
		t.Fatalf("unexpected components: %v", comps)
	}

	b.healthy.Store(true)
	waitTrue(t, svc.IsHealthy)
}

func TestPingChecker_FollowsTarget(t *testing.T) {
	p := &fakePinger{}
	c := NewPingChecker("store", p, zerolog.Nop(), time.Second)
	if c.IsHealthy() {
		t.Fatalf("checker must start unhealthy")
	}
	if !c.Probe(context.Background()) || !c.IsHealthy() {
		t.Fatalf("expected healthy after successful probe")
	}
	p.fail.Store(true)
	if c.Probe(context.Background()) || c.IsHealthy() {
		t.Fatalf("expected unhealthy after failing probe")
	}
}

func waitTrue(t *testing.T, pred func() bool) {
	t.Helper()
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if pred() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met before timeout")
}
