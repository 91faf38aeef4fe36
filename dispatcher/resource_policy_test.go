package dispatcher_test

import (
	"testing"
	"time"

	"github.com/flowmesh/reactor"
	"github.com/flowmesh/reactor/dispatcher"
	"github.com/flowmesh/reactor/internal/assert"
)

func TestResourcePolicy_AdmitsUnderHeadroom(t *testing.T) {
	cfg := dispatcher.DefaultResourcePolicyConfig()
	cfg.MaxMemoryPercent = 100
	cfg.MaxCPUPercent = 100
	rp := dispatcher.NewResourcePolicy(dispatcher.NewSynchronous(), cfg)
	defer rp.Shutdown()

	ran := false
	rp.Dispatch(func() { ran = true })
	assert.Equal(t, true, ran)
}

func TestResourcePolicy_RejectsOverThreshold(t *testing.T) {
	cfg := dispatcher.DefaultResourcePolicyConfig()
	cfg.MaxMemoryPercent = 0.0001
	cfg.MaxCPUPercent = 0.0001
	cfg.SampleInterval = 50 * time.Millisecond
	rp := dispatcher.NewResourcePolicy(dispatcher.NewSynchronous(), cfg)
	defer rp.Shutdown()

	var rejected bool
	var ran bool
	rp.DispatchWith(func() { ran = true }, func(err error) {
		rejected = true
		if !reactor.IsKind(err, reactor.KindOverflow) {
			t.Errorf("expected an overflow error, got %v", err)
		}
	})
	if !rejected || ran {
		t.Fatalf("expected rejection with a near-zero threshold; rejected=%v ran=%v", rejected, ran)
	}
}

func TestResourcePolicy_NormalizesInvalidConfig(t *testing.T) {
	cfg := dispatcher.ResourcePolicyConfig{MaxMemoryPercent: -5, MaxCPUPercent: 200, SampleInterval: 0}
	rp := dispatcher.NewResourcePolicy(dispatcher.NewSynchronous(), cfg)
	defer rp.Shutdown()

	// With a malformed config normalized to sane defaults, an ordinary
	// dispatch should still be admitted rather than always-rejected.
	ran := false
	rp.Dispatch(func() { ran = true })
	assert.Equal(t, true, ran)
}
