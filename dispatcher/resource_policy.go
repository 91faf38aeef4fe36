package dispatcher

import (
	"time"

	"github.com/flowmesh/reactor"
	"github.com/flowmesh/reactor/internal/sysmonitor"
)

// ResourcePolicyConfig configures ResourcePolicy's admission thresholds.
type ResourcePolicyConfig struct {
	// MaxMemoryPercent is the usage percentage above which submissions are
	// rejected. Default: 85.0.
	MaxMemoryPercent float64
	// MaxCPUPercent is the usage percentage above which submissions are
	// rejected. Default: 80.0.
	MaxCPUPercent float64
	// SampleInterval bounds how often the policy re-reads CPU and memory.
	// Minimum: 50ms. Default: 100ms.
	SampleInterval time.Duration
}

// DefaultResourcePolicyConfig returns conservative defaults.
func DefaultResourcePolicyConfig() ResourcePolicyConfig {
	return ResourcePolicyConfig{
		MaxMemoryPercent: 85.0,
		MaxCPUPercent:    80.0,
		SampleInterval:   100 * time.Millisecond,
	}
}

func (c *ResourcePolicyConfig) normalize() {
	if c.SampleInterval < minSampleInterval {
		c.SampleInterval = minSampleInterval
	}
	if c.MaxMemoryPercent <= 0 || c.MaxMemoryPercent > 100 {
		c.MaxMemoryPercent = 85.0
	}
	if c.MaxCPUPercent <= 0 || c.MaxCPUPercent > 100 {
		c.MaxCPUPercent = 80.0
	}
}

// ResourcePolicy wraps a Dispatcher and rejects submissions with
// Error(Overflow) whenever CPU or memory usage exceeds the configured
// thresholds, instead of admitting work the host cannot keep up with.
type ResourcePolicy struct {
	inner   Dispatcher
	config  ResourcePolicyConfig
	sampler *sysmonitor.Sampler
}

var _ Dispatcher = (*ResourcePolicy)(nil)

// NewResourcePolicy wraps inner with resource-aware admission control.
func NewResourcePolicy(inner Dispatcher, config ResourcePolicyConfig) *ResourcePolicy {
	config.normalize()
	return &ResourcePolicy{
		inner:   inner,
		config:  config,
		sampler: sysmonitor.NewSampler(config.SampleInterval),
	}
}

// Dispatch implements Dispatcher.
func (rp *ResourcePolicy) Dispatch(task func()) { rp.DispatchWith(task, nil) }

// DispatchWith implements Dispatcher.
func (rp *ResourcePolicy) DispatchWith(task func(), onReject func(error)) {
	if rp.sampler.MemoryPercent() > rp.config.MaxMemoryPercent ||
		rp.sampler.CPUPercent() > rp.config.MaxCPUPercent {
		if onReject != nil {
			onReject(reactor.NewSignalError(reactor.KindOverflow, nil))
		}
		return
	}
	rp.inner.DispatchWith(task, onReject)
}

// Shutdown implements Dispatcher.
func (rp *ResourcePolicy) Shutdown() {
	rp.sampler.Close()
	rp.inner.Shutdown()
}

// InContext implements Dispatcher.
func (rp *ResourcePolicy) InContext() bool { return rp.inner.InContext() }
