package operator

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flowmesh/reactor"
	"github.com/flowmesh/reactor/internal/sysmonitor"
	"github.com/flowmesh/reactor/timer"
)

const smoothingFactor = 0.3

// minSampleInterval mirrors dispatcher.ResourcePolicy's own floor.
const minSampleInterval = 50 * time.Millisecond

// AdaptiveThrottleConfig configures AdaptiveThrottle's feedback loop: its
// resource thresholds, sampling interval, and backoff/recovery/hysteresis
// rate-adjustment behavior.
type AdaptiveThrottleConfig struct {
	MaxMemoryPercent float64
	MaxCPUPercent    float64
	SampleInterval   time.Duration

	InitialRate int
	MinRate     int
	MaxRate     int

	BackoffFactor           float64
	RecoveryCPUThreshold    float64
	RecoveryMemoryThreshold float64
	RecoveryFactor          float64
	EnableHysteresis        bool
}

// DefaultAdaptiveThrottleConfig returns safe defaults.
func DefaultAdaptiveThrottleConfig() AdaptiveThrottleConfig {
	return AdaptiveThrottleConfig{
		MaxMemoryPercent: 85.0,
		MaxCPUPercent:    80.0,
		SampleInterval:   100 * time.Millisecond,
		InitialRate:      1000,
		MinRate:          10,
		MaxRate:          10000,
		BackoffFactor:    0.7,
		RecoveryFactor:   1.3,
		EnableHysteresis: true,
	}
}

func (c *AdaptiveThrottleConfig) validate() error {
	if c.SampleInterval < minSampleInterval {
		return fmt.Errorf("adaptiveThrottle: sample interval must be at least %v", minSampleInterval)
	}
	if c.MaxMemoryPercent <= 0 || c.MaxMemoryPercent > 100 {
		return fmt.Errorf("adaptiveThrottle: MaxMemoryPercent must be between 0 and 100")
	}
	if c.MaxCPUPercent < 0 || c.MaxCPUPercent > 100 {
		return fmt.Errorf("adaptiveThrottle: MaxCPUPercent must be between 0 and 100")
	}
	if c.RecoveryMemoryThreshold == 0 {
		c.RecoveryMemoryThreshold = c.MaxMemoryPercent - 10
		if c.RecoveryMemoryThreshold < 0 {
			c.RecoveryMemoryThreshold = c.MaxMemoryPercent * 0.9
		}
	}
	if c.RecoveryCPUThreshold == 0 {
		c.RecoveryCPUThreshold = c.MaxCPUPercent - 10
		if c.RecoveryCPUThreshold < 0 {
			c.RecoveryCPUThreshold = c.MaxCPUPercent * 0.9
		}
	}
	if c.BackoffFactor >= 1.0 || c.BackoffFactor <= 0 {
		return fmt.Errorf("adaptiveThrottle: BackoffFactor must be between 0 and 1")
	}
	if c.MinRate <= 0 {
		return fmt.Errorf("adaptiveThrottle: MinRate must be greater than 0")
	}
	if c.MaxRate <= c.MinRate {
		return fmt.Errorf("adaptiveThrottle: MaxRate must be greater than MinRate")
	}
	if c.InitialRate < c.MinRate || c.InitialRate > c.MaxRate {
		return fmt.Errorf("adaptiveThrottle: InitialRate must be between MinRate and MaxRate")
	}
	if c.RecoveryFactor <= 1.0 {
		return fmt.Errorf("adaptiveThrottle: RecoveryFactor must be greater than 1")
	}
	return nil
}

// AdaptiveThrottle is a resource-aware rate limiter: it paces forwarded
// elements at a token-bucket rate that a periodic feedback loop adjusts
// down when CPU or memory usage exceeds configured thresholds, and back up
// once usage falls below the recovery thresholds. Pacing uses the same
// queue-plus-timer pattern the other aggregator operators use. Elements
// that arrive faster than the current rate allows are queued and drained
// as the rate and downstream demand both permit.
type AdaptiveThrottle[T any] struct {
	Node
	unaryBase
	config  AdaptiveThrottleConfig
	sampler *sysmonitor.Sampler
	svc     *timer.Service

	rateBits atomic.Uint64

	mu           sync.Mutex
	queue        []T
	demand       reactor.DemandCounter
	nextEmission time.Time
	pending      *timer.Registration
	rateReg      *timer.Registration
	upComplete   bool
}

var _ reactor.Flow = (*AdaptiveThrottle[any])(nil)

// NewAdaptiveThrottle returns an AdaptiveThrottle operator, or an error if
// config fails validation.
func NewAdaptiveThrottle[T any](config AdaptiveThrottleConfig, svc *timer.Service) (*AdaptiveThrottle[T], error) {
	if svc == nil {
		panic("adaptiveThrottle requires a non-nil timer.Service")
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	at := &AdaptiveThrottle[T]{
		config:  config,
		sampler: sysmonitor.NewSampler(config.SampleInterval),
		svc:     svc,
	}
	at.setRate(float64(config.InitialRate))
	at.Node = NewNode(at)
	return at, nil
}

func (at *AdaptiveThrottle[T]) setRate(rate float64) {
	at.rateBits.Store(math.Float64bits(rate))
}

// CurrentRate returns the current processing rate, in items per second.
func (at *AdaptiveThrottle[T]) CurrentRate() float64 {
	return math.Float64frombits(at.rateBits.Load())
}

// Subscribe implements reactor.Publisher.
func (at *AdaptiveThrottle[T]) Subscribe(downstream reactor.Subscriber) {
	at.bindDownstream(downstream, at.onRequest, at.onCancel, at.forwardError)
}

// OnSubscribe implements reactor.Subscriber.
func (at *AdaptiveThrottle[T]) OnSubscribe(sub reactor.Subscription) {
	at.setUpstream(sub)
	at.mu.Lock()
	at.nextEmission = time.Now()
	at.rateReg = at.svc.SchedulePeriodic(at.adjustRate, at.config.SampleInterval)
	at.mu.Unlock()
	at.requestUpstream(reactor.Unbounded)
}

// adjustRate applies the backoff/recovery/hysteresis formula.
func (at *AdaptiveThrottle[T]) adjustRate() {
	cpu := at.sampler.CPUPercent()
	mem := at.sampler.MemoryPercent()
	current := at.CurrentRate()

	isConstrained := mem > at.config.MaxMemoryPercent || cpu > at.config.MaxCPUPercent
	isBelowRecovery := mem < at.config.RecoveryMemoryThreshold && cpu < at.config.RecoveryCPUThreshold
	shouldIncrease := !isConstrained && (!at.config.EnableHysteresis || isBelowRecovery)

	target := current
	switch {
	case isConstrained:
		target *= at.config.BackoffFactor
	case shouldIncrease:
		target *= at.config.RecoveryFactor
		if target > float64(at.config.MaxRate) {
			target = float64(at.config.MaxRate)
		}
	}

	newRate := current + (target-current)*smoothingFactor
	if newRate < float64(at.config.MinRate) {
		newRate = float64(at.config.MinRate)
	}
	at.setRate(newRate)
}

// OnNext implements reactor.Subscriber.
func (at *AdaptiveThrottle[T]) OnNext(v any) {
	at.mu.Lock()
	at.queue = append(at.queue, v.(T))
	at.mu.Unlock()
	at.drain()
}

// drain emits queued elements that are both rate-gated and demand-gated,
// rescheduling itself against the rate gate when the queue is nonempty but
// the next emission slot hasn't arrived yet.
func (at *AdaptiveThrottle[T]) drain() {
	for {
		at.mu.Lock()
		if len(at.queue) == 0 {
			at.mu.Unlock()
			return
		}
		now := time.Now()
		if now.Before(at.nextEmission) {
			wait := at.nextEmission.Sub(now)
			if at.pending == nil {
				at.pending = at.svc.Schedule(at.onPendingFire, wait)
			}
			at.mu.Unlock()
			return
		}
		if !at.demand.TryTake() {
			at.mu.Unlock()
			return
		}
		v := at.queue[0]
		at.queue = at.queue[1:]
		rate := at.CurrentRate()
		if rate < 1.0 {
			rate = 1.0
		}
		at.nextEmission = now.Add(time.Duration(float64(time.Second) / rate))
		complete := at.upComplete && len(at.queue) == 0
		at.mu.Unlock()

		at.forwardNext(v)
		if complete {
			at.forwardComplete()
			return
		}
	}
}

func (at *AdaptiveThrottle[T]) onPendingFire() {
	at.mu.Lock()
	at.pending = nil
	at.mu.Unlock()
	at.drain()
}

func (at *AdaptiveThrottle[T]) onRequest(n uint64) {
	at.demand.Add(n)
	at.drain()
}

func (at *AdaptiveThrottle[T]) cancelTimersLocked() {
	if at.pending != nil {
		at.pending.Cancel()
		at.pending = nil
	}
	if at.rateReg != nil {
		at.rateReg.Cancel()
		at.rateReg = nil
	}
}

func (at *AdaptiveThrottle[T]) onCancel() {
	at.mu.Lock()
	at.cancelTimersLocked()
	at.mu.Unlock()
	at.sampler.Close()
	at.passthroughCancel()
}

// OnError implements reactor.Subscriber.
func (at *AdaptiveThrottle[T]) OnError(err error) {
	at.mu.Lock()
	at.cancelTimersLocked()
	at.mu.Unlock()
	at.sampler.Close()
	at.forwardError(err)
}

// OnComplete implements reactor.Subscriber.
func (at *AdaptiveThrottle[T]) OnComplete() {
	at.mu.Lock()
	at.cancelTimersLocked()
	at.upComplete = true
	empty := len(at.queue) == 0
	at.mu.Unlock()
	at.sampler.Close()
	if empty {
		at.forwardComplete()
	} else {
		at.drain()
	}
}
