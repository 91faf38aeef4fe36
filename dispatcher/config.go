package dispatcher

import (
	"fmt"
	"time"
)

// OverflowPolicy controls what a bounded dispatcher does when its task
// queue is full.
type OverflowPolicy int8

const (
	// OverflowBlock blocks the submitter until room is available.
	OverflowBlock OverflowPolicy = iota
	// OverflowDropOldest evicts the oldest queued task to make room for the
	// new one.
	OverflowDropOldest
	// OverflowDropNewest silently discards the incoming submission.
	OverflowDropNewest
	// OverflowReject invokes the submission's onReject callback with an
	// Overflow error instead of enqueueing.
	OverflowReject
)

// WaitStrategy controls how a RingBuffer's consumer waits when its queue is
// empty.
type WaitStrategy int8

const (
	// WaitBlocking sleeps a fixed short interval between polls.
	WaitBlocking WaitStrategy = iota
	// WaitBusySpin polls continuously without yielding, trading CPU for
	// the lowest possible latency.
	WaitBusySpin
	// WaitYielding calls runtime.Gosched between polls.
	WaitYielding
	// WaitSleeping backs off with exponentially increasing sleeps, capped
	// at one millisecond.
	WaitSleeping
)

// ProducerType selects a RingBuffer's write-cursor discipline.
type ProducerType int8

const (
	// ProducerMulti assumes concurrent submitters and guards the write
	// cursor with a CAS loop.
	ProducerMulti ProducerType = iota
	// ProducerSingle assumes a single submitting goroutine and advances the
	// write cursor directly, skipping the CAS loop since there is no writer
	// contention to arbitrate.
	ProducerSingle
)

// Kind selects which Dispatcher variant New builds from a Config.
type Kind int8

const (
	// KindSynchronous runs every task inline on the caller.
	KindSynchronous Kind = iota
	// KindSingleThread drains a FIFO queue on one worker goroutine.
	KindSingleThread
	// KindWorkerPool runs tasks across WorkerCount concurrent workers with
	// no ordering guarantee across submissions.
	KindWorkerPool
	// KindRingBuffer drains a fixed-capacity ring buffer, honoring
	// ProducerType and WaitStrategy.
	KindRingBuffer
)

// Config configures the dispatcher New builds: its registry name, variant,
// worker count, queue size, producer cardinality, overflow policy, and
// (for KindRingBuffer) wait strategy.
type Config struct {
	// Name identifies the dispatcher for registration in an Environment and
	// for diagnostic logging. New does not register the dispatcher itself;
	// callers do that explicitly via Environment.Register(cfg.Name, d).
	Name string
	// Kind selects which Dispatcher variant to build. Zero value is
	// KindSynchronous.
	Kind Kind
	// WorkerCount is the worker-pool parallelism, used only by
	// KindWorkerPool.
	WorkerCount int
	// QueueSize is the queue capacity for KindSingleThread and
	// KindRingBuffer (rounded up to a power of two for the latter).
	QueueSize int
	// Overflow is the overflow policy for KindSingleThread and
	// KindRingBuffer.
	Overflow OverflowPolicy
	// ProducerType selects the write-cursor discipline for KindRingBuffer.
	ProducerType ProducerType
	// WaitStrategy selects the idle-consumer discipline for
	// KindRingBuffer.
	WaitStrategy WaitStrategy
}

// DefaultConfig returns a conservative KindSingleThread configuration.
func DefaultConfig() Config {
	return Config{
		Kind:         KindSingleThread,
		WorkerCount:  1,
		QueueSize:    1024,
		Overflow:     OverflowBlock,
		ProducerType: ProducerMulti,
		WaitStrategy: WaitBlocking,
	}
}

func (c Config) validate() error {
	switch c.Kind {
	case KindWorkerPool:
		if c.WorkerCount < 1 {
			return fmt.Errorf("dispatcher: WorkerCount must be positive")
		}
	case KindSingleThread, KindRingBuffer:
		if c.QueueSize < 1 {
			return fmt.Errorf("dispatcher: QueueSize must be positive")
		}
	}
	return nil
}

// Opt is a functional option applied to a Config before New builds its
// dispatcher.
type Opt func(*Config)

// WithName sets the dispatcher's registry name.
func WithName(name string) Opt { return func(c *Config) { c.Name = name } }

// WithWorkerCount sets the worker-pool parallelism.
func WithWorkerCount(n int) Opt { return func(c *Config) { c.WorkerCount = n } }

// WithQueueSize sets the queue capacity.
func WithQueueSize(n int) Opt { return func(c *Config) { c.QueueSize = n } }

// WithOverflow sets the overflow policy.
func WithOverflow(p OverflowPolicy) Opt { return func(c *Config) { c.Overflow = p } }

// WithProducerType sets the ring-buffer producer cardinality.
func WithProducerType(p ProducerType) Opt { return func(c *Config) { c.ProducerType = p } }

// WithWaitStrategy sets the ring-buffer idle-consumer wait strategy.
func WithWaitStrategy(s WaitStrategy) Opt { return func(c *Config) { c.WaitStrategy = s } }

// New builds the Dispatcher variant selected by cfg.Kind, applying opts to
// cfg first. New panics if the resulting Config fails validation. The
// per-variant constructors (NewSingleThread, NewWorkerPool, NewRingBuffer)
// do not validate; they clamp or round out-of-range sizes instead.
func New(cfg Config, opts ...Opt) Dispatcher {
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		panic(err)
	}
	switch cfg.Kind {
	case KindWorkerPool:
		return NewWorkerPool(cfg.WorkerCount)
	case KindRingBuffer:
		return NewRingBuffer(cfg.QueueSize, cfg.WaitStrategy, cfg.Overflow, cfg.ProducerType)
	case KindSingleThread:
		return NewSingleThread(cfg.QueueSize, cfg.Overflow)
	default:
		return NewSynchronous()
	}
}

// minSampleInterval mirrors the resource policy's own floor: sampling more
// often than this buys no additional accuracy and only adds overhead.
const minSampleInterval = 50 * time.Millisecond
