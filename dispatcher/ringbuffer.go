package dispatcher

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flowmesh/reactor"
)

// RingBuffer is a fixed-capacity, single-consumer task queue. Multiple
// producers may submit concurrently; ordering across producers is not
// guaranteed, but each producer's own submissions land in the order it
// issued them, matching spec's "per-producer FIFO" guarantee for the
// multi-producer ring-buffer variant.
//
// This is a working ring, not the platform-specific high-throughput
// disruptor implementation the surrounding system treats as an external
// collaborator whose contract, not internals, is pinned here.
type RingBuffer struct {
	buf       []func()
	capacity  uint64
	mask      uint64
	writePos  atomic.Uint64
	readPos   atomic.Uint64
	strategy  WaitStrategy
	producer  ProducerType
	running   atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
	overflow  OverflowPolicy
}

var _ Dispatcher = (*RingBuffer)(nil)

// NewRingBuffer returns a RingBuffer dispatcher. capacity is rounded up to
// the next power of two. producer selects the write-cursor discipline:
// ProducerMulti guards the cursor with a CAS loop for concurrent
// submitters, ProducerSingle advances it directly on the assumption that
// the caller never dispatches from more than one goroutine at a time.
func NewRingBuffer(capacity int, strategy WaitStrategy, overflow OverflowPolicy, producer ProducerType) *RingBuffer {
	cap64 := nextPowerOfTwo(uint64(capacity))
	rb := &RingBuffer{
		buf:      make([]func(), cap64),
		capacity: cap64,
		mask:     cap64 - 1,
		strategy: strategy,
		producer: producer,
		done:     make(chan struct{}),
		overflow: overflow,
	}
	go rb.consume()
	return rb
}

func nextPowerOfTwo(n uint64) uint64 {
	if n < 1 {
		n = 1
	}
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p
}

// Dispatch implements Dispatcher.
func (rb *RingBuffer) Dispatch(task func()) { rb.DispatchWith(task, nil) }

// DispatchWith implements Dispatcher.
func (rb *RingBuffer) DispatchWith(task func(), onReject func(error)) {
	if rb.producer == ProducerSingle {
		rb.dispatchSingleProducer(task, onReject)
		return
	}
	rb.dispatchMultiProducer(task, onReject)
}

// dispatchMultiProducer arbitrates the write cursor with a CAS loop,
// correct under any number of concurrent submitters.
func (rb *RingBuffer) dispatchMultiProducer(task func(), onReject func(error)) {
	for {
		w := rb.writePos.Load()
		r := rb.readPos.Load()
		if w-r >= rb.capacity {
			if rb.handleFull(r, onReject) {
				return
			}
			continue
		}
		if rb.writePos.CompareAndSwap(w, w+1) {
			rb.buf[w&rb.mask] = task
			return
		}
	}
}

// dispatchSingleProducer assumes the caller never calls Dispatch from more
// than one goroutine at a time, so the write cursor needs no CAS: only the
// consumer ever moves readPos concurrently with this method.
func (rb *RingBuffer) dispatchSingleProducer(task func(), onReject func(error)) {
	for {
		w := rb.writePos.Load()
		r := rb.readPos.Load()
		if w-r >= rb.capacity {
			if rb.handleFull(r, onReject) {
				return
			}
			continue
		}
		rb.buf[w&rb.mask] = task
		rb.writePos.Store(w + 1)
		return
	}
}

// handleFull applies the overflow policy when the ring is saturated. It
// returns true when the caller should stop (the submission was dropped,
// rejected, or evicted room for itself), false when the caller should
// retry after blocking.
func (rb *RingBuffer) handleFull(readCursor uint64, onReject func(error)) bool {
	switch rb.overflow {
	case OverflowDropNewest:
		return true
	case OverflowDropOldest:
		rb.readPos.CompareAndSwap(readCursor, readCursor+1)
		return false
	case OverflowReject:
		if onReject != nil {
			onReject(reactor.NewSignalError(reactor.KindOverflow, nil))
		}
		return true
	default: // OverflowBlock
		runtime.Gosched()
		return false
	}
}

func (rb *RingBuffer) consume() {
	backoff := time.Microsecond
	for {
		select {
		case <-rb.done:
			if rb.readPos.Load() == rb.writePos.Load() {
				return
			}
		default:
		}
		r := rb.readPos.Load()
		w := rb.writePos.Load()
		if r == w {
			rb.wait(&backoff)
			continue
		}
		task := rb.buf[r&rb.mask]
		if task == nil {
			// a multi-producer has claimed the slot but not yet stored it.
			rb.wait(&backoff)
			continue
		}
		rb.buf[r&rb.mask] = nil
		rb.running.Store(true)
		task()
		rb.running.Store(false)
		rb.readPos.Store(r + 1)
		backoff = time.Microsecond
	}
}

func (rb *RingBuffer) wait(backoff *time.Duration) {
	switch rb.strategy {
	case WaitBusySpin:
		// pure spin: no yield, lowest latency, highest CPU cost.
	case WaitYielding:
		runtime.Gosched()
	case WaitSleeping:
		time.Sleep(*backoff)
		if *backoff < time.Millisecond {
			*backoff *= 2
		}
	default: // WaitBlocking
		time.Sleep(time.Millisecond)
	}
}

// Shutdown implements Dispatcher: it signals the consumer to stop once the
// ring is empty and waits until every task already queued has run.
func (rb *RingBuffer) Shutdown() {
	rb.closeOnce.Do(func() { close(rb.done) })
	for rb.readPos.Load() != rb.writePos.Load() {
		runtime.Gosched()
	}
}

// InContext implements Dispatcher.
func (rb *RingBuffer) InContext() bool { return rb.running.Load() }
