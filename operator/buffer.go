package operator

import (
	"sync"
	"time"

	"github.com/flowmesh/reactor"
	"github.com/flowmesh/reactor/timer"
)

// Buffer accumulates up to size items into a slice, emits the slice, and
// resets. If a timer.Service and timeout are configured (NewBufferWithTimeout),
// a flush is also triggered timeout after the first element of the current
// buffer arrives; timeouts never flush an empty buffer. When the size
// trigger and the timer trigger race, mu serializes them so exactly one
// flush happens and the loser no-ops.
//
// Buffer absorbs upstream elements independently of downstream pace: it
// requests Unbounded upstream, and instead paces its own emission of
// completed buffers against downstream demand, queuing whatever it cannot
// yet deliver.
type Buffer[T any] struct {
	Node
	unaryBase
	size    int
	timeout time.Duration
	svc     *timer.Service

	mu         sync.Mutex
	current    []T
	reg        *timer.Registration
	queue      [][]T
	demand     reactor.DemandCounter
	upComplete bool
}

var _ reactor.Flow = (*Buffer[any])(nil)

// NewBuffer returns a Buffer that flushes only when size elements have
// accumulated. NewBuffer panics if size is not positive.
func NewBuffer[T any](size int) *Buffer[T] {
	if size < 1 {
		panic("buffer size must be positive")
	}
	b := &Buffer[T]{size: size}
	b.Node = NewNode(b)
	return b
}

// NewBufferWithTimeout returns a Buffer that also flushes timeout after the
// first element of the current buffer arrives, scheduled through svc.
func NewBufferWithTimeout[T any](size int, timeout time.Duration, svc *timer.Service) *Buffer[T] {
	if size < 1 {
		panic("buffer size must be positive")
	}
	b := &Buffer[T]{size: size, timeout: timeout, svc: svc}
	b.Node = NewNode(b)
	return b
}

// Subscribe implements reactor.Publisher.
func (b *Buffer[T]) Subscribe(downstream reactor.Subscriber) {
	b.bindDownstream(downstream, b.onRequest, b.onCancel, b.forwardError)
}

// OnSubscribe implements reactor.Subscriber.
func (b *Buffer[T]) OnSubscribe(sub reactor.Subscription) {
	b.setUpstream(sub)
	b.requestUpstream(reactor.Unbounded)
}

// OnNext implements reactor.Subscriber.
func (b *Buffer[T]) OnNext(v any) {
	b.mu.Lock()
	b.current = append(b.current, v.(T))
	if len(b.current) == 1 && b.svc != nil {
		b.reg = b.svc.Schedule(b.onTimeout, b.timeout)
	}
	var flushed []T
	if len(b.current) >= b.size {
		flushed = b.current
		b.current = nil
		if b.reg != nil {
			b.reg.Cancel()
			b.reg = nil
		}
	}
	b.mu.Unlock()
	if flushed != nil {
		b.push(flushed)
	}
}

func (b *Buffer[T]) onTimeout() {
	b.mu.Lock()
	var flushed []T
	if len(b.current) > 0 {
		flushed = b.current
		b.current = nil
	}
	b.reg = nil
	b.mu.Unlock()
	if flushed != nil {
		b.push(flushed)
	}
}

func (b *Buffer[T]) push(batch []T) {
	b.mu.Lock()
	b.queue = append(b.queue, batch)
	b.mu.Unlock()
	b.drain()
}

func (b *Buffer[T]) drain() {
	for {
		b.mu.Lock()
		if len(b.queue) == 0 || !b.demand.TryTake() {
			b.mu.Unlock()
			return
		}
		batch := b.queue[0]
		b.queue = b.queue[1:]
		complete := b.upComplete && len(b.queue) == 0
		b.mu.Unlock()
		b.forwardNext(batch)
		if complete {
			b.forwardComplete()
			return
		}
	}
}

func (b *Buffer[T]) onRequest(n uint64) {
	b.demand.Add(n)
	b.drain()
}

func (b *Buffer[T]) onCancel() {
	b.mu.Lock()
	if b.reg != nil {
		b.reg.Cancel()
		b.reg = nil
	}
	b.mu.Unlock()
	b.passthroughCancel()
}

// OnError implements reactor.Subscriber.
func (b *Buffer[T]) OnError(err error) {
	b.mu.Lock()
	if b.reg != nil {
		b.reg.Cancel()
		b.reg = nil
	}
	b.mu.Unlock()
	b.forwardError(err)
}

// OnComplete implements reactor.Subscriber.
func (b *Buffer[T]) OnComplete() {
	b.mu.Lock()
	var flushed []T
	if len(b.current) > 0 {
		flushed = b.current
		b.current = nil
	}
	b.upComplete = true
	if b.reg != nil {
		b.reg.Cancel()
		b.reg = nil
	}
	b.mu.Unlock()

	if flushed != nil {
		b.push(flushed)
		return
	}
	b.mu.Lock()
	empty := len(b.queue) == 0
	b.mu.Unlock()
	if empty {
		b.forwardComplete()
	} else {
		b.drain()
	}
}
