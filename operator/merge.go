package operator

import (
	"sync"

	"github.com/flowmesh/reactor"
)

// Merge subscribes to every source and forwards their Next signals in
// arrival order across sources. It emits Complete once every source has
// completed, or Error as soon as any source errors, cancelling the
// remaining sources.
//
// Each source is granted Unbounded demand once subscribed: true
// backpressure spans the fan-in point, not the individual sources. Merge
// paces delivery to its own downstream by queuing arrivals it cannot yet
// forward.
type Merge[T any] struct {
	Node
	sources []reactor.Publisher

	mu              sync.Mutex
	downstream      reactor.Subscriber
	upstream        []reactor.Subscription
	remaining       int
	pendingComplete bool
	completed       bool
	errored         bool
	cancelled       bool
	queue           []T
	demand          reactor.DemandCounter
	tramp           trampoline
}

var _ reactor.Source = (*Merge[any])(nil)

// NewMerge returns a Merge fan-in over sources.
func NewMerge[T any](sources ...reactor.Publisher) *Merge[T] {
	m := &Merge[T]{sources: sources, remaining: len(sources)}
	m.Node = NewNode(m)
	return m
}

// Subscribe implements reactor.Publisher.
func (m *Merge[T]) Subscribe(downstream reactor.Subscriber) {
	m.mu.Lock()
	m.downstream = downstream
	m.mu.Unlock()
	sub := reactor.NewBaseSubscription(m.onRequest, m.onCancel, m.onInvalid)
	downstream.OnSubscribe(sub)
	if len(m.sources) == 0 {
		m.emit(func() { m.downstream.OnComplete() })
		return
	}
	for _, src := range m.sources {
		src.Subscribe(&mergeBranch[T]{parent: m})
	}
}

func (m *Merge[T]) onInvalid(err error) {
	m.emit(func() { m.downstream.OnError(err) })
}

func (m *Merge[T]) onRequest(n uint64) {
	m.demand.Add(n)
	m.drain()
}

func (m *Merge[T]) onCancel() {
	m.mu.Lock()
	m.cancelled = true
	ups := append([]reactor.Subscription(nil), m.upstream...)
	m.mu.Unlock()
	for _, u := range ups {
		u.Cancel()
	}
}

func (m *Merge[T]) branchSubscribe(sub reactor.Subscription) {
	m.mu.Lock()
	m.upstream = append(m.upstream, sub)
	m.mu.Unlock()
	sub.Request(reactor.Unbounded)
}

func (m *Merge[T]) branchNext(v T) {
	m.mu.Lock()
	if m.cancelled || m.errored || m.completed {
		m.mu.Unlock()
		return
	}
	m.queue = append(m.queue, v)
	m.mu.Unlock()
	m.drain()
}

func (m *Merge[T]) branchError(err error) {
	m.mu.Lock()
	if m.errored || m.cancelled || m.completed {
		m.mu.Unlock()
		return
	}
	m.errored = true
	ups := append([]reactor.Subscription(nil), m.upstream...)
	m.mu.Unlock()
	for _, u := range ups {
		u.Cancel()
	}
	m.emit(func() { m.downstream.OnError(err) })
}

func (m *Merge[T]) branchComplete() {
	m.mu.Lock()
	m.remaining--
	if m.remaining == 0 {
		m.pendingComplete = true
	}
	m.mu.Unlock()
	m.drain()
}

func (m *Merge[T]) drain() {
	for {
		m.mu.Lock()
		if m.cancelled || m.errored || m.completed {
			m.mu.Unlock()
			return
		}
		if len(m.queue) > 0 && m.demand.TryTake() {
			v := m.queue[0]
			m.queue = m.queue[1:]
			m.mu.Unlock()
			m.emit(func() { m.downstream.OnNext(v) })
			continue
		}
		if len(m.queue) == 0 && m.pendingComplete {
			m.completed = true
			m.mu.Unlock()
			m.emit(func() { m.downstream.OnComplete() })
			return
		}
		m.mu.Unlock()
		return
	}
}

func (m *Merge[T]) emit(f func()) { m.tramp.run(f) }

// mergeBranch adapts one source's Subscriber callbacks into the parent
// Merge's bookkeeping.
type mergeBranch[T any] struct {
	parent *Merge[T]
}

func (b *mergeBranch[T]) OnSubscribe(sub reactor.Subscription) { b.parent.branchSubscribe(sub) }
func (b *mergeBranch[T]) OnNext(v any)                         { b.parent.branchNext(v.(T)) }
func (b *mergeBranch[T]) OnError(err error)                    { b.parent.branchError(err) }
func (b *mergeBranch[T]) OnComplete()                          { b.parent.branchComplete() }
