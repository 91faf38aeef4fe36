package operator

import (
	"sync"

	"github.com/flowmesh/reactor"
)

// FlatMapFunction produces a per-element sub-publisher whose Next signals
// are merged into the outer stream.
type FlatMapFunction[T, R any] func(v T) reactor.Publisher

// FlatMap subscribes to fn(v) for each input v and merges every inner
// publisher's Next signals into one output stream. It completes once the
// outer upstream and every inner subscription it spawned have completed.
type FlatMap[T, R any] struct {
	Node
	fn FlatMapFunction[T, R]

	mu         sync.Mutex
	downstream reactor.Subscriber
	upstream   reactor.Subscription
	active     int
	upDone     bool
	completed  bool
	errored    bool
	cancelled  bool
	queue      []R
	demand     reactor.DemandCounter
	tramp      trampoline
}

var _ reactor.Flow = (*FlatMap[any, any])(nil)

// NewFlatMap returns a FlatMap operator.
func NewFlatMap[T, R any](fn FlatMapFunction[T, R]) *FlatMap[T, R] {
	f := &FlatMap[T, R]{fn: fn}
	f.Node = NewNode(f)
	return f
}

// Subscribe implements reactor.Publisher.
func (f *FlatMap[T, R]) Subscribe(downstream reactor.Subscriber) {
	f.mu.Lock()
	f.downstream = downstream
	f.mu.Unlock()
	sub := reactor.NewBaseSubscription(f.onRequest, f.onCancel, f.onInvalid)
	downstream.OnSubscribe(sub)
}

func (f *FlatMap[T, R]) onInvalid(err error) { f.emit(func() { f.downstream.OnError(err) }) }

// OnSubscribe implements reactor.Subscriber.
func (f *FlatMap[T, R]) OnSubscribe(sub reactor.Subscription) {
	f.mu.Lock()
	f.upstream = sub
	f.mu.Unlock()
	sub.Request(reactor.Unbounded)
}

// OnNext implements reactor.Subscriber.
func (f *FlatMap[T, R]) OnNext(v any) {
	var inner reactor.Publisher
	if err := guard(func() { inner = f.fn(v.(T)) }); err != nil {
		f.OnError(err)
		return
	}
	f.mu.Lock()
	f.active++
	f.mu.Unlock()
	inner.Subscribe(&flatMapBranch[T, R]{parent: f})
}

// OnError implements reactor.Subscriber.
func (f *FlatMap[T, R]) OnError(err error) {
	f.mu.Lock()
	if f.errored || f.cancelled || f.completed {
		f.mu.Unlock()
		return
	}
	f.errored = true
	f.mu.Unlock()
	f.emit(func() { f.downstream.OnError(err) })
}

// OnComplete implements reactor.Subscriber.
func (f *FlatMap[T, R]) OnComplete() {
	f.mu.Lock()
	f.upDone = true
	f.mu.Unlock()
	f.drain()
}

func (f *FlatMap[T, R]) branchNext(v R) {
	f.mu.Lock()
	if f.errored || f.cancelled || f.completed {
		f.mu.Unlock()
		return
	}
	f.queue = append(f.queue, v)
	f.mu.Unlock()
	f.drain()
}

func (f *FlatMap[T, R]) branchError(err error) { f.OnError(err) }

func (f *FlatMap[T, R]) branchComplete() {
	f.mu.Lock()
	f.active--
	f.mu.Unlock()
	f.drain()
}

func (f *FlatMap[T, R]) onRequest(n uint64) {
	f.demand.Add(n)
	f.drain()
}

func (f *FlatMap[T, R]) onCancel() {
	f.mu.Lock()
	f.cancelled = true
	up := f.upstream
	f.mu.Unlock()
	if up != nil {
		up.Cancel()
	}
}

func (f *FlatMap[T, R]) drain() {
	for {
		f.mu.Lock()
		if f.cancelled || f.errored || f.completed {
			f.mu.Unlock()
			return
		}
		if len(f.queue) > 0 && f.demand.TryTake() {
			v := f.queue[0]
			f.queue = f.queue[1:]
			f.mu.Unlock()
			f.emit(func() { f.downstream.OnNext(v) })
			continue
		}
		if len(f.queue) == 0 && f.upDone && f.active == 0 {
			f.completed = true
			f.mu.Unlock()
			f.emit(func() { f.downstream.OnComplete() })
			return
		}
		f.mu.Unlock()
		return
	}
}

func (f *FlatMap[T, R]) emit(fn func()) { f.tramp.run(fn) }

// flatMapBranch adapts one inner publisher's Subscriber callbacks into the
// parent FlatMap's bookkeeping.
type flatMapBranch[T, R any] struct {
	parent *FlatMap[T, R]
}

func (b *flatMapBranch[T, R]) OnSubscribe(sub reactor.Subscription) { sub.Request(reactor.Unbounded) }
func (b *flatMapBranch[T, R]) OnNext(v any)                         { b.parent.branchNext(v.(R)) }
func (b *flatMapBranch[T, R]) OnError(err error)                    { b.parent.branchError(err) }
func (b *flatMapBranch[T, R]) OnComplete()                          { b.parent.branchComplete() }
