package operator

import (
	"sync"

	"github.com/flowmesh/reactor"
)

// ReduceFunction combines the current element with the last reduced value.
type ReduceFunction[T any] func(acc, v T) T

// Reduce combines every element with an accumulator and emits exactly one
// value, at completion. If a seed was configured it is used as the initial
// accumulator; otherwise the first element seeds it. On empty input with no
// seed, Reduce emits nothing (just Complete).
//
// Because the single output cannot be produced before the upstream
// completes, Reduce requests Unbounded demand from its upstream as soon as
// it is subscribed, regardless of its own downstream's demand.
type Reduce[T any] struct {
	Node
	unaryBase
	fn      ReduceFunction[T]
	hasSeed bool
	acc     T
	have    bool

	pendingMu   sync.Mutex
	finalReady  bool
	finalErr    error
	demandReady bool
}

var _ reactor.Flow = (*Reduce[any])(nil)

// NewReduce returns a Reduce operator with no seed: the first element
// becomes the initial accumulator.
func NewReduce[T any](fn ReduceFunction[T]) *Reduce[T] {
	r := &Reduce[T]{fn: fn}
	r.Node = NewNode(r)
	return r
}

// NewReduceWithSeed returns a Reduce operator seeded with seed.
func NewReduceWithSeed[T any](seed T, fn ReduceFunction[T]) *Reduce[T] {
	r := &Reduce[T]{fn: fn, hasSeed: true, acc: seed, have: true}
	r.Node = NewNode(r)
	return r
}

// Subscribe implements reactor.Publisher.
func (r *Reduce[T]) Subscribe(downstream reactor.Subscriber) {
	r.bindDownstream(downstream, r.onRequest, r.passthroughCancel, r.forwardError)
}

// OnSubscribe implements reactor.Subscriber.
func (r *Reduce[T]) OnSubscribe(sub reactor.Subscription) {
	r.setUpstream(sub)
	r.requestUpstream(reactor.Unbounded)
}

// OnNext implements reactor.Subscriber.
func (r *Reduce[T]) OnNext(v any) {
	if !r.have {
		r.acc = v.(T)
		r.have = true
		return
	}
	var next T
	if err := guard(func() { next = r.fn(r.acc, v.(T)) }); err != nil {
		r.forwardError(err)
		return
	}
	r.acc = next
}

// OnError implements reactor.Subscriber.
func (r *Reduce[T]) OnError(err error) { r.forwardError(err) }

// OnComplete implements reactor.Subscriber.
func (r *Reduce[T]) OnComplete() {
	r.pendingMu.Lock()
	r.finalReady = true
	ready := r.demandReady
	r.pendingMu.Unlock()
	if ready {
		r.emitFinal()
	}
}

func (r *Reduce[T]) onRequest(n uint64) {
	r.pendingMu.Lock()
	r.demandReady = true
	ready := r.finalReady
	r.pendingMu.Unlock()
	if ready {
		r.emitFinal()
	}
}

func (r *Reduce[T]) emitFinal() {
	r.pendingMu.Lock()
	if !r.finalReady {
		r.pendingMu.Unlock()
		return
	}
	r.finalReady = false
	r.pendingMu.Unlock()

	if r.have {
		r.forwardNext(r.acc)
	}
	r.forwardComplete()
}
