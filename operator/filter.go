package operator

import "github.com/flowmesh/reactor"

// FilterPredicate reports whether an element should pass downstream.
type FilterPredicate[T any] func(T) bool

// Filter passes elements matching predicate downstream and discards the
// rest. Each discarded element causes Filter to issue one extra request(1)
// upstream, replacing the demand credit that would otherwise have been
// spent for nothing, so the discard does not stall downstream pacing.
//
// in  -- 1 -- 2 ---- 3 -- 4 ------ 5 --
//
// [ -------- FilterPredicate -------- ]
//
// out -- 1 -- 2 ------------------ 5 --
type Filter[T any] struct {
	Node
	unaryBase
	predicate FilterPredicate[T]
}

var _ reactor.Flow = (*Filter[any])(nil)

// NewFilter returns a new Filter operator.
func NewFilter[T any](predicate FilterPredicate[T]) *Filter[T] {
	f := &Filter[T]{predicate: predicate}
	f.Node = NewNode(f)
	return f
}

// Subscribe implements reactor.Publisher.
func (f *Filter[T]) Subscribe(downstream reactor.Subscriber) {
	f.bindDownstream(downstream, f.requestUpstream, f.passthroughCancel, f.forwardError)
}

// OnSubscribe implements reactor.Subscriber.
func (f *Filter[T]) OnSubscribe(sub reactor.Subscription) { f.setUpstream(sub) }

// OnNext implements reactor.Subscriber.
func (f *Filter[T]) OnNext(v any) {
	var keep bool
	if err := guard(func() { keep = f.predicate(v.(T)) }); err != nil {
		f.forwardError(err)
		return
	}
	if keep {
		f.forwardNext(v)
		return
	}
	// replace the lost credit so downstream pacing is unaffected.
	f.requestUpstream(1)
}

// OnError implements reactor.Subscriber.
func (f *Filter[T]) OnError(err error) { f.forwardError(err) }

// OnComplete implements reactor.Subscriber.
func (f *Filter[T]) OnComplete() { f.forwardComplete() }
