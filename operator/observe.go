package operator

import "github.com/flowmesh/reactor"

// ObserveFunction is a side-effecting callback invoked for each element.
type ObserveFunction[T any] func(T)

// Observe invokes a side-effect callback for each element and passes the
// element through unchanged. A panic raised by the callback is wrapped and
// surfaced as an Error signal, cancelling the upstream.
type Observe[T any] struct {
	Node
	unaryBase
	callback ObserveFunction[T]
}

var _ reactor.Flow = (*Observe[any])(nil)

// NewObserve returns a new Observe operator.
func NewObserve[T any](callback ObserveFunction[T]) *Observe[T] {
	o := &Observe[T]{callback: callback}
	o.Node = NewNode(o)
	return o
}

// Subscribe implements reactor.Publisher.
func (o *Observe[T]) Subscribe(downstream reactor.Subscriber) {
	o.bindDownstream(downstream, o.requestUpstream, o.passthroughCancel, o.forwardError)
}

// OnSubscribe implements reactor.Subscriber.
func (o *Observe[T]) OnSubscribe(sub reactor.Subscription) { o.setUpstream(sub) }

// OnNext implements reactor.Subscriber.
func (o *Observe[T]) OnNext(v any) {
	if err := guard(func() { o.callback(v.(T)) }); err != nil {
		o.passthroughCancel()
		o.forwardError(err)
		return
	}
	o.forwardNext(v)
}

// OnError implements reactor.Subscriber.
func (o *Observe[T]) OnError(err error) { o.forwardError(err) }

// OnComplete implements reactor.Subscriber.
func (o *Observe[T]) OnComplete() { o.forwardComplete() }
