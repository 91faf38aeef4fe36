package operator

import "github.com/flowmesh/reactor"

// IgnoreErrors swallows an Error signal from upstream and substitutes a
// Complete signal instead. The upstream subscription is cancelled the
// moment the error is swallowed.
type IgnoreErrors[T any] struct {
	Node
	unaryBase
}

var _ reactor.Flow = (*IgnoreErrors[any])(nil)

// NewIgnoreErrors returns a new IgnoreErrors operator.
func NewIgnoreErrors[T any]() *IgnoreErrors[T] {
	ie := &IgnoreErrors[T]{}
	ie.Node = NewNode(ie)
	return ie
}

// Subscribe implements reactor.Publisher.
func (ie *IgnoreErrors[T]) Subscribe(downstream reactor.Subscriber) {
	ie.bindDownstream(downstream, ie.requestUpstream, ie.passthroughCancel, ie.forwardError)
}

// OnSubscribe implements reactor.Subscriber.
func (ie *IgnoreErrors[T]) OnSubscribe(sub reactor.Subscription) { ie.setUpstream(sub) }

// OnNext implements reactor.Subscriber.
func (ie *IgnoreErrors[T]) OnNext(v any) { ie.forwardNext(v) }

// OnError implements reactor.Subscriber. Fatal errors are never swallowed.
func (ie *IgnoreErrors[T]) OnError(err error) {
	if reactor.IsKind(err, reactor.KindFatal) {
		ie.forwardError(err)
		return
	}
	ie.passthroughCancel()
	ie.forwardComplete()
}

// OnComplete implements reactor.Subscriber.
func (ie *IgnoreErrors[T]) OnComplete() { ie.forwardComplete() }
