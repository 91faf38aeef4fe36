package operator

import (
	"errors"

	"github.com/flowmesh/reactor"
)

// When catches an Error signal whose cause matches type E (via errors.As),
// invokes handler with the matched error, and completes the stream instead
// of propagating the error. It does not emit a replacement Next. Errors
// that do not match E are forwarded unchanged.
type When[E error] struct {
	Node
	unaryBase
	handler func(E)
}

var _ reactor.Flow = (*When[*reactor.SignalError])(nil)

// NewWhen returns a new When operator matching errors of type E.
func NewWhen[E error](handler func(E)) *When[E] {
	w := &When[E]{handler: handler}
	w.Node = NewNode(w)
	return w
}

// Subscribe implements reactor.Publisher.
func (w *When[E]) Subscribe(downstream reactor.Subscriber) {
	w.bindDownstream(downstream, w.requestUpstream, w.passthroughCancel, w.forwardError)
}

// OnSubscribe implements reactor.Subscriber.
func (w *When[E]) OnSubscribe(sub reactor.Subscription) { w.setUpstream(sub) }

// OnNext implements reactor.Subscriber.
func (w *When[E]) OnNext(v any) { w.forwardNext(v) }

// OnError implements reactor.Subscriber. Fatal errors are never swallowed.
func (w *When[E]) OnError(err error) {
	if reactor.IsKind(err, reactor.KindFatal) {
		w.forwardError(err)
		return
	}
	var matched E
	if errors.As(err, &matched) {
		func() {
			defer func() { recover() }() //nolint:errcheck // handler runs best-effort
			w.handler(matched)
		}()
		w.passthroughCancel()
		w.forwardComplete()
		return
	}
	w.forwardError(err)
}

// OnComplete implements reactor.Subscriber.
func (w *When[E]) OnComplete() { w.forwardComplete() }
