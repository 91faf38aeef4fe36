package operator

import (
	"github.com/flowmesh/reactor"
	"github.com/flowmesh/reactor/dispatcher"
)

// DispatchOn is the boundary operator: each upstream Next, Error, or
// Complete is enqueued as a task on disp rather than delivered inline.
// request(n) is the exception: it flows straight to upstream without ever
// touching the dispatcher, since demand is pulled, not scheduled.
//
// Credit accounting happens at enqueue time, not at task-execution time:
// OnNext consumes one unit of the demand already granted by downstream
// before it hands the delivery off to disp. That keeps accounting correct
// even against a non-ordered dispatcher, such as dispatcher.WorkerPool,
// where enqueued tasks may run out of order or with arbitrary delay. The
// credit is spent the moment the task is created, so a later onRequest
// call never double-grants it.
type DispatchOn[T any] struct {
	Node
	unaryBase
	disp dispatcher.Dispatcher

	demand reactor.DemandCounter
}

var _ reactor.Flow = (*DispatchOn[any])(nil)

// NewDispatchOn returns a DispatchOn operator delivering signals through disp.
func NewDispatchOn[T any](disp dispatcher.Dispatcher) *DispatchOn[T] {
	if disp == nil {
		panic("dispatchOn requires a non-nil dispatcher.Dispatcher")
	}
	d := &DispatchOn[T]{disp: disp}
	d.Node = NewNode(d)
	return d
}

// Subscribe implements reactor.Publisher.
func (d *DispatchOn[T]) Subscribe(downstream reactor.Subscriber) {
	d.bindDownstream(downstream, d.onRequest, d.passthroughCancel, d.forwardError)
}

// OnSubscribe implements reactor.Subscriber.
func (d *DispatchOn[T]) OnSubscribe(sub reactor.Subscription) {
	d.setUpstream(sub)
}

func (d *DispatchOn[T]) onRequest(n uint64) {
	d.demand.Add(n)
	d.passthroughDemand(n)
}

// OnNext implements reactor.Subscriber.
func (d *DispatchOn[T]) OnNext(v any) {
	if !d.demand.TryTake() {
		d.OnError(reactor.NewSignalError(reactor.KindProtocolViolation, nil))
		return
	}
	d.disp.DispatchWith(func() {
		d.forwardNext(v)
	}, d.onDispatchRejected)
}

func (d *DispatchOn[T]) onDispatchRejected(err error) {
	d.passthroughCancel()
	d.forwardError(err)
}

// OnError implements reactor.Subscriber.
func (d *DispatchOn[T]) OnError(err error) {
	d.disp.DispatchWith(func() {
		d.forwardError(err)
	}, func(error) {
		// the dispatcher itself rejected the terminal signal; deliver
		// inline rather than drop it.
		d.forwardError(err)
	})
}

// OnComplete implements reactor.Subscriber.
func (d *DispatchOn[T]) OnComplete() {
	d.disp.DispatchWith(func() {
		d.forwardComplete()
	}, func(error) {
		d.forwardComplete()
	})
}
