package reactor

// Subscriber receives signals from a Publisher it has subscribed to.
//
// OnSubscribe is invoked synchronously by Publisher.Subscribe before it
// returns; no OnNext call may happen before OnSubscribe returns. The
// subscriber must call subscription.Request to receive any OnNext calls.
type Subscriber interface {
	OnSubscribe(sub Subscription)
	OnNext(v any)
	OnError(err error)
	OnComplete()
}

// Publisher is the upstream side of a signal-protocol edge. Subscribe binds
// downstream and synchronously calls downstream.OnSubscribe before
// returning.
type Publisher interface {
	Subscribe(downstream Subscriber)
}

// Subscription is the bidirectional handle a Subscriber uses to pull demand
// from, and cancel, its upstream Publisher.
type Subscription interface {
	// Request increases pending demand by n. Request panics-free; n<=0 is
	// surfaced to the subscriber as an Error(IllegalArgument) signal rather
	// than returned as an error here, matching the fire-and-forget shape of
	// the protocol (callers observe the failure through OnError).
	Request(n uint64)
	// Cancel is idempotent. After it returns, at most one further OnNext
	// may still arrive (already in flight), but no more after that.
	Cancel()
}

// Flow is both a Subscriber (upstream) and a Publisher (downstream): a
// composable operator node. Via and To support fluent Source/Flow/Sink
// chaining:
//
//	graph.Just(1, 2, 3).Via(operator.NewMap(double, 1)).To(sink)
type Flow interface {
	Publisher
	Subscriber
	Via(Flow) Flow
	To(sink Subscriber)
}

// Source adapts a Publisher into the head of a fluent pipeline.
type Source interface {
	Publisher
	Via(Flow) Flow
}
