package graph

import "github.com/flowmesh/reactor"

// consumeSink is the terminal Subscriber returned by Consume.
type consumeSink[T any] struct {
	fn func(T)
}

var _ reactor.Subscriber = (*consumeSink[any])(nil)

// OnSubscribe implements reactor.Subscriber.
func (c *consumeSink[T]) OnSubscribe(sub reactor.Subscription) { sub.Request(reactor.Unbounded) }

// OnNext implements reactor.Subscriber.
func (c *consumeSink[T]) OnNext(v any) { c.fn(v.(T)) }

// OnError implements reactor.Subscriber.
func (c *consumeSink[T]) OnError(error) {}

// OnComplete implements reactor.Subscriber.
func (c *consumeSink[T]) OnComplete() {}

// Consume returns a terminal reactor.Subscriber that requests unbounded
// demand and invokes fn for every value it receives. It is the callback
// sink behind the façade's `consume` operation; use extension.ChanSink
// instead when a pipeline needs to observe its own termination.
func Consume[T any](fn func(T)) reactor.Subscriber {
	return &consumeSink[T]{fn: fn}
}
