// Package extension provides connectors binding the reactor protocol to
// external transports: Go channels, standard output, and (in the nats,
// websocket, and redis subpackages) real network services.
package extension

import "github.com/flowmesh/reactor"

// ChanSource publishes the values received on src, honoring downstream
// demand. It only reads the next value off src once the subscriber has
// outstanding demand for it, and completes when src is closed.
type ChanSource[T any] struct {
	src <-chan T
}

var _ reactor.Publisher = (*ChanSource[any])(nil)

// NewChanSource returns a ChanSource reading from src.
func NewChanSource[T any](src <-chan T) *ChanSource[T] {
	return &ChanSource[T]{src: src}
}

// Subscribe implements reactor.Publisher.
func (c *ChanSource[T]) Subscribe(downstream reactor.Subscriber) {
	wake := make(chan struct{}, 1)
	sub := reactor.NewBaseSubscription(
		func(uint64) { poke(wake) },
		func() { poke(wake) },
		func(err error) { downstream.OnError(err) },
	)
	downstream.OnSubscribe(sub)
	go c.run(downstream, sub, wake)
}

func (c *ChanSource[T]) run(downstream reactor.Subscriber, sub *reactor.BaseSubscription, wake chan struct{}) {
	for {
		if sub.Cancelled() {
			return
		}
		if !sub.TryEmit() {
			<-wake
			continue
		}
		v, ok := <-c.src
		if !ok {
			downstream.OnComplete()
			return
		}
		downstream.OnNext(v)
	}
}

func poke(wake chan struct{}) {
	select {
	case wake <- struct{}{}:
	default:
	}
}

// ChanSink forwards every Next it receives onto out, closing out on any
// terminal signal.
type ChanSink[T any] struct {
	out chan T
}

var _ reactor.Subscriber = (*ChanSink[any])(nil)

// NewChanSink returns a ChanSink writing to out.
func NewChanSink[T any](out chan T) *ChanSink[T] {
	return &ChanSink[T]{out: out}
}

// OnSubscribe implements reactor.Subscriber.
func (c *ChanSink[T]) OnSubscribe(sub reactor.Subscription) {
	sub.Request(reactor.Unbounded)
}

// OnNext implements reactor.Subscriber.
func (c *ChanSink[T]) OnNext(v any) {
	c.out <- v.(T)
}

// OnError implements reactor.Subscriber.
func (c *ChanSink[T]) OnError(error) {
	close(c.out)
}

// OnComplete implements reactor.Subscriber.
func (c *ChanSink[T]) OnComplete() {
	close(c.out)
}
