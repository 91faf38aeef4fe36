package extension

import (
	"fmt"

	"github.com/flowmesh/reactor"
)

// StdoutSink prints every value it receives to standard output.
type StdoutSink struct{}

var _ reactor.Subscriber = StdoutSink{}

// NewStdoutSink returns a StdoutSink.
func NewStdoutSink() StdoutSink { return StdoutSink{} }

// OnSubscribe implements reactor.Subscriber.
func (StdoutSink) OnSubscribe(sub reactor.Subscription) { sub.Request(reactor.Unbounded) }

// OnNext implements reactor.Subscriber.
func (StdoutSink) OnNext(v any) { fmt.Println(v) }

// OnError implements reactor.Subscriber.
func (StdoutSink) OnError(err error) { fmt.Println("error:", err) }

// OnComplete implements reactor.Subscriber.
func (StdoutSink) OnComplete() {}

// IgnoreSink discards every value it receives.
type IgnoreSink struct{}

var _ reactor.Subscriber = IgnoreSink{}

// NewIgnoreSink returns an IgnoreSink.
func NewIgnoreSink() IgnoreSink { return IgnoreSink{} }

// OnSubscribe implements reactor.Subscriber.
func (IgnoreSink) OnSubscribe(sub reactor.Subscription) { sub.Request(reactor.Unbounded) }

// OnNext implements reactor.Subscriber.
func (IgnoreSink) OnNext(any) {}

// OnError implements reactor.Subscriber.
func (IgnoreSink) OnError(error) {}

// OnComplete implements reactor.Subscriber.
func (IgnoreSink) OnComplete() {}
