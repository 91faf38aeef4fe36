package operator_test

import (
	"sync"
	"time"

	"github.com/flowmesh/reactor"
)

// testSource is a minimal finite reactor.Publisher used to feed operator
// tests a fixed sequence of values, mirroring the shape of
// operator.listPublisher without depending on operator's unexported types.
type testSource[T any] struct {
	items []T
}

func newTestSource[T any](items ...T) *testSource[T] {
	return &testSource[T]{items: items}
}

func (s *testSource[T]) Subscribe(downstream reactor.Subscriber) {
	sub := &testSubscription[T]{items: s.items, downstream: downstream}
	downstream.OnSubscribe(sub)
}

// Via and To let testSource participate in the same fluent chain style as
// operator.Node-backed types, without depending on operator's internals.
func (s *testSource[T]) Via(flow reactor.Flow) reactor.Flow { s.Subscribe(flow); return flow }
func (s *testSource[T]) To(sink reactor.Subscriber)         { s.Subscribe(sink) }

type testSubscription[T any] struct {
	mu         sync.Mutex
	items      []T
	pos        int
	downstream reactor.Subscriber
	cancelled  bool
}

func (s *testSubscription[T]) Request(n uint64) {
	if n == 0 {
		s.downstream.OnError(reactor.NewSignalError(reactor.KindIllegalArgument, nil))
		return
	}
	for i := uint64(0); i < n; i++ {
		s.mu.Lock()
		if s.cancelled || s.pos >= len(s.items) {
			done := !s.cancelled && s.pos >= len(s.items)
			s.mu.Unlock()
			if done {
				s.downstream.OnComplete()
			}
			return
		}
		v := s.items[s.pos]
		s.pos++
		s.mu.Unlock()
		s.downstream.OnNext(v)
	}
}

func (s *testSubscription[T]) Cancel() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
}

// failingSource replays items then delivers an Error instead of a Complete:
// a non-fatal protocol violation, or a KindFatal error when built with
// newFatalSource, for exercising operators that special-case the error
// path (e.g. IgnoreErrors).
type failingSource[T any] struct {
	items []T
	fatal bool
}

func newFailingSource[T any](items ...T) *failingSource[T] {
	return &failingSource[T]{items: items}
}

func newFatalSource[T any](items ...T) *failingSource[T] {
	return &failingSource[T]{items: items, fatal: true}
}

func (s *failingSource[T]) Subscribe(downstream reactor.Subscriber) {
	sub := &failingSubscription[T]{items: s.items, downstream: downstream, fatal: s.fatal}
	downstream.OnSubscribe(sub)
}

func (s *failingSource[T]) Via(flow reactor.Flow) reactor.Flow { s.Subscribe(flow); return flow }
func (s *failingSource[T]) To(sink reactor.Subscriber)         { s.Subscribe(sink) }

type failingSubscription[T any] struct {
	mu         sync.Mutex
	items      []T
	pos        int
	downstream reactor.Subscriber
	cancelled  bool
	fatal      bool
}

func (s *failingSubscription[T]) Request(n uint64) {
	for i := uint64(0); i < n; i++ {
		s.mu.Lock()
		if s.cancelled {
			s.mu.Unlock()
			return
		}
		if s.pos >= len(s.items) {
			s.mu.Unlock()
			kind := reactor.KindProtocolViolation
			if s.fatal {
				kind = reactor.KindFatal
			}
			s.downstream.OnError(reactor.NewSignalError(kind, nil))
			return
		}
		v := s.items[s.pos]
		s.pos++
		s.mu.Unlock()
		s.downstream.OnNext(v)
	}
}

func (s *failingSubscription[T]) Cancel() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
}

// stallingSource delivers items immediately then goes silent forever,
// never completing or erroring, for exercising watchdog-style timeouts.
type stallingSource[T any] struct {
	items []T
}

func newStallingSource[T any](items ...T) *stallingSource[T] {
	return &stallingSource[T]{items: items}
}

func (s *stallingSource[T]) Subscribe(downstream reactor.Subscriber) {
	sub := &testSubscription[T]{items: s.items, downstream: &discardComplete{downstream}}
	downstream.OnSubscribe(sub)
}

// discardComplete forwards Next/Error but swallows Complete, so a finite
// item list can stand in for a stream that never terminates.
type discardComplete struct {
	reactor.Subscriber
}

func (d *discardComplete) OnComplete() {}

// delayedSource delivers items immediately but defers OnComplete until
// after delay has elapsed, so a test can observe timer-driven behavior
// (e.g. a periodic sampler's window boundary) before the stream ends.
type delayedSource[T any] struct {
	items []T
	delay time.Duration
}

func newDelayedSource[T any](delay time.Duration, items ...T) *delayedSource[T] {
	return &delayedSource[T]{items: items, delay: delay}
}

func (s *delayedSource[T]) Subscribe(downstream reactor.Subscriber) {
	sub := &delayedSubscription[T]{items: s.items, downstream: downstream, delay: s.delay}
	downstream.OnSubscribe(sub)
}

func (s *delayedSource[T]) Via(flow reactor.Flow) reactor.Flow { s.Subscribe(flow); return flow }
func (s *delayedSource[T]) To(sink reactor.Subscriber)         { s.Subscribe(sink) }

type delayedSubscription[T any] struct {
	mu         sync.Mutex
	items      []T
	pos        int
	downstream reactor.Subscriber
	delay      time.Duration
	fired      bool
}

func (s *delayedSubscription[T]) Request(n uint64) {
	for i := uint64(0); i < n; i++ {
		s.mu.Lock()
		if s.pos >= len(s.items) {
			already := s.fired
			s.fired = true
			s.mu.Unlock()
			if !already {
				go func() {
					time.Sleep(s.delay)
					s.downstream.OnComplete()
				}()
			}
			return
		}
		v := s.items[s.pos]
		s.pos++
		s.mu.Unlock()
		s.downstream.OnNext(v)
	}
}

func (s *delayedSubscription[T]) Cancel() {}

// recorder is a reactor.Subscriber that requests Unbounded demand up front
// and records every signal it receives, guarded by a mutex since several
// operators deliver from a background goroutine.
type recorder[T any] struct {
	mu       sync.Mutex
	next     []T
	errs     []error
	complete bool
	sub      reactor.Subscription
	done     chan struct{}
}

func newRecorder[T any]() *recorder[T] {
	return &recorder[T]{done: make(chan struct{})}
}

func (r *recorder[T]) OnSubscribe(sub reactor.Subscription) {
	r.mu.Lock()
	r.sub = sub
	r.mu.Unlock()
	sub.Request(reactor.Unbounded)
}

func (r *recorder[T]) OnNext(v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next = append(r.next, v.(T))
}

func (r *recorder[T]) OnError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
	select {
	case <-r.done:
	default:
		close(r.done)
	}
}

func (r *recorder[T]) OnComplete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.complete = true
	select {
	case <-r.done:
	default:
		close(r.done)
	}
}

func (r *recorder[T]) values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.next))
	copy(out, r.next)
	return out
}

func (r *recorder[T]) errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]error, len(r.errs))
	copy(out, r.errs)
	return out
}

func (r *recorder[T]) isComplete() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.complete
}

// boundedRecorder requests demand in fixed increments instead of
// Unbounded, for tests asserting that an operator respects backpressure.
type boundedRecorder[T any] struct {
	recorder[T]
	increment uint64
}

func newBoundedRecorder[T any](increment uint64) *boundedRecorder[T] {
	return &boundedRecorder[T]{increment: increment}
}

func (r *boundedRecorder[T]) OnSubscribe(sub reactor.Subscription) {
	r.mu.Lock()
	r.sub = sub
	r.mu.Unlock()
	sub.Request(r.increment)
}

func (r *boundedRecorder[T]) requestMore() {
	r.mu.Lock()
	sub := r.sub
	r.mu.Unlock()
	sub.Request(r.increment)
}
