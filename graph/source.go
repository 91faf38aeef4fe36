// Package graph is the fluent construction façade: thin helpers that turn
// a handful of values, a slice, or an integer range into a reactor.Source
// a pipeline can be built from with Via/To. It carries no core protocol
// logic of its own, composing the operator, timer, and dispatcher packages
// that do.
package graph

import (
	"sync"

	"github.com/flowmesh/reactor"
)

// sourceBase supplies the Via half of reactor.Source: Subscribe is left to
// the embedding type.
type sourceBase struct {
	self reactor.Publisher
}

func (s sourceBase) Via(flow reactor.Flow) reactor.Flow {
	s.self.Subscribe(flow)
	return flow
}

// sliceSource replays a fixed, already-complete slice to whatever demand
// its downstream requests. Grounded on operator.listPublisher's
// replay-a-finite-slice shape, duplicated here (rather than exported from
// operator) since graph has no other reason to depend on operator's
// internals.
type sliceSource[T any] struct {
	sourceBase
	items []T
}

var _ reactor.Source = (*sliceSource[any])(nil)

func newSliceSource[T any](items []T) *sliceSource[T] {
	s := &sliceSource[T]{items: items}
	s.sourceBase = sourceBase{self: s}
	return s
}

// Subscribe implements reactor.Publisher.
func (s *sliceSource[T]) Subscribe(downstream reactor.Subscriber) {
	sub := &sliceSubscription[T]{items: s.items, downstream: downstream}
	downstream.OnSubscribe(sub)
}

type sliceSubscription[T any] struct {
	mu         sync.Mutex
	items      []T
	pos        int
	downstream reactor.Subscriber
	cancelled  bool
	emitting   bool
	pending    []func()
}

// Request implements reactor.Subscription.
func (s *sliceSubscription[T]) Request(n uint64) {
	if n == 0 {
		s.downstream.OnError(reactor.NewSignalError(reactor.KindIllegalArgument,
			reactor.ErrIllegalArgument))
		return
	}
	s.run(func() {
		remaining := n
		for remaining > 0 {
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
			remaining--
		}
		s.mu.Lock()
		done := !s.cancelled && s.pos >= len(s.items)
		s.mu.Unlock()
		if done {
			s.downstream.OnComplete()
		}
	})
}

// Cancel implements reactor.Subscription.
func (s *sliceSubscription[T]) Cancel() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
}

func (s *sliceSubscription[T]) run(f func()) {
	s.mu.Lock()
	if s.emitting {
		s.pending = append(s.pending, f)
		s.mu.Unlock()
		return
	}
	s.emitting = true
	s.mu.Unlock()

	task := f
	for task != nil {
		task()
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.emitting = false
			s.mu.Unlock()
			return
		}
		task = s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()
	}
}

// Just returns a reactor.Source replaying items, in order, then completing.
func Just[T any](items ...T) reactor.Source {
	return newSliceSource(items)
}

// From returns a reactor.Source replaying the elements of items, in order,
// then completing.
func From[T any](items []T) reactor.Source {
	return newSliceSource(items)
}

// Range returns a reactor.Source emitting the half-open integer range
// [start, end) in order, then completing.
func Range(start, end int) reactor.Source {
	if end < start {
		end = start
	}
	items := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		items = append(items, i)
	}
	return newSliceSource(items)
}
