package operator

import (
	"sync"
	"time"

	"github.com/flowmesh/reactor"
	"github.com/flowmesh/reactor/timer"
)

// SampleFirst emits the first Next of each period window and drops the rest
// until the window rolls. Unlike Buffer/Window, it never queues dropped
// elements: only the window's first arrival is ever forwarded, so its own
// emission is always paced by downstream demand directly rather than
// through an internal queue.
type SampleFirst[T any] struct {
	Node
	unaryBase
	period time.Duration
	svc    *timer.Service

	mu       sync.Mutex
	reg      *timer.Registration
	gateOpen bool
}

var _ reactor.Flow = (*SampleFirst[any])(nil)

// NewSampleFirst returns a SampleFirst operator with the given window period.
// svc must not be nil; it is the timer service the window boundary is
// scheduled against.
func NewSampleFirst[T any](period time.Duration, svc *timer.Service) *SampleFirst[T] {
	if period <= 0 {
		panic("sampleFirst period must be positive")
	}
	if svc == nil {
		panic("sampleFirst requires a non-nil timer.Service")
	}
	s := &SampleFirst[T]{period: period, svc: svc}
	s.Node = NewNode(s)
	return s
}

// Subscribe implements reactor.Publisher.
func (s *SampleFirst[T]) Subscribe(downstream reactor.Subscriber) {
	s.bindDownstream(downstream, s.passthroughDemand, s.onCancel, s.forwardError)
}

// OnSubscribe implements reactor.Subscriber: a window boundary is scheduled
// immediately, and the gate opens for the first window right away.
func (s *SampleFirst[T]) OnSubscribe(sub reactor.Subscription) {
	s.setUpstream(sub)
	s.mu.Lock()
	s.gateOpen = true
	s.reg = s.svc.SchedulePeriodic(s.rollWindow, s.period)
	s.mu.Unlock()
	s.requestUpstream(reactor.Unbounded)
}

func (s *SampleFirst[T]) rollWindow() {
	s.mu.Lock()
	s.gateOpen = true
	s.mu.Unlock()
}

// OnNext implements reactor.Subscriber.
func (s *SampleFirst[T]) OnNext(v any) {
	s.mu.Lock()
	open := s.gateOpen
	if open {
		s.gateOpen = false
	}
	s.mu.Unlock()
	if open {
		s.forwardNext(v)
	}
}

func (s *SampleFirst[T]) onCancel() {
	s.mu.Lock()
	if s.reg != nil {
		s.reg.Cancel()
		s.reg = nil
	}
	s.mu.Unlock()
	s.passthroughCancel()
}

// OnError implements reactor.Subscriber.
func (s *SampleFirst[T]) OnError(err error) {
	s.mu.Lock()
	if s.reg != nil {
		s.reg.Cancel()
		s.reg = nil
	}
	s.mu.Unlock()
	s.forwardError(err)
}

// OnComplete implements reactor.Subscriber.
func (s *SampleFirst[T]) OnComplete() {
	s.mu.Lock()
	if s.reg != nil {
		s.reg.Cancel()
		s.reg = nil
	}
	s.mu.Unlock()
	s.forwardComplete()
}
