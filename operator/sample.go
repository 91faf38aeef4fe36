package operator

import (
	"sync"
	"time"

	"github.com/flowmesh/reactor"
	"github.com/flowmesh/reactor/timer"
)

// Sample emits the last Next received in each period window, at the window
// boundary. If a window elapses with no Next received, nothing is emitted
// for it. Emission happens off the timer service's goroutine, so, like
// Buffer and Window, Sample paces delivery against downstream demand
// through its own queue rather than assuming the timer fire and the
// downstream's pull rate line up.
type Sample[T any] struct {
	Node
	unaryBase
	period time.Duration
	svc    *timer.Service

	mu         sync.Mutex
	hasPending bool
	pending    T
	reg        *timer.Registration
	queue      []T
	demand     reactor.DemandCounter
	upComplete bool
}

var _ reactor.Flow = (*Sample[any])(nil)

// NewSample returns a Sample operator with the given window period.
func NewSample[T any](period time.Duration, svc *timer.Service) *Sample[T] {
	if period <= 0 {
		panic("sample period must be positive")
	}
	if svc == nil {
		panic("sample requires a non-nil timer.Service")
	}
	s := &Sample[T]{period: period, svc: svc}
	s.Node = NewNode(s)
	return s
}

// Subscribe implements reactor.Publisher.
func (s *Sample[T]) Subscribe(downstream reactor.Subscriber) {
	s.bindDownstream(downstream, s.onRequest, s.onCancel, s.forwardError)
}

// OnSubscribe implements reactor.Subscriber.
func (s *Sample[T]) OnSubscribe(sub reactor.Subscription) {
	s.setUpstream(sub)
	s.mu.Lock()
	s.reg = s.svc.SchedulePeriodic(s.rollWindow, s.period)
	s.mu.Unlock()
	s.requestUpstream(reactor.Unbounded)
}

// OnNext implements reactor.Subscriber: records the latest value, overwriting
// whatever arrived earlier in this window.
func (s *Sample[T]) OnNext(v any) {
	s.mu.Lock()
	s.pending = v.(T)
	s.hasPending = true
	s.mu.Unlock()
}

func (s *Sample[T]) rollWindow() {
	s.mu.Lock()
	if !s.hasPending {
		s.mu.Unlock()
		return
	}
	out := s.pending
	s.hasPending = false
	s.queue = append(s.queue, out)
	s.mu.Unlock()
	s.drain()
}

func (s *Sample[T]) drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 || !s.demand.TryTake() {
			s.mu.Unlock()
			return
		}
		v := s.queue[0]
		s.queue = s.queue[1:]
		complete := s.upComplete && len(s.queue) == 0
		s.mu.Unlock()
		s.forwardNext(v)
		if complete {
			s.forwardComplete()
			return
		}
	}
}

func (s *Sample[T]) onRequest(n uint64) {
	s.demand.Add(n)
	s.drain()
}

func (s *Sample[T]) onCancel() {
	s.mu.Lock()
	if s.reg != nil {
		s.reg.Cancel()
		s.reg = nil
	}
	s.mu.Unlock()
	s.passthroughCancel()
}

// OnError implements reactor.Subscriber.
func (s *Sample[T]) OnError(err error) {
	s.mu.Lock()
	if s.reg != nil {
		s.reg.Cancel()
		s.reg = nil
	}
	s.mu.Unlock()
	s.forwardError(err)
}

// OnComplete implements reactor.Subscriber.
func (s *Sample[T]) OnComplete() {
	s.mu.Lock()
	if s.reg != nil {
		s.reg.Cancel()
		s.reg = nil
	}
	s.upComplete = true
	empty := len(s.queue) == 0
	s.mu.Unlock()
	if empty {
		s.forwardComplete()
	}
}
