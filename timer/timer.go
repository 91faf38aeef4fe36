// Package timer implements a monotonic scheduler: a service that invokes
// registered callbacks at a requested period or one-shot delay, on its own
// goroutine, bounding drift by scheduling at wall-clock offsets from the
// registration time rather than from the previous fire.
//
// It gives operators one reusable service to register periodic and
// one-shot callbacks with instead of each owning its own ticker goroutine.
package timer

import (
	"sync"
	"time"
)

// DefaultResolution is the minimum scheduling granularity when none is
// configured.
const DefaultResolution = 50 * time.Millisecond

// Registration is the handle returned by Schedule/SchedulePeriodic. Passing
// it to Service.Cancel stops future fires; an in-flight fire may still
// complete once.
type Registration struct {
	id       uint64
	svc      *Service
	periodic bool
}

// Cancel is a convenience equivalent to Service.Cancel(r).
func (r *Registration) Cancel() {
	r.svc.Cancel(r)
}

type task struct {
	id       uint64
	callback func()
	period   time.Duration
	nextFire time.Time
	periodic bool
	cancelled bool
}

// Service is a monotonic scheduler. Callbacks run on the service's own
// goroutine and must be cheap, typically posting work to a dispatcher.
type Service struct {
	mu         sync.Mutex
	tasks      map[uint64]*task
	nextID     uint64
	wake       chan struct{}
	stopped    chan struct{}
	stopOnce   sync.Once
	resolution time.Duration
}

// Opt is a functional option for NewService.
type Opt func(*Service)

// WithResolution overrides the service's scheduling granularity. The
// default is DefaultResolution.
func WithResolution(d time.Duration) Opt {
	return func(s *Service) { s.resolution = d }
}

// NewService starts a new timer Service.
func NewService(opts ...Opt) *Service {
	s := &Service{
		tasks:      make(map[uint64]*task),
		wake:       make(chan struct{}, 1),
		stopped:    make(chan struct{}),
		resolution: DefaultResolution,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.resolution <= 0 {
		s.resolution = DefaultResolution
	}
	go s.loop()
	return s
}

// Schedule registers a one-shot callback to run after delay.
func (s *Service) Schedule(callback func(), delay time.Duration) *Registration {
	return s.register(callback, delay, 0, false)
}

// SchedulePeriodic registers a callback to run every period, starting after
// the first period elapses.
func (s *Service) SchedulePeriodic(callback func(), period time.Duration) *Registration {
	return s.register(callback, period, period, true)
}

func (s *Service) register(callback func(), delay, period time.Duration, periodic bool) *Registration {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	t := &task{
		id:       id,
		callback: callback,
		period:   period,
		nextFire: time.Now().Add(delay),
		periodic: periodic,
	}
	s.tasks[id] = t
	s.mu.Unlock()
	s.poke()
	return &Registration{id: id, svc: s, periodic: periodic}
}

// Cancel is idempotent; an in-flight fire may still complete once.
func (s *Service) Cancel(r *Registration) {
	if r == nil {
		return
	}
	s.mu.Lock()
	if t, ok := s.tasks[r.id]; ok {
		t.cancelled = true
		delete(s.tasks, r.id)
	}
	s.mu.Unlock()
}

// Stop halts the service's goroutine. No further callbacks fire afterward.
func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stopped) })
}

func (s *Service) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Service) loop() {
	timer := time.NewTimer(s.resolution)
	defer timer.Stop()
	for {
		select {
		case <-s.stopped:
			return
		case <-s.wake:
			s.tick(timer)
		case <-timer.C:
			s.tick(timer)
		}
	}
}

// tick fires every due task and reschedules timer for the next deadline.
// Fires are computed at wall-clock offsets from each task's own schedule,
// not from "now", so repeated delay does not accumulate drift.
func (s *Service) tick(timer *time.Timer) {
	now := time.Now()
	var due []*task
	s.mu.Lock()
	for _, t := range s.tasks {
		if !t.nextFire.After(now) {
			due = append(due, t)
		}
	}
	for _, t := range due {
		if t.periodic {
			// advance from the previous deadline, not from now, to bound
			// drift across repeated fires.
			for !t.nextFire.After(now) {
				t.nextFire = t.nextFire.Add(t.period)
			}
		} else {
			delete(s.tasks, t.id)
		}
	}
	next := s.earliestLocked()
	s.mu.Unlock()

	for _, t := range due {
		if !t.cancelled {
			t.callback()
		}
	}

	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	wait := s.resolution
	if next > 0 && next < wait {
		wait = next
	}
	if wait <= 0 {
		wait = time.Millisecond
	}
	timer.Reset(wait)
}

func (s *Service) earliestLocked() time.Duration {
	if len(s.tasks) == 0 {
		return s.resolution
	}
	now := time.Now()
	min := s.resolution
	first := true
	for _, t := range s.tasks {
		d := t.nextFire.Sub(now)
		if first || d < min {
			min = d
			first = false
		}
	}
	return min
}
