package operator

import (
	"sync"
	"time"

	"github.com/flowmesh/reactor"
	"github.com/flowmesh/reactor/timer"
)

// Timeout forwards every Next unchanged, but emits Error(Timeout) and
// cancels upstream if duration elapses between one Next and the next (or
// between subscription and the first Next). The watchdog registration is
// rescheduled after each forwarded Next and cancelled on any terminal or
// cancel signal.
type Timeout[T any] struct {
	Node
	unaryBase
	duration time.Duration
	svc      *timer.Service

	mu      sync.Mutex
	reg     *timer.Registration
	expired bool
}

var _ reactor.Flow = (*Timeout[any])(nil)

// NewTimeout returns a Timeout operator watching for duration of silence.
func NewTimeout[T any](duration time.Duration, svc *timer.Service) *Timeout[T] {
	if duration <= 0 {
		panic("timeout duration must be positive")
	}
	if svc == nil {
		panic("timeout requires a non-nil timer.Service")
	}
	t := &Timeout[T]{duration: duration, svc: svc}
	t.Node = NewNode(t)
	return t
}

// Subscribe implements reactor.Publisher.
func (t *Timeout[T]) Subscribe(downstream reactor.Subscriber) {
	t.bindDownstream(downstream, t.passthroughDemand, t.onCancel, t.forwardError)
}

// OnSubscribe implements reactor.Subscriber.
func (t *Timeout[T]) OnSubscribe(sub reactor.Subscription) {
	t.setUpstream(sub)
	t.armLocked()
	t.requestUpstream(reactor.Unbounded)
}

func (t *Timeout[T]) armLocked() {
	t.mu.Lock()
	if !t.expired {
		if t.reg != nil {
			t.reg.Cancel()
		}
		t.reg = t.svc.Schedule(t.fire, t.duration)
	}
	t.mu.Unlock()
}

func (t *Timeout[T]) fire() {
	t.mu.Lock()
	if t.expired {
		t.mu.Unlock()
		return
	}
	t.expired = true
	t.reg = nil
	t.mu.Unlock()

	t.passthroughCancel()
	t.forwardError(reactor.NewSignalError(reactor.KindTimeout, nil))
}

// OnNext implements reactor.Subscriber.
func (t *Timeout[T]) OnNext(v any) {
	t.mu.Lock()
	if t.expired {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()
	t.forwardNext(v)
	t.armLocked()
}

func (t *Timeout[T]) onCancel() {
	t.cancelRegLocked()
	t.passthroughCancel()
}

func (t *Timeout[T]) cancelRegLocked() {
	t.mu.Lock()
	if t.reg != nil {
		t.reg.Cancel()
		t.reg = nil
	}
	t.mu.Unlock()
}

// OnError implements reactor.Subscriber.
func (t *Timeout[T]) OnError(err error) {
	t.cancelRegLocked()
	t.forwardError(err)
}

// OnComplete implements reactor.Subscriber.
func (t *Timeout[T]) OnComplete() {
	t.cancelRegLocked()
	t.forwardComplete()
}
