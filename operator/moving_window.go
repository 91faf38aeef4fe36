package operator

import (
	"sync"
	"time"

	"github.com/flowmesh/reactor"
	"github.com/flowmesh/reactor/timer"
)

// MovingWindow keeps a fixed-capacity ring of the most recent backlog
// values. The first tick fires delay after subscription; every period
// thereafter it emits a snapshot of the ring's current contents in arrival
// order, without clearing it. Repeated snapshots may overlap.
//
// The read is min(arrived, backlog) elements, not always a full
// backlog-length slice: before the ring has filled once, reading a fixed
// backlog slots would surface zero-valued, never-written entries.
type MovingWindow[T any] struct {
	Node
	unaryBase
	backlog int
	period  time.Duration
	delay   time.Duration
	svc     *timer.Service

	mu      sync.Mutex
	ring    []T
	pointer uint64
	reg     *timer.Registration

	queue      [][]T
	demand     reactor.DemandCounter
	upComplete bool
}

var _ reactor.Flow = (*MovingWindow[any])(nil)

// NewMovingWindow returns a MovingWindow operator. It panics if backlog is
// not positive.
func NewMovingWindow[T any](period, delay time.Duration, backlog int, svc *timer.Service) *MovingWindow[T] {
	if backlog < 1 {
		panic("backlog must be positive")
	}
	mw := &MovingWindow[T]{
		backlog: backlog,
		period:  period,
		delay:   delay,
		svc:     svc,
		ring:    make([]T, backlog),
	}
	mw.Node = NewNode(mw)
	return mw
}

// Subscribe implements reactor.Publisher.
func (mw *MovingWindow[T]) Subscribe(downstream reactor.Subscriber) {
	mw.bindDownstream(downstream, mw.onRequest, mw.onCancel, mw.forwardError)
}

// OnSubscribe implements reactor.Subscriber.
func (mw *MovingWindow[T]) OnSubscribe(sub reactor.Subscription) {
	mw.setUpstream(sub)
	mw.requestUpstream(reactor.Unbounded)
	mw.mu.Lock()
	mw.reg = mw.svc.Schedule(mw.firstTick, mw.delay)
	mw.mu.Unlock()
}

func (mw *MovingWindow[T]) firstTick() {
	mw.tick()
	mw.mu.Lock()
	done := mw.upComplete
	if !done {
		mw.reg = mw.svc.SchedulePeriodic(mw.tick, mw.period)
	}
	mw.mu.Unlock()
}

// OnNext implements reactor.Subscriber.
func (mw *MovingWindow[T]) OnNext(v any) {
	mw.mu.Lock()
	idx := mw.pointer % uint64(mw.backlog)
	mw.ring[idx] = v.(T)
	mw.pointer++
	mw.mu.Unlock()
}

func (mw *MovingWindow[T]) tick() {
	mw.mu.Lock()
	count := mw.backlog
	if mw.pointer < uint64(mw.backlog) {
		count = int(mw.pointer)
	}
	var snapshot []T
	if count > 0 {
		snapshot = make([]T, 0, count)
		if mw.pointer >= uint64(mw.backlog) {
			idx := int(mw.pointer % uint64(mw.backlog))
			snapshot = append(snapshot, mw.ring[idx:]...)
			snapshot = append(snapshot, mw.ring[:idx]...)
		} else {
			snapshot = append(snapshot, mw.ring[:count]...)
		}
	}
	mw.mu.Unlock()
	if len(snapshot) == 0 {
		return
	}
	mw.push(snapshot)
}

func (mw *MovingWindow[T]) push(batch []T) {
	mw.mu.Lock()
	mw.queue = append(mw.queue, batch)
	mw.mu.Unlock()
	mw.drain()
}

func (mw *MovingWindow[T]) drain() {
	for {
		mw.mu.Lock()
		if len(mw.queue) == 0 || !mw.demand.TryTake() {
			mw.mu.Unlock()
			return
		}
		batch := mw.queue[0]
		mw.queue = mw.queue[1:]
		complete := mw.upComplete && len(mw.queue) == 0
		mw.mu.Unlock()
		mw.forwardNext(batch)
		if complete {
			mw.forwardComplete()
			return
		}
	}
}

func (mw *MovingWindow[T]) onRequest(n uint64) {
	mw.demand.Add(n)
	mw.drain()
}

func (mw *MovingWindow[T]) onCancel() {
	mw.mu.Lock()
	if mw.reg != nil {
		mw.reg.Cancel()
		mw.reg = nil
	}
	mw.mu.Unlock()
	mw.passthroughCancel()
}

// OnError implements reactor.Subscriber.
func (mw *MovingWindow[T]) OnError(err error) {
	mw.mu.Lock()
	if mw.reg != nil {
		mw.reg.Cancel()
		mw.reg = nil
	}
	mw.mu.Unlock()
	mw.forwardError(err)
}

// OnComplete implements reactor.Subscriber.
func (mw *MovingWindow[T]) OnComplete() {
	mw.mu.Lock()
	mw.upComplete = true
	if mw.reg != nil {
		mw.reg.Cancel()
		mw.reg = nil
	}
	empty := len(mw.queue) == 0
	mw.mu.Unlock()
	if empty {
		mw.forwardComplete()
	} else {
		mw.drain()
	}
}
