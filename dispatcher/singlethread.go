package dispatcher

import (
	"sync"
	"sync/atomic"

	"github.com/flowmesh/reactor"
)

// SingleThread drains a queue on one worker goroutine, preserving global
// FIFO submission order.
type SingleThread struct {
	tasks     chan func()
	running   atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
	overflow  OverflowPolicy
}

var _ Dispatcher = (*SingleThread)(nil)

// NewSingleThread returns a SingleThread dispatcher with the given queue
// capacity and overflow policy.
func NewSingleThread(queueSize int, overflow OverflowPolicy) *SingleThread {
	if queueSize < 1 {
		queueSize = 1
	}
	st := &SingleThread{
		tasks:    make(chan func(), queueSize),
		done:     make(chan struct{}),
		overflow: overflow,
	}
	go st.loop()
	return st
}

func (st *SingleThread) loop() {
	for task := range st.tasks {
		st.running.Store(true)
		task()
		st.running.Store(false)
	}
	close(st.done)
}

// Dispatch implements Dispatcher.
func (st *SingleThread) Dispatch(task func()) { st.DispatchWith(task, nil) }

// DispatchWith implements Dispatcher.
func (st *SingleThread) DispatchWith(task func(), onReject func(error)) {
	switch st.overflow {
	case OverflowDropNewest:
		select {
		case st.tasks <- task:
		default:
		}
	case OverflowDropOldest:
		for {
			select {
			case st.tasks <- task:
				return
			default:
				select {
				case <-st.tasks:
				default:
				}
			}
		}
	case OverflowReject:
		select {
		case st.tasks <- task:
		default:
			if onReject != nil {
				onReject(reactor.NewSignalError(reactor.KindOverflow, nil))
			}
		}
	default: // OverflowBlock
		st.tasks <- task
	}
}

// Shutdown implements Dispatcher: stops accepting new tasks and waits for
// the queue to drain.
func (st *SingleThread) Shutdown() {
	st.closeOnce.Do(func() { close(st.tasks) })
	<-st.done
}

// InContext implements Dispatcher.
func (st *SingleThread) InContext() bool { return st.running.Load() }
