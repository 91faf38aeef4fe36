package dispatcher

import (
	"sync"

	"github.com/flowmesh/reactor"
)

// WorkerPool runs tasks across a fixed number of workers with no ordering
// guarantee across submissions, the parallel counterpart to SingleThread's
// strict FIFO. Bounds concurrent goroutines with a semaphore channel.
type WorkerPool struct {
	sem  chan struct{}
	wg   sync.WaitGroup
	mu   sync.Mutex
	shut bool
}

var _ Dispatcher = (*WorkerPool)(nil)

// NewWorkerPool returns a WorkerPool with parallelism concurrent workers.
func NewWorkerPool(parallelism int) *WorkerPool {
	if parallelism < 1 {
		parallelism = 1
	}
	return &WorkerPool{sem: make(chan struct{}, parallelism)}
}

// Dispatch implements Dispatcher.
func (wp *WorkerPool) Dispatch(task func()) { wp.DispatchWith(task, nil) }

// DispatchWith implements Dispatcher.
func (wp *WorkerPool) DispatchWith(task func(), onReject func(error)) {
	wp.mu.Lock()
	if wp.shut {
		wp.mu.Unlock()
		if onReject != nil {
			onReject(reactor.NewSignalError(reactor.KindOverflow, nil))
		}
		return
	}
	wp.wg.Add(1)
	wp.mu.Unlock()

	wp.sem <- struct{}{}
	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.sem }()
		task()
	}()
}

// Shutdown implements Dispatcher: waits for every in-flight task to finish.
func (wp *WorkerPool) Shutdown() {
	wp.mu.Lock()
	wp.shut = true
	wp.mu.Unlock()
	wp.wg.Wait()
}

// InContext implements Dispatcher. Always false: pool workers are
// ephemeral goroutines with no fixed identity to test membership against,
// so callers should always treat submission from within a pool task as
// cross-context.
func (wp *WorkerPool) InContext() bool { return false }
