// Package dispatcher implements the executor abstraction of the operator
// runtime: a uniform submission contract with variants that differ only in
// ordering and parallelism guarantees, so an operator node can bind to any
// of them without changing how it submits work.
package dispatcher

// Dispatcher accepts unit-of-work submissions and runs them according to
// its own ordering/parallelism discipline.
type Dispatcher interface {
	// Dispatch enqueues task for execution without waiting for it to run,
	// though it can wait for room: under OverflowBlock a full queue blocks
	// the caller, and WorkerPool blocks while all its workers are busy.
	// task runs on a dispatcher-owned goroutine, or inline for the
	// synchronous variant.
	Dispatch(task func())
	// DispatchWith enqueues task, invoking onReject instead when the
	// dispatcher's queue is saturated and its overflow policy calls for
	// rejection rather than blocking or dropping silently.
	DispatchWith(task func(), onReject func(error))
	// Shutdown stops accepting new work and waits for already-queued tasks
	// to drain.
	Shutdown()
	// InContext reports whether this dispatcher is running a task at the
	// time of the call. It does not identify the calling goroutine:
	// SingleThread and RingBuffer report whether their worker is busy with
	// a task, whichever goroutine asks; Synchronous always reports true and
	// WorkerPool always reports false.
	InContext() bool
}
