package dispatcher

// Synchronous runs every task inline, on the calling goroutine. It
// preserves the caller's own ordering trivially, since nothing is ever
// queued.
type Synchronous struct{}

var _ Dispatcher = (*Synchronous)(nil)

// NewSynchronous returns a Synchronous dispatcher.
func NewSynchronous() *Synchronous { return &Synchronous{} }

// Dispatch implements Dispatcher.
func (s *Synchronous) Dispatch(task func()) { task() }

// DispatchWith implements Dispatcher. onReject is never invoked: inline
// execution cannot be rejected for capacity reasons.
func (s *Synchronous) DispatchWith(task func(), onReject func(error)) { task() }

// Shutdown implements Dispatcher. No-op: there is no worker to stop.
func (s *Synchronous) Shutdown() {}

// InContext implements Dispatcher. Always true: every call to Dispatch runs
// on the caller's own goroutine.
func (s *Synchronous) InContext() bool { return true }
