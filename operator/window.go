package operator

import (
	"sync"

	"github.com/flowmesh/reactor"
)

// listPublisher replays a fixed, already-complete slice of items to
// whatever demand its downstream requests. It exists so Window can hand
// each closed window to its subscriber as a proper reactor.Publisher,
// obeying the same demand protocol as any live source, rather than a bare
// slice.
type listPublisher[T any] struct {
	items []T
}

func newListPublisher[T any](items []T) *listPublisher[T] {
	return &listPublisher[T]{items: items}
}

// Subscribe implements reactor.Publisher.
func (p *listPublisher[T]) Subscribe(downstream reactor.Subscriber) {
	sub := &listSubscription[T]{items: p.items, downstream: downstream}
	downstream.OnSubscribe(sub)
}

type listSubscription[T any] struct {
	mu         sync.Mutex
	items      []T
	pos        int
	downstream reactor.Subscriber
	cancelled  bool
	tramp      trampoline
}

// Request implements reactor.Subscription.
func (s *listSubscription[T]) Request(n uint64) {
	if n == 0 {
		s.downstream.OnError(reactor.NewSignalError(reactor.KindIllegalArgument,
			reactor.ErrIllegalArgument))
		return
	}
	s.tramp.run(func() {
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
func (s *listSubscription[T]) Cancel() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
}

// Window groups every size consecutive elements into a closed sub-stream:
// each completed window is emitted downstream as a reactor.Publisher whose
// subscribers see Next* Complete over exactly those elements. It shares its
// accumulation and demand-pacing logic with Buffer, differing only in what
// it wraps a completed group as.
type Window[T any] struct {
	Node
	unaryBase
	size int

	mu         sync.Mutex
	current    []T
	queue      []reactor.Publisher
	demand     reactor.DemandCounter
	upComplete bool
}

var _ reactor.Flow = (*Window[any])(nil)

// NewWindow returns a Window operator grouping every size elements.
// NewWindow panics if size is not positive.
func NewWindow[T any](size int) *Window[T] {
	if size < 1 {
		panic("window size must be positive")
	}
	w := &Window[T]{size: size}
	w.Node = NewNode(w)
	return w
}

// Subscribe implements reactor.Publisher.
func (w *Window[T]) Subscribe(downstream reactor.Subscriber) {
	w.bindDownstream(downstream, w.onRequest, w.passthroughCancel, w.forwardError)
}

// OnSubscribe implements reactor.Subscriber.
func (w *Window[T]) OnSubscribe(sub reactor.Subscription) {
	w.setUpstream(sub)
	w.requestUpstream(reactor.Unbounded)
}

// OnNext implements reactor.Subscriber.
func (w *Window[T]) OnNext(v any) {
	w.mu.Lock()
	w.current = append(w.current, v.(T))
	var closed reactor.Publisher
	if len(w.current) >= w.size {
		closed = newListPublisher(w.current)
		w.current = nil
	}
	w.mu.Unlock()
	if closed != nil {
		w.push(closed)
	}
}

func (w *Window[T]) push(p reactor.Publisher) {
	w.mu.Lock()
	w.queue = append(w.queue, p)
	w.mu.Unlock()
	w.drain()
}

func (w *Window[T]) drain() {
	for {
		w.mu.Lock()
		if len(w.queue) == 0 || !w.demand.TryTake() {
			w.mu.Unlock()
			return
		}
		p := w.queue[0]
		w.queue = w.queue[1:]
		complete := w.upComplete && len(w.queue) == 0
		w.mu.Unlock()
		w.forwardNext(p)
		if complete {
			w.forwardComplete()
			return
		}
	}
}

func (w *Window[T]) onRequest(n uint64) {
	w.demand.Add(n)
	w.drain()
}

// OnError implements reactor.Subscriber.
func (w *Window[T]) OnError(err error) { w.forwardError(err) }

// OnComplete implements reactor.Subscriber. Any partial (non-empty) window
// is emitted before completion.
func (w *Window[T]) OnComplete() {
	w.mu.Lock()
	var closed reactor.Publisher
	if len(w.current) > 0 {
		closed = newListPublisher(w.current)
		w.current = nil
	}
	w.upComplete = true
	w.mu.Unlock()

	if closed != nil {
		w.push(closed)
		return
	}
	w.mu.Lock()
	empty := len(w.queue) == 0
	w.mu.Unlock()
	if empty {
		w.forwardComplete()
	} else {
		w.drain()
	}
}
