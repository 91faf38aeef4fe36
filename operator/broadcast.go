package operator

import (
	"sync"

	"github.com/flowmesh/reactor"
)

// Broadcast is both a sink and a source: BroadcastNext/BroadcastError/
// BroadcastComplete push a signal into every subscriber currently attached.
// It is a hot stream: a subscriber that attaches after a signal has already
// gone out never sees it. A signal a subscriber has no outstanding demand
// for is dropped for that subscriber only; Broadcast never buffers on a
// slow subscriber's behalf.
type Broadcast[T any] struct {
	mu          sync.Mutex
	subscribers []*broadcastSubscriber[T]
	terminated  bool
}

var _ reactor.Publisher = (*Broadcast[any])(nil)

// NewBroadcast returns a new Broadcast hub.
func NewBroadcast[T any]() *Broadcast[T] {
	return &Broadcast[T]{}
}

// Subscribe implements reactor.Publisher.
func (b *Broadcast[T]) Subscribe(downstream reactor.Subscriber) {
	sub := &broadcastSubscriber[T]{downstream: downstream, parent: b}
	sub.sub = reactor.NewBaseSubscription(nil, sub.onCancel, b.onInvalid)

	b.mu.Lock()
	if b.terminated {
		b.mu.Unlock()
		downstream.OnSubscribe(sub.sub)
		downstream.OnComplete()
		return
	}
	b.subscribers = append(b.subscribers, sub)
	b.mu.Unlock()

	downstream.OnSubscribe(sub.sub)
}

func (b *Broadcast[T]) onInvalid(err error) {}

// BroadcastNext delivers v to every currently attached subscriber that has
// outstanding demand.
func (b *Broadcast[T]) BroadcastNext(v T) {
	for _, sub := range b.snapshot() {
		sub.deliverNext(v)
	}
}

// BroadcastError delivers a terminal Error to every subscriber and detaches
// them all.
func (b *Broadcast[T]) BroadcastError(err error) {
	b.mu.Lock()
	subs := b.subscribers
	b.subscribers = nil
	b.terminated = true
	b.mu.Unlock()
	for _, sub := range subs {
		sub.deliverError(err)
	}
}

// BroadcastComplete delivers Complete to every subscriber and detaches
// them all.
func (b *Broadcast[T]) BroadcastComplete() {
	b.mu.Lock()
	subs := b.subscribers
	b.subscribers = nil
	b.terminated = true
	b.mu.Unlock()
	for _, sub := range subs {
		sub.deliverComplete()
	}
}

func (b *Broadcast[T]) snapshot() []*broadcastSubscriber[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*broadcastSubscriber[T], len(b.subscribers))
	copy(out, b.subscribers)
	return out
}

func (b *Broadcast[T]) detach(target *broadcastSubscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subscribers {
		if sub == target {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			return
		}
	}
}

type broadcastSubscriber[T any] struct {
	downstream reactor.Subscriber
	sub        *reactor.BaseSubscription
	tramp      trampoline
	parent     *Broadcast[T]
}

func (s *broadcastSubscriber[T]) onCancel() {
	if s.parent != nil {
		s.parent.detach(s)
	}
}

func (s *broadcastSubscriber[T]) deliverNext(v T) {
	if !s.sub.TryEmit() {
		return
	}
	s.tramp.run(func() { s.downstream.OnNext(v) })
}

func (s *broadcastSubscriber[T]) deliverError(err error) {
	s.tramp.run(func() { s.downstream.OnError(err) })
}

func (s *broadcastSubscriber[T]) deliverComplete() {
	s.tramp.run(func() { s.downstream.OnComplete() })
}
