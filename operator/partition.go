package operator

import (
	"sync"

	"github.com/flowmesh/reactor"
)

// PartitionKeyFunc extracts a routing key from an element. When nil,
// Partition routes round-robin instead.
type PartitionKeyFunc[T any] func(v T) uint64

// Partition opens n sub-streams and routes each input to exactly one, by
// hash(v) mod n when a key function is configured, or round-robin
// otherwise. Each sub-stream accounts for its own downstream demand
// independently; Partition requests upstream the minimum currently
// outstanding across all sub-streams, so no branch is forced to buffer
// unboundedly just to keep pace with a faster sibling.
type Partition[T any] struct {
	n        int
	keyFn    PartitionKeyFunc[T]
	branches []*partitionBranch[T]

	mu        sync.Mutex
	upstream  reactor.Subscription
	granted   uint64
	rrCounter uint64
}

var _ reactor.Subscriber = (*Partition[any])(nil)

// NewPartition returns a Partition operator with n sub-streams. NewPartition
// panics if n is not positive.
func NewPartition[T any](n int, keyFn PartitionKeyFunc[T]) *Partition[T] {
	if n < 1 {
		panic("partition count must be positive")
	}
	p := &Partition[T]{n: n, keyFn: keyFn}
	p.branches = make([]*partitionBranch[T], n)
	for i := range p.branches {
		p.branches[i] = &partitionBranch[T]{parent: p, index: i}
	}
	return p
}

// Out returns the i'th sub-stream as a Publisher.
func (p *Partition[T]) Out(i int) reactor.Publisher { return p.branches[i] }

// OnSubscribe implements reactor.Subscriber.
func (p *Partition[T]) OnSubscribe(sub reactor.Subscription) {
	p.mu.Lock()
	p.upstream = sub
	granted := p.granted
	p.mu.Unlock()
	// demand the branches granted before upstream was bound.
	if granted > 0 {
		sub.Request(granted)
	}
}

// OnNext implements reactor.Subscriber.
func (p *Partition[T]) OnNext(v any) {
	value := v.(T)
	p.branches[p.route(value)].deliverNext(value)
}

func (p *Partition[T]) route(v T) int {
	if p.keyFn != nil {
		return int(p.keyFn(v) % uint64(p.n))
	}
	p.mu.Lock()
	idx := int(p.rrCounter % uint64(p.n))
	p.rrCounter++
	p.mu.Unlock()
	return idx
}

// OnError implements reactor.Subscriber.
func (p *Partition[T]) OnError(err error) {
	for _, b := range p.branches {
		b.deliverError(err)
	}
}

// OnComplete implements reactor.Subscriber.
func (p *Partition[T]) OnComplete() {
	for _, b := range p.branches {
		b.deliverComplete()
	}
}

// recomputeUpstreamDemand requests upstream the difference between the
// minimum outstanding demand across all branches and what has already been
// granted. granted only ever increases, so with bounded per-branch demand
// this can stall issuing new upstream requests once a branch consumes its
// credit without the others' minimum rising to match.
func (p *Partition[T]) recomputeUpstreamDemand() {
	min := reactor.Unbounded
	for _, b := range p.branches {
		if b.sub == nil {
			return
		}
		if r := b.sub.Remaining(); r < min {
			min = r
		}
	}
	p.mu.Lock()
	up := p.upstream
	delta := uint64(0)
	if min > p.granted {
		delta = min - p.granted
		p.granted = min
	}
	p.mu.Unlock()
	if delta > 0 && up != nil {
		up.Request(delta)
	}
}

func (p *Partition[T]) branchCancel() {
	allCancelled := true
	for _, b := range p.branches {
		if b.sub == nil || !b.sub.Cancelled() {
			allCancelled = false
			break
		}
	}
	p.mu.Lock()
	up := p.upstream
	p.mu.Unlock()
	if allCancelled && up != nil {
		up.Cancel()
	}
}

// partitionBranch is one of Partition's n sub-streams: a Publisher backed by
// a BaseSubscription for its own demand bookkeeping, with a small queue for
// elements routed to it before its downstream had outstanding demand.
type partitionBranch[T any] struct {
	parent *Partition[T]
	index  int

	mu         sync.Mutex
	downstream reactor.Subscriber
	sub        *reactor.BaseSubscription
	queue      []T
	tramp      trampoline
}

// Subscribe implements reactor.Publisher.
func (b *partitionBranch[T]) Subscribe(downstream reactor.Subscriber) {
	b.mu.Lock()
	b.downstream = downstream
	b.mu.Unlock()
	sub := reactor.NewBaseSubscription(b.onRequest, b.onCancel, b.onInvalid)
	b.mu.Lock()
	b.sub = sub
	b.mu.Unlock()
	downstream.OnSubscribe(sub)
}

func (b *partitionBranch[T]) onRequest(n uint64) {
	b.drain()
	b.parent.recomputeUpstreamDemand()
}

func (b *partitionBranch[T]) onCancel() { b.parent.branchCancel() }

func (b *partitionBranch[T]) onInvalid(err error) { b.deliverError(err) }

func (b *partitionBranch[T]) deliverNext(v T) {
	b.mu.Lock()
	b.queue = append(b.queue, v)
	b.mu.Unlock()
	b.drain()
}

func (b *partitionBranch[T]) drain() {
	for {
		b.mu.Lock()
		sub := b.sub
		if sub == nil || len(b.queue) == 0 {
			b.mu.Unlock()
			return
		}
		if !sub.TryEmit() {
			b.mu.Unlock()
			return
		}
		v := b.queue[0]
		b.queue = b.queue[1:]
		d := b.downstream
		b.mu.Unlock()
		b.tramp.run(func() {
			if d != nil {
				d.OnNext(v)
			}
		})
	}
}

func (b *partitionBranch[T]) deliverError(err error) {
	b.tramp.run(func() {
		b.mu.Lock()
		d := b.downstream
		b.mu.Unlock()
		if d != nil {
			d.OnError(err)
		}
	})
}

func (b *partitionBranch[T]) deliverComplete() {
	b.tramp.run(func() {
		b.mu.Lock()
		d := b.downstream
		b.mu.Unlock()
		if d != nil {
			d.OnComplete()
		}
	})
}
