package operator

import "github.com/flowmesh/reactor"

// ScanFunction folds the current element into the running accumulator.
type ScanFunction[T any] func(acc, v T) T

// Scan emits seed (if emitSeed is true) and then, for each input v, emits
// acc = fn(acc, v). Unlike Reduce, Scan emits on every element, not just at
// completion.
//
// in  -- 1 -- 2 ---- 3 -- 4 ------ 5 --
//
// [ ------------- ScanFunction ------- ]
//
// out -- 1 -- 3 ---- 6 -- 10 ----- 15 -
type Scan[T any] struct {
	Node
	unaryBase
	fn       ScanFunction[T]
	acc      T
	emitSeed bool
	seeded   bool
}

var _ reactor.Flow = (*Scan[any])(nil)

// NewScan returns a Scan operator seeded with seed. If emitSeed is true,
// seed itself is emitted as the first Next signal.
func NewScan[T any](seed T, fn ScanFunction[T], emitSeed bool) *Scan[T] {
	s := &Scan[T]{fn: fn, acc: seed, emitSeed: emitSeed}
	s.Node = NewNode(s)
	return s
}

// Subscribe implements reactor.Publisher.
func (s *Scan[T]) Subscribe(downstream reactor.Subscriber) {
	s.bindDownstream(downstream, s.requestUpstream, s.passthroughCancel, s.forwardError)
}

// OnSubscribe implements reactor.Subscriber.
func (s *Scan[T]) OnSubscribe(sub reactor.Subscription) { s.setUpstream(sub) }

// OnNext implements reactor.Subscriber.
func (s *Scan[T]) OnNext(v any) {
	if !s.seeded && s.emitSeed {
		s.seeded = true
		s.forwardNext(s.acc)
	}
	s.seeded = true
	var next T
	if err := guard(func() { next = s.fn(s.acc, v.(T)) }); err != nil {
		s.forwardError(err)
		return
	}
	s.acc = next
	s.forwardNext(s.acc)
}

// OnError implements reactor.Subscriber.
func (s *Scan[T]) OnError(err error) { s.forwardError(err) }

// OnComplete implements reactor.Subscriber.
func (s *Scan[T]) OnComplete() {
	if !s.seeded && s.emitSeed {
		s.forwardNext(s.acc)
	}
	s.forwardComplete()
}
