package operator

import (
	"sync"

	"github.com/flowmesh/reactor"
)

// MapFunction transforms one element of type T into one element of type R.
type MapFunction[T, R any] func(T) R

// Map applies a pure function to each Next signal.
//
// in  -- 1 -- 2 ---- 3 -- 4 ------ 5 --
//
// [ ---------- MapFunction ---------- ]
//
// out -- 1' - 2' --- 3' - 4' ----- 5' -
//
// parallelism controls how many elements may be transformed concurrently.
// Use parallelism = 1 when the order of elements matters; with a larger
// value, elements may be delivered downstream out of arrival order.
type Map[T, R any] struct {
	Node
	unaryBase
	mapFn       MapFunction[T, R]
	parallelism uint
	sem         chan struct{}
	wg          sync.WaitGroup
}

var _ reactor.Flow = (*Map[any, any])(nil)

// NewMap returns a new Map operator. NewMap panics if parallelism is zero.
func NewMap[T, R any](mapFn MapFunction[T, R], parallelism uint) *Map[T, R] {
	if parallelism == 0 {
		panic("reactor: nonpositive Map parallelism")
	}
	m := &Map[T, R]{
		mapFn:       mapFn,
		parallelism: parallelism,
		sem:         make(chan struct{}, parallelism),
	}
	m.Node = NewNode(m)
	return m
}

// Subscribe implements reactor.Publisher.
func (m *Map[T, R]) Subscribe(downstream reactor.Subscriber) {
	m.bindDownstream(downstream, m.requestUpstream, m.passthroughCancel, m.forwardError)
}

// OnSubscribe implements reactor.Subscriber.
func (m *Map[T, R]) OnSubscribe(sub reactor.Subscription) { m.setUpstream(sub) }

// OnNext implements reactor.Subscriber.
func (m *Map[T, R]) OnNext(v any) {
	m.sem <- struct{}{}
	m.wg.Add(1)
	go func(element T) {
		defer func() { <-m.sem; m.wg.Done() }()
		var result R
		if err := guard(func() { result = m.mapFn(element) }); err != nil {
			m.forwardError(err)
			return
		}
		m.forwardNext(result)
	}(v.(T))
}

// OnError implements reactor.Subscriber.
func (m *Map[T, R]) OnError(err error) {
	m.wg.Wait()
	m.forwardError(err)
}

// OnComplete implements reactor.Subscriber.
func (m *Map[T, R]) OnComplete() {
	m.wg.Wait()
	m.forwardComplete()
}
