package operator_test

import (
	"testing"

	"github.com/flowmesh/reactor/internal/assert"
	"github.com/flowmesh/reactor/operator"
)

func TestPartition_ByKey(t *testing.T) {
	src := newTestSource(1, 2, 3, 4, 5, 6)
	p := operator.NewPartition[int](2, func(v int) uint64 { return uint64(v % 2) })

	evens := newRecorder[int]()
	odds := newRecorder[int]()
	p.Out(0).Subscribe(evens)
	p.Out(1).Subscribe(odds)

	src.Subscribe(p)

	<-evens.done
	<-odds.done
	assert.Equal(t, []int{2, 4, 6}, evens.values())
	assert.Equal(t, []int{1, 3, 5}, odds.values())
}

func TestPartition_RoundRobin(t *testing.T) {
	src := newTestSource(1, 2, 3, 4)
	p := operator.NewPartition[int](2, nil)

	a := newRecorder[int]()
	b := newRecorder[int]()
	p.Out(0).Subscribe(a)
	p.Out(1).Subscribe(b)

	src.Subscribe(p)

	<-a.done
	<-b.done
	assert.Equal(t, []int{1, 3}, a.values())
	assert.Equal(t, []int{2, 4}, b.values())
}

func TestPartition_NonPositiveCount(t *testing.T) {
	assert.Panics(t, func() {
		operator.NewPartition[int](0, nil)
	})
}

func TestBroadcast(t *testing.T) {
	b := operator.NewBroadcast[int]()
	a := newRecorder[int]()
	c := newRecorder[int]()
	b.Subscribe(a)
	b.Subscribe(c)

	b.BroadcastNext(1)
	b.BroadcastNext(2)
	b.BroadcastComplete()

	<-a.done
	<-c.done
	assert.Equal(t, []int{1, 2}, a.values())
	assert.Equal(t, []int{1, 2}, c.values())
}

func TestBroadcast_LateSubscriberSeesOnlyComplete(t *testing.T) {
	b := operator.NewBroadcast[int]()
	a := newRecorder[int]()
	b.Subscribe(a)
	b.BroadcastNext(1)
	b.BroadcastComplete()

	late := newRecorder[int]()
	b.Subscribe(late)

	<-a.done
	<-late.done
	assert.Equal(t, []int{1}, a.values())
	assert.Equal(t, 0, len(late.values()))
	assert.Equal(t, true, late.isComplete())
}
