package graph_test

import (
	"errors"
	"testing"

	"github.com/flowmesh/reactor/graph"
	"github.com/flowmesh/reactor/internal/assert"
)

func TestBroadcastSource_FansOutToAllSubscribers(t *testing.T) {
	b := graph.NewBroadcastSource[int]()
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

func TestBroadcastSource_ErrorTerminatesAllSubscribers(t *testing.T) {
	b := graph.NewBroadcastSource[int]()
	a := newRecorder[int]()
	b.Subscribe(a)

	b.BroadcastError(errors.New("boom"))

	<-a.done
	assert.Equal(t, 1, len(a.errs))
}
