package operator_test

import (
	"testing"

	"github.com/flowmesh/reactor"
	"github.com/flowmesh/reactor/internal/assert"
	"github.com/flowmesh/reactor/operator"
)

func TestWhen_MatchedErrorCompletesInstead(t *testing.T) {
	src := newFailingSource[int](1, 2)
	rec := newRecorder[int]()

	var caught *reactor.SignalError
	w := operator.NewWhen(func(e *reactor.SignalError) { caught = e })
	src.Via(w).To(rec)

	<-rec.done
	assert.Equal(t, []int{1, 2}, rec.values())
	assert.Equal(t, true, rec.isComplete())
	assert.Equal(t, 0, len(rec.errors()))
	if caught == nil || !reactor.IsKind(caught, reactor.KindProtocolViolation) {
		t.Fatalf("expected the handler to observe the protocol violation, got %v", caught)
	}
}

func TestWhen_UnmatchedErrorPassesThrough(t *testing.T) {
	src := newFatalSource[int](1)
	rec := newRecorder[int]()

	handlerCalled := false
	w := operator.NewWhen(func(e *notMatchedError) { handlerCalled = true })
	src.Via(w).To(rec)

	<-rec.done
	assert.Equal(t, 1, len(rec.errors()))
	assert.Equal(t, false, handlerCalled)
}

type notMatchedError struct{}

func (*notMatchedError) Error() string { return "not matched" }
