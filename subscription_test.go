package reactor_test

import (
	"testing"

	"github.com/flowmesh/reactor"
	"github.com/flowmesh/reactor/internal/assert"
)

func TestDemandCounter_AddAndTake(t *testing.T) {
	var d reactor.DemandCounter
	d.Add(2)
	assert.Equal(t, uint64(2), d.Remaining())
	assert.Equal(t, true, d.TryTake())
	assert.Equal(t, true, d.TryTake())
	assert.Equal(t, false, d.TryTake())
}

func TestDemandCounter_SaturatesAtUnbounded(t *testing.T) {
	var d reactor.DemandCounter
	d.Add(reactor.Unbounded)
	d.Add(5)
	assert.Equal(t, reactor.Unbounded, d.Remaining())
	assert.Equal(t, true, d.TryTake())
	assert.Equal(t, reactor.Unbounded, d.Remaining())
}

func TestDemandCounter_AddZeroIsNoop(t *testing.T) {
	var d reactor.DemandCounter
	d.Add(0)
	assert.Equal(t, uint64(0), d.Remaining())
}

func TestBaseSubscription_RequestZeroIsInvalid(t *testing.T) {
	var invalid error
	sub := reactor.NewBaseSubscription(nil, nil, func(err error) { invalid = err })
	sub.Request(0)
	if invalid == nil || !reactor.IsKind(invalid, reactor.KindIllegalArgument) {
		t.Fatalf("expected an illegal argument error, got %v", invalid)
	}
}

func TestBaseSubscription_RequestGrantsDemandAndNotifies(t *testing.T) {
	var granted uint64
	sub := reactor.NewBaseSubscription(func(n uint64) { granted = n }, nil, nil)
	sub.Request(3)
	assert.Equal(t, uint64(3), granted)
	assert.Equal(t, uint64(3), sub.Remaining())
}

func TestBaseSubscription_CancelIsIdempotent(t *testing.T) {
	calls := 0
	sub := reactor.NewBaseSubscription(nil, func() { calls++ }, nil)
	sub.Cancel()
	sub.Cancel()
	assert.Equal(t, 1, calls)
	assert.Equal(t, true, sub.Cancelled())
}

func TestBaseSubscription_RequestAfterCancelIsIgnored(t *testing.T) {
	var calls int
	sub := reactor.NewBaseSubscription(func(uint64) { calls++ }, nil, nil)
	sub.Cancel()
	sub.Request(5)
	assert.Equal(t, 0, calls)
}

func TestBaseSubscription_TryEmit(t *testing.T) {
	sub := reactor.NewBaseSubscription(nil, nil, nil)
	sub.Request(1)
	assert.Equal(t, true, sub.TryEmit())
	assert.Equal(t, false, sub.TryEmit())
}

func TestBaseSubscription_TryEmitAfterCancelFails(t *testing.T) {
	sub := reactor.NewBaseSubscription(nil, nil, nil)
	sub.Request(5)
	sub.Cancel()
	assert.Equal(t, false, sub.TryEmit())
}

func TestBaseSubscription_AddCreditRestoresDemandWithoutNotifying(t *testing.T) {
	calls := 0
	sub := reactor.NewBaseSubscription(func(uint64) { calls++ }, nil, nil)
	sub.Request(1)
	assert.Equal(t, 1, calls)
	sub.TryEmit()
	assert.Equal(t, uint64(0), sub.Remaining())
	sub.AddCredit(1)
	assert.Equal(t, uint64(1), sub.Remaining())
	assert.Equal(t, 1, calls)
}
