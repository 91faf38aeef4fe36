package reactor_test

import (
	"testing"

	"github.com/flowmesh/reactor"
	"github.com/flowmesh/reactor/internal/assert"
)

func TestEnvelope_IDIsLazyAndStable(t *testing.T) {
	e := reactor.NewEnvelope("payload")
	id1 := e.ID()
	id2 := e.ID()
	assert.Equal(t, id1, id2)
	assert.NotEqual(t, "", id1)
}

func TestEnvelope_HeadersCaseInsensitive(t *testing.T) {
	e := reactor.NewEnvelope(1)
	e.SetHeader("X-Trace-Id", "abc")

	v, ok := e.Header("x-trace-id")
	assert.Equal(t, true, ok)
	assert.Equal(t, "abc", v)

	_, ok = e.Header("missing")
	assert.Equal(t, false, ok)
}

func TestEnvelope_Origin(t *testing.T) {
	e := reactor.NewEnvelope(1)
	_, ok := e.Origin()
	assert.Equal(t, false, ok)

	e.SetHeader(reactor.OriginHeader, "edge-1")
	origin, ok := e.Origin()
	assert.Equal(t, true, ok)
	assert.Equal(t, "edge-1", origin)
}

func TestEnvelope_HeadersSnapshotIsDetached(t *testing.T) {
	e := reactor.NewEnvelope(1)
	e.SetHeader("a", "1")

	snap := e.Headers()
	snap["a"] = "mutated"

	v, _ := e.Header("a")
	assert.Equal(t, "1", v)
}
