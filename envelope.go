package reactor

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// OriginHeader is the well-known header key carrying the origin of an
// Envelope.
const OriginHeader = "x-reactor-origin"

// Envelope wraps a payload with routing metadata: a lazily-assigned unique
// identifier, a case-insensitive header map, and an optional reply-to tag.
// Envelopes are used only where routing metadata is required; most
// operators pass raw values.
type Envelope[T any] struct {
	mu      sync.Mutex
	id      string
	Payload T
	headers map[string]string
	ReplyTo string
}

// NewEnvelope returns an Envelope wrapping payload. The identifier is not
// assigned until first read via ID.
func NewEnvelope[T any](payload T) *Envelope[T] {
	return &Envelope[T]{Payload: payload}
}

// ID returns the envelope's identifier, assigning a new random UUID on
// first call.
func (e *Envelope[T]) ID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.id == "" {
		e.id = uuid.NewString()
	}
	return e.id
}

// Header returns the value for key (case-insensitive), and whether it was
// present.
func (e *Envelope[T]) Header(key string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.headers == nil {
		return "", false
	}
	v, ok := e.headers[strings.ToLower(key)]
	return v, ok
}

// SetHeader sets key (lower-cased) to value.
func (e *Envelope[T]) SetHeader(key, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.headers == nil {
		e.headers = make(map[string]string)
	}
	e.headers[strings.ToLower(key)] = value
}

// Origin returns the value of the well-known origin header.
func (e *Envelope[T]) Origin() (string, bool) {
	return e.Header(OriginHeader)
}

// Headers returns a snapshot copy of the current header set. The returned
// map is an ordinary map the caller can modify; such changes do not reach
// the envelope.
func (e *Envelope[T]) Headers() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	snapshot := make(map[string]string, len(e.headers))
	for k, v := range e.headers {
		snapshot[k] = v
	}
	return snapshot
}
