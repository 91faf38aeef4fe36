package graph

import (
	"github.com/flowmesh/reactor"
	"github.com/flowmesh/reactor/operator"
)

// BroadcastSource is a hot, fan-out reactor.Source: values pushed through
// BroadcastNext/BroadcastError/BroadcastComplete are delivered to every
// subscriber attached at the time of the push. It is the façade's thin
// wrapper around operator.Broadcast, reused rather than reimplemented,
// exposing just the Source half of the hub plus the push methods a
// producer needs.
type BroadcastSource[T any] struct {
	sourceBase
	hub *operator.Broadcast[T]
}

var _ reactor.Source = (*BroadcastSource[any])(nil)

// NewBroadcastSource returns an empty BroadcastSource hub.
func NewBroadcastSource[T any]() *BroadcastSource[T] {
	b := &BroadcastSource[T]{hub: operator.NewBroadcast[T]()}
	b.sourceBase = sourceBase{self: b.hub}
	return b
}

// Subscribe implements reactor.Publisher.
func (b *BroadcastSource[T]) Subscribe(downstream reactor.Subscriber) {
	b.hub.Subscribe(downstream)
}

// BroadcastNext delivers v to every currently attached subscriber with
// outstanding demand.
func (b *BroadcastSource[T]) BroadcastNext(v T) { b.hub.BroadcastNext(v) }

// BroadcastError delivers a terminal Error to every attached subscriber.
func (b *BroadcastSource[T]) BroadcastError(err error) { b.hub.BroadcastError(err) }

// BroadcastComplete delivers Complete to every attached subscriber.
func (b *BroadcastSource[T]) BroadcastComplete() { b.hub.BroadcastComplete() }
