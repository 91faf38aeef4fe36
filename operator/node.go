// Package operator implements the stateful graph vertices of the engine:
// stateless transforms, stateful transforms, aggregators, fan-in, fan-out,
// and timing operators, all built on the reactor.Publisher/Subscriber/
// Subscription protocol.
package operator

import "github.com/flowmesh/reactor"

// Node is embeddable scaffolding shared by every operator and source in
// this package: it supplies the fluent Via/To wiring so each concrete type
// only has to implement the signal-handling side of reactor.Flow (Subscribe,
// OnSubscribe, OnNext, OnError, OnComplete). It stays a thin helper rather
// than a deep base class: it holds nothing but a reference back to the
// concrete operator so Via/To can call its Subscribe method.
type Node struct {
	self reactor.Publisher
}

// NewNode returns a Node bound to self. Callers must set the returned Node
// into their struct after self is fully constructed and addressable, e.g.:
//
//	m := &Map[T, R]{...}
//	m.Node = NewNode(m)
func NewNode(self reactor.Publisher) Node {
	return Node{self: self}
}

// Via subscribes flow to this node and returns flow, continuing the fluent
// chain.
func (n Node) Via(flow reactor.Flow) reactor.Flow {
	n.self.Subscribe(flow)
	return flow
}

// To subscribes sink to this node, terminating the fluent chain.
func (n Node) To(sink reactor.Subscriber) {
	n.self.Subscribe(sink)
}
