package graph

import (
	"sync"

	"github.com/flowmesh/reactor/dispatcher"
)

var (
	defaultOnce sync.Once
	defaultEnv  *dispatcher.Environment
)

// Default returns a lazily-constructed dispatcher.Environment shared by
// callers who don't need an isolated registry of their own. It is a
// convenience, not a requirement: dispatcher.NewEnvironment still works
// for callers who want two graphs to never contend over the same
// dispatchers. There is deliberately no package-level singleton Dispatcher;
// this only holds the registry, not the dispatchers registered in it.
func Default() *dispatcher.Environment {
	defaultOnce.Do(func() { defaultEnv = dispatcher.NewEnvironment() })
	return defaultEnv
}
