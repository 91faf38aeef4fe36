package operator

import (
	"sync"

	"github.com/flowmesh/reactor"
)

// unaryBase is the shared bookkeeping for operators with exactly one
// upstream and one downstream: the downstream reference, the upstream
// Subscription, and the trampoline guarding re-entrant delivery. It is not
// exported; each operator composes it internally and exposes its own
// Subscribe/OnSubscribe/OnNext/OnError/OnComplete methods, keeping the
// capability surface narrow.
type unaryBase struct {
	mu         sync.Mutex
	downstream reactor.Subscriber
	upstream   reactor.Subscription
	tramp      trampoline
}

// bindDownstream stores downstream and constructs+delivers its Subscription.
func (u *unaryBase) bindDownstream(downstream reactor.Subscriber,
	onRequest func(uint64), onCancel func(), onInvalid func(error)) *reactor.BaseSubscription {
	u.mu.Lock()
	u.downstream = downstream
	u.mu.Unlock()
	sub := reactor.NewBaseSubscription(onRequest, onCancel, onInvalid)
	downstream.OnSubscribe(sub)
	return sub
}

func (u *unaryBase) setUpstream(sub reactor.Subscription) {
	u.mu.Lock()
	u.upstream = sub
	u.mu.Unlock()
}

func (u *unaryBase) getUpstream() reactor.Subscription {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.upstream
}

func (u *unaryBase) getDownstream() reactor.Subscriber {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.downstream
}

// emit runs f through the trampoline, preventing re-entrant delivery to the
// downstream subscriber.
func (u *unaryBase) emit(f func()) {
	u.tramp.run(f)
}

func (u *unaryBase) forwardNext(v any) {
	u.emit(func() {
		if d := u.getDownstream(); d != nil {
			d.OnNext(v)
		}
	})
}

func (u *unaryBase) forwardError(err error) {
	u.emit(func() {
		if d := u.getDownstream(); d != nil {
			d.OnError(err)
		}
	})
}

func (u *unaryBase) forwardComplete() {
	u.emit(func() {
		if d := u.getDownstream(); d != nil {
			d.OnComplete()
		}
	})
}

// passthroughDemand forwards n upstream unchanged, the default behavior for
// operators that neither drop nor expand elements.
func (u *unaryBase) passthroughDemand(n uint64) {
	if up := u.getUpstream(); up != nil {
		up.Request(n)
	}
}

func (u *unaryBase) passthroughCancel() {
	if up := u.getUpstream(); up != nil {
		up.Cancel()
	}
}

// requestUpstream requests n from the upstream subscription, if bound.
func (u *unaryBase) requestUpstream(n uint64) {
	if up := u.getUpstream(); up != nil {
		up.Request(n)
	}
}
