// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package bus is the notification bus the reconciler plugs into.
//
// A Bus runs every dispatched action through a chain of middlewares and then
// delivers whatever reaches the end of the chain to its subscribers.
// Middlewares may forward an action, forward a replacement, or drop it.
package bus

import (
	"sync"
)

// Action is anything that can travel through the bus.
type Action interface {
	ActionType() string
}

// Dispatch hands an action to the next stage.
type Dispatch func(Action)

// API is what a middleware receives when the chain is built. API.Dispatch
// re-enters the bus from the top of the chain.
type API struct {
	Dispatch Dispatch
}

// Middleware intercepts actions on their way to subscribers. It is called
// once when the bus is built and returns the stage wrapping next.
type Middleware func(api API) func(next Dispatch) Dispatch

// Listener returns a middleware that hands every action reaching it to
// handler and forwards it unchanged. Placed last in the chain it observes
// exactly what subscribers get, including actions dispatched while the chain
// is being built.
func Listener(handler func(Action)) Middleware {
	return func(API) func(next Dispatch) Dispatch {
		return func(next Dispatch) Dispatch {
			return func(a Action) {
				handler(a)
				next(a)
			}
		}
	}
}

// Bus is safe for concurrent use. Deliveries to subscribers are serialized,
// so every subscriber observes the same order. Subscribers must not dispatch
// synchronously from their handler.
type Bus struct {
	dispatch Dispatch
	ready    chan struct{}

	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]func(Action)
	order  []uint64

	deliverMu sync.Mutex
}

// New builds the middleware chain. The first middleware sees actions first.
//
// Middlewares may start goroutines that dispatch through API while the chain
// is still being built; those dispatches block until New returns.
func New(middlewares ...Middleware) *Bus {
	b := &Bus{
		ready: make(chan struct{}),
		subs:  make(map[uint64]func(Action)),
	}

	api := API{Dispatch: func(a Action) {
		<-b.ready
		b.dispatch(a)
	}}

	dispatch := Dispatch(b.deliver)
	for i := len(middlewares) - 1; i >= 0; i-- {
		dispatch = middlewares[i](api)(dispatch)
	}
	b.dispatch = dispatch
	close(b.ready)

	return b
}

// Dispatch sends a through the middleware chain. Nil actions are ignored.
func (b *Bus) Dispatch(a Action) {
	if a == nil {
		return
	}
	b.dispatch(a)
}

// Subscribe registers handler for every action that reaches the end of the
// chain. Calling the returned function stops delivery.
func (b *Bus) Subscribe(handler func(Action)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = handler
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			delete(b.subs, id)
			for i, sid := range b.order {
				if sid == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (b *Bus) deliver(a Action) {
	b.mu.Lock()
	handlers := make([]func(Action), 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.subs[id])
	}
	b.mu.Unlock()

	b.deliverMu.Lock()
	defer b.deliverMu.Unlock()

	for _, h := range handlers {
		h(a)
	}
}
