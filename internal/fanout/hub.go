// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

// Package fanout provides a latest-wins broadcaster.
//
// Every subscriber owns a one-slot buffer. Publish replaces whatever value is
// still waiting in that slot, so a slow reader skips intermediate values but
// always ends up with the newest one, and a fast publisher is never blocked by
// a slow reader.
//
//	hub := fanout.New[models.Snapshot]()
//	sub := hub.Subscribe() // receives the last published value immediately
//	defer sub.Close()
//	for snap := range sub.C() { ... }
package fanout

import "sync"

// Hub broadcasts values of T to any number of subscribers.
type Hub[T any] struct {
	mu      sync.Mutex
	subs    map[*Subscriber[T]]struct{}
	last    T
	hasLast bool
	closed  bool
	done    chan struct{}
}

// New creates an open hub with no value.
func New[T any]() *Hub[T] {
	return &Hub[T]{
		subs: make(map[*Subscriber[T]]struct{}),
		done: make(chan struct{}),
	}
}

// Subscriber is one reader of a Hub.
type Subscriber[T any] struct {
	hub  *Hub[T]
	ch   chan T
	once sync.Once
}

// Subscribe registers a reader. When the hub already holds a value, it is
// waiting in the reader's slot on return. Subscribing to a closed hub yields
// a reader whose channel is already closed.
func (h *Hub[T]) Subscribe() *Subscriber[T] {
	s := &Subscriber[T]{hub: h, ch: make(chan T, 1)}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		s.once.Do(func() { close(s.ch) })
		return s
	}
	if h.hasLast {
		s.ch <- h.last
	}
	h.subs[s] = struct{}{}
	return s
}

// Publish stores v as the latest value and offers it to every subscriber,
// replacing any value they have not read yet. It never blocks on readers.
func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.last = v
	h.hasLast = true

	for s := range h.subs {
		select {
		case <-s.ch:
		default:
		}
		select {
		case s.ch <- v:
		default:
		}
	}
}

// Last returns the latest published value.
func (h *Hub[T]) Last() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last, h.hasLast
}

// Len returns the number of open subscribers.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Done is closed when the hub is closed.
func (h *Hub[T]) Done() <-chan struct{} {
	return h.done
}

// Close closes every subscriber channel. Later Publish calls are dropped.
// Safe to call more than once.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	close(h.done)
	for s := range h.subs {
		delete(h.subs, s)
		s.closeChan()
	}
}

// C yields published values. It is closed by Close on either side.
func (s *Subscriber[T]) C() <-chan T {
	return s.ch
}

// Close detaches the subscriber and closes its channel. Idempotent, and safe
// after the hub itself was closed.
func (s *Subscriber[T]) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()

	delete(s.hub.subs, s)
	s.closeChan()
}

// closeChan must be called with the hub lock held.
func (s *Subscriber[T]) closeChan() {
	s.once.Do(func() { close(s.ch) })
}
