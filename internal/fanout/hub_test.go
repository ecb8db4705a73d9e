// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package fanout

import (
	"sync"
	"testing"
	"time"
)

func recv[T any](t *testing.T, s *Subscriber[T]) (T, bool) {
	t.Helper()
	select {
	case v, ok := <-s.C():
		return v, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero, false
}

func TestHub_SubscribeReceivesLast(t *testing.T) {
	h := New[int]()
	h.Publish(1)
	h.Publish(2)

	s := h.Subscribe()
	defer s.Close()

	if v, ok := recv(t, s); !ok || v != 2 {
		t.Errorf("got %d, %v; want 2, true", v, ok)
	}
}

func TestHub_NoValueBeforePublish(t *testing.T) {
	h := New[int]()
	s := h.Subscribe()
	defer s.Close()

	select {
	case v := <-s.C():
		t.Fatalf("unexpected value %d", v)
	default:
	}

	if _, ok := h.Last(); ok {
		t.Error("Last() reported a value on an empty hub")
	}
}

func TestHub_LatestWins(t *testing.T) {
	h := New[int]()
	s := h.Subscribe()
	defer s.Close()

	for i := 1; i <= 100; i++ {
		h.Publish(i)
	}

	if v, _ := recv(t, s); v != 100 {
		t.Errorf("got %d, want 100", v)
	}
	select {
	case v := <-s.C():
		t.Errorf("stale value %d left in slot", v)
	default:
	}
}

func TestHub_IndependentSubscribers(t *testing.T) {
	h := New[string]()
	a := h.Subscribe()
	b := h.Subscribe()
	defer b.Close()

	h.Publish("x")
	if v, _ := recv(t, a); v != "x" {
		t.Errorf("a got %q", v)
	}

	a.Close()
	h.Publish("y")

	if v, _ := recv(t, b); v != "y" {
		t.Errorf("b got %q, want y", v)
	}
	if _, ok := <-a.C(); ok {
		t.Error("closed subscriber still receives")
	}
	if h.Len() != 1 {
		t.Errorf("Len() = %d, want 1", h.Len())
	}
}

func TestHub_CloseIdempotent(t *testing.T) {
	h := New[int]()
	s := h.Subscribe()

	s.Close()
	s.Close()
	h.Close()
	h.Close()
	s.Close()

	select {
	case <-h.Done():
	default:
		t.Error("Done() not closed")
	}
}

func TestHub_CloseEndsSubscribers(t *testing.T) {
	h := New[int]()
	s := h.Subscribe()
	h.Close()

	if _, ok := recv(t, s); ok {
		t.Error("expected closed channel")
	}

	late := h.Subscribe()
	if _, ok := recv(t, late); ok {
		t.Error("subscriber of a closed hub should be closed")
	}
	late.Close()

	h.Publish(5) // dropped, must not panic
}

func TestHub_ConcurrentPublishAndClose(t *testing.T) {
	h := New[int]()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := h.Subscribe()
			for j := 0; j < 50; j++ {
				select {
				case <-s.C():
				default:
				}
			}
			s.Close()
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				h.Publish(base + j)
			}
		}(i * 1000)
	}

	wg.Wait()
	h.Close()

	if h.Len() != 0 {
		t.Errorf("Len() = %d after all subscribers closed", h.Len())
	}
}
