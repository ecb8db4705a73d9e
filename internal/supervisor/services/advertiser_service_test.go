// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeAdvertiser struct {
	err  error
	port chan int
}

func (f *fakeAdvertiser) Advertise(ctx context.Context, port int) error {
	if f.port != nil {
		f.port <- port
	}
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return nil
}

func TestAdvertiserService(t *testing.T) {
	t.Run("blocks until canceled", func(t *testing.T) {
		adv := &fakeAdvertiser{port: make(chan int, 1)}
		svc := NewAdvertiserService(adv, 8080)
		if svc.String() != "mdns-advertiser:8080" {
			t.Errorf("String() = %q", svc.String())
		}

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		if got := <-adv.port; got != 8080 {
			t.Errorf("advertised port = %d, want 8080", got)
		}
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() = %v, want context.Canceled", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Serve did not return")
		}
	})

	t.Run("wraps advertise failure", func(t *testing.T) {
		cause := errors.New("no multicast interface")
		svc := NewAdvertiserService(&fakeAdvertiser{err: cause}, 8080)
		if err := svc.Serve(context.Background()); !errors.Is(err, cause) {
			t.Errorf("Serve() = %v, want wrapped cause", err)
		}
	})
}
