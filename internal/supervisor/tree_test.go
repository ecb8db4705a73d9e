// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func quietTree(t *testing.T, cfg TreeConfig) *SupervisorTree {
	t.Helper()
	tree, err := NewSupervisorTree(slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}
	return tree
}

// serveTree runs tree until the test ends.
func serveTree(t *testing.T, tree *SupervisorTree) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)
	t.Cleanup(func() {
		cancel()
		select {
		case <-errCh:
		case <-time.After(3 * time.Second):
			t.Error("tree did not stop")
		}
	})
}

func waitStarted(t *testing.T, svc *MockService) {
	t.Helper()
	select {
	case <-svc.Started():
	case <-time.After(2 * time.Second):
		t.Fatalf("%s was not started", svc)
	}
}

func TestNewSupervisorTree_Defaults(t *testing.T) {
	tests := []struct {
		name string
		in   TreeConfig
		want TreeConfig
	}{
		{"zero config", TreeConfig{}, DefaultTreeConfig()},
		{
			"explicit values kept",
			TreeConfig{FailureThreshold: 2, FailureDecay: 5, FailureBackoff: time.Second, ShutdownTimeout: 3 * time.Second},
			TreeConfig{FailureThreshold: 2, FailureDecay: 5, FailureBackoff: time.Second, ShutdownTimeout: 3 * time.Second},
		},
		{
			"lifecycle backoff only",
			TreeConfig{FailureThreshold: 5, FailureBackoff: 200 * time.Millisecond},
			TreeConfig{FailureThreshold: 5, FailureDecay: 30, FailureBackoff: 200 * time.Millisecond, ShutdownTimeout: 10 * time.Second},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := quietTree(t, tt.in)
			if tree.config != tt.want {
				t.Errorf("config = %+v, want %+v", tree.config, tt.want)
			}
			if tree.Root() == nil {
				t.Error("Root() = nil")
			}
		})
	}
}

func TestSupervisorTree_ServeStopsOnCancel(t *testing.T) {
	tree := quietTree(t, TreeConfig{ShutdownTimeout: time.Second})
	syncSvc := NewMockService("sync-server")
	controlSvc := NewMockService("admin-http")
	tree.AddSyncService(syncSvc)
	tree.AddControlService(controlSvc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- tree.Serve(ctx) }()

	waitStarted(t, syncSvc)
	waitStarted(t, controlSvc)
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not shut down")
	}

	for _, svc := range []*MockService{syncSvc, controlSvc} {
		if svc.StopCount() != 1 {
			t.Errorf("%s stop count = %d, want 1", svc, svc.StopCount())
		}
	}
	report, err := tree.UnstoppedServiceReport()
	if err != nil || len(report) != 0 {
		t.Errorf("UnstoppedServiceReport() = %v, %v", report, err)
	}
}

func TestSupervisorTree_SyncServicesComeAndGo(t *testing.T) {
	tree := quietTree(t, TreeConfig{ShutdownTimeout: time.Second})
	control := NewMockService("admin-http")
	tree.AddControlService(control)
	serveTree(t, tree)
	waitStarted(t, control)

	// Two on/off rounds, the way the lifecycle manager drives the sync layer.
	for round := 1; round <= 2; round++ {
		svc := NewMockService("sync-server")
		token := tree.AddSyncService(svc)
		waitStarted(t, svc)

		if err := tree.RemoveSyncService(token, time.Second); err != nil {
			t.Fatalf("round %d: RemoveSyncService: %v", round, err)
		}
		if svc.StopCount() != 1 {
			t.Errorf("round %d: stop count = %d after removal, want 1", round, svc.StopCount())
		}
	}

	if control.StopCount() != 0 || control.StartCount() != 1 {
		t.Errorf("control plane restarted: starts=%d stops=%d", control.StartCount(), control.StopCount())
	}
}

func TestSupervisorTree_SyncFailureLeavesControlRunning(t *testing.T) {
	tree := quietTree(t, TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})

	flaky := NewMockService("sync-server")
	flaky.SetFailCount(2)
	control := NewMockService("admin-http")
	tree.AddSyncService(flaky)
	tree.AddControlService(control)
	serveTree(t, tree)

	deadline := time.Now().Add(2 * time.Second)
	for flaky.StartCount() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if flaky.StartCount() < 3 {
		t.Errorf("sync service starts = %d, want at least 3", flaky.StartCount())
	}
	if control.StartCount() != 1 {
		t.Errorf("control service starts = %d, want 1", control.StartCount())
	}
}

func TestSupervisorTree_RemoveTwice(t *testing.T) {
	tree := quietTree(t, TreeConfig{ShutdownTimeout: time.Second})
	svc := NewMockService("sync-server")
	token := tree.AddSyncService(svc)
	serveTree(t, tree)
	waitStarted(t, svc)

	if err := tree.RemoveSyncService(token, time.Second); err != nil {
		t.Fatalf("first remove: %v", err)
	}
	// A second TurnOff removes a token that is already gone.
	if err := tree.RemoveSyncService(token, time.Second); err != nil {
		t.Errorf("second remove: %v", err)
	}
	if svc.StartCount() != 1 || svc.StopCount() != 1 {
		t.Errorf("starts=%d stops=%d, want 1/1", svc.StartCount(), svc.StopCount())
	}
}
