// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package server

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/liftsync/internal/config"
	"github.com/tomtom215/liftsync/internal/models"
	"github.com/tomtom215/liftsync/internal/store"
)

func testConfig() config.ServerConfig {
	return config.ServerConfig{
		Host:              "127.0.0.1",
		PingPeriod:        time.Second,
		PongWait:          3 * time.Second,
		WriteWait:         time.Second,
		MaxMessageSize:    64 * 1024,
		PushRate:          1000,
		PushBurst:         10,
		RateLimitDisabled: true,
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.Open(config.StoreConfig{Driver: "badger", InMemory: true})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	srv := New(testConfig(), st, "test")
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
		_ = st.Close()
	})
	return srv
}

func stop(t *testing.T, srv *Server) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func getHealth(addr string) (int, error) {
	client := &http.Client{Timeout: time.Second}
	resp, err := client.Get("http://" + addr + "/health")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

func TestServer_StartIsListeningOnReturn(t *testing.T) {
	srv := newTestServer(t)

	if err := srv.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !srv.Running() {
		t.Fatal("Running() = false after Start")
	}
	if srv.Port() == 0 {
		t.Fatal("port 0 should resolve to a bound port")
	}

	status, err := getHealth(srv.Addr())
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if status != http.StatusOK {
		t.Errorf("health status = %d", status)
	}
}

func TestServer_StartIsIdempotent(t *testing.T) {
	srv := newTestServer(t)

	if err := srv.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	addr := srv.Addr()
	if err := srv.Start(0); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if srv.Addr() != addr {
		t.Errorf("second Start rebound: %s -> %s", addr, srv.Addr())
	}
}

func TestServer_StopIsIdempotentAndReleasesPort(t *testing.T) {
	srv := newTestServer(t)

	if err := srv.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	port := srv.Port()
	stop(t, srv)
	stop(t, srv)

	if srv.Running() || srv.Addr() != "" {
		t.Fatal("server should report stopped")
	}
	if _, err := getHealth("127.0.0.1:" + strconv.Itoa(port)); err == nil {
		t.Error("health should fail after Stop")
	}

	// The same port can be bound again.
	ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		t.Fatalf("port %d not released: %v", port, err)
	}
	_ = ln.Close()
}

func TestServer_RestartOnSamePort(t *testing.T) {
	srv := newTestServer(t)

	if err := srv.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	port := srv.Port()
	stop(t, srv)

	if err := srv.Start(port); err != nil {
		t.Fatalf("restart on %d: %v", port, err)
	}
	if srv.Port() != port {
		t.Errorf("port = %d, want %d", srv.Port(), port)
	}
	if status, err := getHealth(srv.Addr()); err != nil || status != http.StatusOK {
		t.Errorf("health after restart = %d, %v", status, err)
	}
}

func TestServer_StartFailsWhenPortTaken(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	srv := newTestServer(t)
	if err := srv.Start(port); err == nil {
		t.Fatal("Start on a taken port should fail")
	}
	if srv.Running() {
		t.Error("server should not report running")
	}
}

func TestServer_StartRejectsBadPort(t *testing.T) {
	srv := newTestServer(t)
	for _, port := range []int{-1, 70000} {
		if err := srv.Start(port); err == nil {
			t.Errorf("Start(%d) should fail", port)
		}
	}
}

func TestServer_StopClosesStreams(t *testing.T) {
	srv := newTestServer(t)
	if err := srv.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+srv.Addr()+"/api/ws/lifts", nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("initial frame: %v", err)
	}

	stop(t, srv)

	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("read after Stop = %v, want going-away close", err)
	}
}

func TestServer_RestartServesStreamsAgain(t *testing.T) {
	srv := newTestServer(t)
	if err := srv.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	port := srv.Port()
	stop(t, srv)
	if err := srv.Start(port); err != nil {
		t.Fatalf("restart: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+srv.Addr()+"/api/ws/goals", nil)
	if err != nil {
		t.Fatalf("Dial after restart: %v", err)
	}
	defer conn.Close()

	var frame models.Frame
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if frame.Query.Name != models.QueryGoals || frame.Seq != 1 {
		t.Errorf("frame = %+v, want first goals snapshot", frame)
	}
}

func TestServer_StartAfterServeFailure(t *testing.T) {
	srv := newTestServer(t)
	srv.cfg.ShutdownTimeout = time.Second
	if err := srv.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+srv.Addr()+"/api/ws/lifts", nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("initial frame: %v", err)
	}

	// Pull the listener out from under Serve; the open stream survives it.
	srv.mu.Lock()
	_ = srv.run.listener.Close()
	srv.mu.Unlock()
	select {
	case <-srv.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("serve did not fail after the listener closed")
	}
	if srv.Running() {
		t.Error("Running() = true after serve failure")
	}

	began := time.Now()
	if err := srv.Start(0); err != nil {
		t.Fatalf("Start after failure: %v", err)
	}
	if took := time.Since(began); took > 2*time.Second {
		t.Errorf("Start after failure took %v, want within the shutdown timeout", took)
	}
	if code, err := getHealth(srv.Addr()); err != nil || code != http.StatusOK {
		t.Errorf("health after restart = %d, %v", code, err)
	}

	// The stale stream was torn down with the failed run.
	_, _, err = conn.ReadMessage()
	if err == nil {
		t.Error("stream from the failed run still open")
	}
}

func TestServer_ShutdownTimeoutDefault(t *testing.T) {
	tests := []struct {
		configured time.Duration
		want       time.Duration
	}{
		{0, 10 * time.Second},
		{-time.Second, 10 * time.Second},
		{2 * time.Second, 2 * time.Second},
	}
	for _, tt := range tests {
		cfg := testConfig()
		cfg.ShutdownTimeout = tt.configured
		if got := New(cfg, nil, "test").shutdownTimeout(); got != tt.want {
			t.Errorf("shutdownTimeout(%v) = %v, want %v", tt.configured, got, tt.want)
		}
	}
}
