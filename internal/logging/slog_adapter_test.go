// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSlogHandler_Levels(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug - 4, `"level":"trace"`},
		{slog.LevelDebug, `"level":"debug"`},
		{slog.LevelInfo, `"level":"info"`},
		{slog.LevelWarn, `"level":"warn"`},
		{slog.LevelError, `"level":"error"`},
		{slog.LevelError + 4, `"level":"error"`},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(NewSlogHandlerWithLogger(zerolog.New(&buf).Level(zerolog.TraceLevel)))
			zerolog.SetGlobalLevel(zerolog.TraceLevel)
			defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

			logger.Log(context.Background(), tt.level, "event")

			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %s does not contain %s", buf.String(), tt.want)
			}
		})
	}
}

func TestSlogHandler_Enabled(t *testing.T) {
	h := NewSlogHandlerWithLogger(zerolog.New(nil).Level(zerolog.WarnLevel))

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled for a warn logger")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled for a warn logger")
	}
}

func TestSlogHandler_Attributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewSlogHandlerWithLogger(zerolog.New(&buf)))

	logger.With("supervisor", "liftsync").WithGroup("svc").Info("restart",
		"name", "sync-server",
		"attempt", 3,
		"backoff", 15*time.Second,
		"healthy", false,
		"err", errors.New("bind: address in use"),
		slog.Group("port", "value", 8080),
	)

	out := buf.String()
	for _, want := range []string{
		`"supervisor":"liftsync"`,
		`"svc.name":"sync-server"`,
		`"svc.attempt":3`,
		`"svc.healthy":false`,
		`"svc.err":"bind: address in use"`,
		`"svc.port.value":8080`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output %s missing %s", out, want)
		}
	}
}

func TestSlogHandler_AttrsKeepTheirGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewSlogHandlerWithLogger(zerolog.New(&buf)))

	logger.With("tree", "liftsync").
		WithGroup("layer").With("name", "sync-layer").
		WithGroup("svc").Info("restart", "attempt", 2)

	out := buf.String()
	for _, want := range []string{
		`"tree":"liftsync"`,
		`"layer.name":"sync-layer"`,
		`"layer.svc.attempt":2`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output %s missing %s", out, want)
		}
	}
	for _, unwanted := range []string{`"layer.tree"`, `"layer.svc.name"`} {
		if strings.Contains(out, unwanted) {
			t.Errorf("output %s has %s", out, unwanted)
		}
	}
}

func TestSlogHandler_TraceMatchesEnabled(t *testing.T) {
	var buf bytes.Buffer
	h := NewSlogHandlerWithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	level := slog.LevelDebug - 4
	if h.Enabled(context.Background(), level) {
		t.Fatal("trace should be disabled for a debug logger")
	}
	if err := h.Handle(context.Background(), slog.NewRecord(time.Now(), level, "noise", 0)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("trace record written by a debug logger: %s", buf.String())
	}
}

func TestSlogHandler_EmptyGroup(t *testing.T) {
	h := NewSlogHandler()
	if got := h.WithGroup(""); got != h {
		t.Error("WithGroup(\"\") should return the same handler")
	}
}

func TestSlogToZerologLevel(t *testing.T) {
	tests := []struct {
		in   slog.Level
		want zerolog.Level
	}{
		{slog.LevelDebug - 4, zerolog.TraceLevel},
		{slog.LevelDebug, zerolog.DebugLevel},
		{slog.LevelInfo, zerolog.InfoLevel},
		{slog.LevelWarn, zerolog.WarnLevel},
		{slog.LevelError, zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		if got := slogToZerologLevel(tt.in); got != tt.want {
			t.Errorf("slogToZerologLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewComponentSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	NewComponentSlogLogger("supervisor").Info("service started")

	out := buf.String()
	if !strings.Contains(out, `"component":"supervisor"`) || !strings.Contains(out, "service started") {
		t.Errorf("unexpected output: %s", out)
	}
}
