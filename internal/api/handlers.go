// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package api

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/liftsync/internal/config"
	"github.com/tomtom215/liftsync/internal/logging"
	"github.com/tomtom215/liftsync/internal/models"
	"github.com/tomtom215/liftsync/internal/subscription"
	ws "github.com/tomtom215/liftsync/internal/websocket"
)

// Writer is the write half of the Repository Facade. *store.Store
// implements it.
type Writer interface {
	UpsertLift(ctx context.Context, l models.Lift) error
	DeleteLift(ctx context.Context, id string) (bool, error)
	DeleteAllLifts(ctx context.Context) (int, error)

	UpsertVariation(ctx context.Context, v models.Variation) error
	DeleteVariation(ctx context.Context, id string) (bool, error)
	DeleteVariations(ctx context.Context, liftID string) (int, error)

	UpsertSet(ctx context.Context, s models.LBSet) error
	DeleteSet(ctx context.Context, id string) (bool, error)
	DeleteSets(ctx context.Context, variationID string) (int, error)

	UpsertWorkout(ctx context.Context, w models.Workout) error
	DeleteWorkout(ctx context.Context, id string) (bool, error)

	UpsertGoal(ctx context.Context, g models.Goal) error
	DeleteGoal(ctx context.Context, id string) (bool, error)
}

// Deps wires a Handler.
type Deps struct {
	Mux      *subscription.Multiplexer
	Store    Writer
	Registry *ws.Registry
	Config   config.ServerConfig
	Version  string
}

// Handler serves streams, mutations and reads for one server instance.
type Handler struct {
	mux      *subscription.Multiplexer
	store    Writer
	streams  *ws.Registry
	cfg      config.ServerConfig
	stream   ws.HandleConfig
	upgrader websocket.Upgrader
	version  string
	now      func() time.Time
}

// NewHandler creates a Handler.
func NewHandler(deps Deps) *Handler {
	h := &Handler{
		mux:     deps.Mux,
		store:   deps.Store,
		streams: deps.Registry,
		cfg:     deps.Config,
		stream:  ws.HandleConfigFrom(deps.Config),
		version: deps.Version,
		now:     time.Now,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  4096,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: deps.Config.WriteWait,
	}
	return h
}

// checkWebSocketOrigin admits native clients, which send no Origin, and
// browsers whose origin is configured for CORS.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if slices.Contains(h.cfg.CORSOrigins, "*") || slices.Contains(h.cfg.CORSOrigins, origin) {
		return true
	}
	if origin == "http://"+r.Host || origin == "https://"+r.Host {
		return true
	}

	logging.Warn().Str("component", "api").Str("origin", sanitizeLogValue(origin)).Msg("stream rejected from unauthorized origin")
	return false
}

// sanitizeLogValue strips control characters and bounds the length of
// client-supplied values before they are logged.
func sanitizeLogValue(s string) string {
	const maxLen = 200
	out := make([]rune, 0, min(len(s), maxLen))
	for _, r := range s {
		if len(out) == maxLen {
			break
		}
		if r < 0x20 || r == 0x7f {
			r = '_'
		}
		out = append(out, r)
	}
	return string(out)
}
