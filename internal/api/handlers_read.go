// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/liftsync/internal/models"
	"github.com/tomtom215/liftsync/internal/subscription"
)

// readTimeout bounds a one-shot read waiting for its first snapshot.
const readTimeout = 10 * time.Second

// singleEntity lists the queries that resolve to one row or null.
var singleEntity = map[string]bool{
	models.QueryLift:      true,
	models.QueryVariation: true,
	models.QuerySet:       true,
	models.QueryGoal:      true,
}

// Read handles GET /api/rest/{query}: the current snapshot of a query
// without opening a stream. A single-entity query that matches nothing is
// a 404.
func (h *Handler) Read(w http.ResponseWriter, r *http.Request) {
	h.read(w, r, chi.URLParam(r, "query"))
}

// ReadQuery serves Read for a fixed query name. It is registered for every
// known name so GET never competes with the mutation routes sharing a path.
func (h *Handler) ReadQuery(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.read(w, r, name)
	}
}

func (h *Handler) read(w http.ResponseWriter, r *http.Request, name string) {
	rw := NewResponseWriter(w, r)
	q := models.QueryFromValues(name, r.URL.Query())

	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	snap, err := h.mux.Snapshot(ctx, q)
	if err != nil {
		if errors.Is(err, subscription.ErrClosed) {
			err = models.ErrConnectFailure
		}
		rw.FromError(err)
		return
	}
	if singleEntity[snap.Query.Name] && snap.IsNull() {
		rw.NotFound(snap.Query.Name + " not found")
		return
	}
	rw.Success(snap)
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(models.HealthStatus{
		Status:    "ok",
		Timestamp: h.now().UTC(),
	})
}

// Root handles GET / with the service name, version and route catalog.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(models.ServiceInfo{
		Name:      ServiceName,
		Version:   h.version,
		Streams:   streamRoutes(),
		Mutations: mutationRoutes(),
	})
}
