// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/liftsync/internal/logging"
	"github.com/tomtom215/liftsync/internal/metrics"
	"github.com/tomtom215/liftsync/internal/models"
	"github.com/tomtom215/liftsync/internal/subscription"
	ws "github.com/tomtom215/liftsync/internal/websocket"
)

// Stream upgrades GET /api/ws/{query} to a websocket that receives a
// snapshot frame for the current value and after every change.
//
// The query is resolved and subscribed before the upgrade, so a bad query
// is answered with a plain 400 and never becomes a websocket.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := models.QueryFromValues(chi.URLParam(r, "query"), r.URL.Query())

	if h.streams.Closed() {
		metrics.StreamRejections.WithLabelValues("stopping").Inc()
		rw.ServiceUnavailable("server is stopping")
		return
	}

	sub, err := h.mux.Subscribe(r.Context(), q)
	if err != nil {
		reason := "bad_request"
		if errors.Is(err, subscription.ErrClosed) {
			reason = "stopping"
			err = models.ErrConnectFailure
		}
		metrics.StreamRejections.WithLabelValues(reason).Inc()
		rw.FromError(err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		sub.Close()
		metrics.StreamRejections.WithLabelValues("upgrade").Inc()
		logging.Ctx(r.Context()).Debug().Err(err).Str("query", q.Name).Msg("stream upgrade failed")
		return
	}

	if _, err := h.streams.Serve(r.Context(), ws.NewHandle(conn, sub, h.stream)); err != nil {
		sub.Close()
		_ = conn.Close()
		metrics.StreamRejections.WithLabelValues("stopping").Inc()
	}
}
