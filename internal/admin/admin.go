// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

// Package admin is the loopback control plane of the daemon: lifecycle
// actions, lifecycle status and Prometheus metrics. It binds to
// 127.0.0.1 by default and is never exposed on the sync port.
package admin

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/liftsync/internal/api"
	"github.com/tomtom215/liftsync/internal/config"
	"github.com/tomtom215/liftsync/internal/lifecycle"
	"github.com/tomtom215/liftsync/internal/middleware"
	"github.com/tomtom215/liftsync/internal/models"
)

// Route paths.
const (
	PathOn      = "/lifecycle/on"
	PathOff     = "/lifecycle/off"
	PathStatus  = "/lifecycle/status"
	PathMetrics = "/metrics"
)

// Lifecycle is the subset of *lifecycle.Manager the control plane drives.
type Lifecycle interface {
	TurnOn(ctx context.Context, port int) (lifecycle.Status, error)
	TurnOff(ctx context.Context) (lifecycle.Status, error)
	Status() lifecycle.Status
}

// Handler serves the control plane routes.
type Handler struct {
	lc          Lifecycle
	defaultPort int
}

// NewHandler creates a Handler. defaultPort is used by POST /lifecycle/on
// without a port parameter.
func NewHandler(lc Lifecycle, defaultPort int) *Handler {
	return &Handler{lc: lc, defaultPort: defaultPort}
}

// TurnOn handles POST /lifecycle/on?port=.
func (h *Handler) TurnOn(w http.ResponseWriter, r *http.Request) {
	rw := api.NewResponseWriter(w, r)

	port := h.defaultPort
	if raw := r.URL.Query().Get("port"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			rw.BadRequest("port must be an integer")
			return
		}
		port = p
	}

	status, err := h.lc.TurnOn(r.Context(), port)
	h.respond(rw, status, err)
}

// TurnOff handles POST /lifecycle/off.
func (h *Handler) TurnOff(w http.ResponseWriter, r *http.Request) {
	status, err := h.lc.TurnOff(r.Context())
	h.respond(api.NewResponseWriter(w, r), status, err)
}

// Status handles GET /lifecycle/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	api.WriteSuccess(w, r, h.lc.Status())
}

// respond reports the status reached even when the action failed, so a
// caller can tell a start timeout (failed, retrying) from a refused request.
func (h *Handler) respond(rw *api.ResponseWriter, status lifecycle.Status, err error) {
	switch {
	case err == nil:
		rw.Success(status)
	case errors.Is(err, lifecycle.ErrNotStarted):
		rw.ErrorWithDetails(http.StatusServiceUnavailable, models.ErrCodeServiceUnavailable, err.Error(),
			map[string]any{"status": status})
	default:
		rw.ErrorWithDetails(models.HTTPStatus(err), models.ErrorCode(err), err.Error(),
			map[string]any{"status": status})
	}
}

// Routes builds the chi router for the control plane.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(w, r, http.StatusMethodNotAllowed, models.ErrCodeMethodNotAllowed, r.Method+" not allowed on "+r.URL.Path)
	})

	r.Post(PathOn, h.TurnOn)
	r.Post(PathOff, h.TurnOff)
	r.Get(PathStatus, h.Status)
	r.Handle(PathMetrics, promhttp.Handler())
	return r
}

// NewServer returns the control plane HTTP server. Write timeouts leave
// room for a TurnOn that waits out the start timeout.
func NewServer(cfg config.AdminConfig, lifecycleCfg config.LifecycleConfig, handler http.Handler) *http.Server {
	writeTimeout := lifecycleCfg.StartTimeout + lifecycleCfg.StopTimeout + 10*time.Second
	return &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
}
