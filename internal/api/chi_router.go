// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tomtom215/liftsync/internal/middleware"
	"github.com/tomtom215/liftsync/internal/models"
)

// ServiceName is reported by GET /.
const ServiceName = "LiftSync API"

// Route prefixes.
const (
	StreamPrefix = "/api/ws"
	RESTPrefix   = "/api/rest"
)

// mutationRoute is one REST write route.
type mutationRoute struct {
	method  string
	path    string
	handler func(h *Handler) http.HandlerFunc
}

var mutationTable = []mutationRoute{
	{http.MethodPost, "/lift", func(h *Handler) http.HandlerFunc { return h.Upsert(models.EntityLift) }},
	{http.MethodDelete, "/lift", func(h *Handler) http.HandlerFunc { return h.Delete(models.EntityLift) }},
	{http.MethodDelete, "/lifts", func(h *Handler) http.HandlerFunc { return h.DeleteAll(models.EntityLift, "") }},

	{http.MethodPost, "/variation", func(h *Handler) http.HandlerFunc { return h.Upsert(models.EntityVariation) }},
	{http.MethodDelete, "/variation", func(h *Handler) http.HandlerFunc { return h.Delete(models.EntityVariation) }},
	{http.MethodDelete, "/variations", func(h *Handler) http.HandlerFunc {
		return h.DeleteAll(models.EntityVariation, models.ParamLiftID)
	}},

	{http.MethodPost, "/sets", func(h *Handler) http.HandlerFunc { return h.Upsert(models.EntitySet) }},
	{http.MethodDelete, "/sets", func(h *Handler) http.HandlerFunc { return h.DeleteSets }},

	{http.MethodPost, "/workout", func(h *Handler) http.HandlerFunc { return h.Upsert(models.EntityWorkout) }},
	{http.MethodDelete, "/workout", func(h *Handler) http.HandlerFunc { return h.Delete(models.EntityWorkout) }},

	{http.MethodPost, "/goal", func(h *Handler) http.HandlerFunc { return h.Upsert(models.EntityGoal) }},
	{http.MethodDelete, "/goal", func(h *Handler) http.HandlerFunc { return h.Delete(models.EntityGoal) }},
}

func streamRoutes() []string {
	out := make([]string, 0, len(models.QueryNames))
	for _, name := range models.QueryNames {
		out = append(out, StreamPrefix+"/"+name)
	}
	return out
}

func mutationRoutes() []string {
	out := make([]string, 0, len(mutationTable))
	for _, m := range mutationTable {
		out = append(out, m.method+" "+RESTPrefix+m.path)
	}
	return out
}

// Router wires the handler and middleware into a chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router. A nil mw uses NewChiMiddleware's defaults.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()
	h := router.handler

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, models.ErrCodeMethodNotAllowed, r.Method+" not allowed on "+r.URL.Path)
	})

	r.Get("/", h.Root)
	r.Get("/health", h.Health)

	// Streams are long-lived, so they sit outside the request rate limit.
	r.Get(StreamPrefix+"/{query}", h.Stream)

	r.Route(RESTPrefix, func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())

		for _, name := range models.QueryNames {
			r.Get("/"+name, h.ReadQuery(name))
		}
		r.Get("/{query}", h.Read)

		for _, m := range mutationTable {
			r.Method(m.method, m.path, m.handler(h))
		}
	})

	return r
}
