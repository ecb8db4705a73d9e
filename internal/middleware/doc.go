// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

/*
Package middleware provides HTTP middleware components shared by the sync
server and the admin endpoint.

Key Components:

  - Request ID: accepts or generates X-Request-ID and seeds the logging context
  - Prometheus Metrics: request count, latency and in-flight instrumentation

Both are standard func(http.Handler) http.Handler middleware and mount
directly on a chi router:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)

PrometheusMetrics labels requests by chi route pattern ("/api/ws/{query}"),
falling back to "unmatched" for requests no route accepted. Its response
writer wrapper forwards http.Hijacker, so WebSocket upgrades pass through it
and are counted with status 101.

CORS, rate limiting, panic recovery and real-IP handling come from go-chi
(see package api).
*/
package middleware
