// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

/*
Package metrics registers the Prometheus collectors for LiftSync.

All collectors are created with promauto against the default registry, so
they are served by promhttp.Handler() on the daemon's loopback control plane:

	curl http://127.0.0.1:8079/metrics

# Available Metrics

Store:
  - liftsync_store_operation_duration_seconds{operation,table}
  - liftsync_store_operation_errors_total{operation,table}
  - liftsync_store_changes_total{table}

Subscriptions and streams:
  - liftsync_feeds_active
  - liftsync_subscribers_active{query}
  - liftsync_feed_snapshots_total{query}
  - liftsync_stream_connections_active
  - liftsync_stream_snapshots_pushed_total{query}
  - liftsync_stream_rejections_total{reason}
  - liftsync_stream_disconnects_total{cause}

REST:
  - liftsync_mutations_total{entity,op,result}
  - liftsync_mutation_duration_seconds{entity,op}
  - liftsync_api_requests_total{method,endpoint,status_code}
  - liftsync_api_request_duration_seconds{method,endpoint}
  - liftsync_api_active_requests

Client:
  - liftsync_client_reconnects_total{query}
  - liftsync_client_mutation_attempts_total{entity,op,result}
  - liftsync_circuit_breaker_* (state, requests, consecutive failures, transitions)

Lifecycle:
  - liftsync_lifecycle_state
  - liftsync_lifecycle_transitions_total{to_state}

Label values are bounded: query labels carry the query name, never its
parameters.
*/
package metrics
