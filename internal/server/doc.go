// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

// Package server runs the Sync Server: the api router over a
// subscription multiplexer and a stream registry, bound to one port.
//
// A Server can be started and stopped any number of times. Start binds
// synchronously and is a no-op while running. Stop closes every stream
// with a going-away frame, waits for the stream goroutines, then shuts the
// HTTP server down so the port is free when it returns.
package server
