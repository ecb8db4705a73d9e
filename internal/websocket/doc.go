// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

/*
Package websocket implements the server side of a live query stream.

Key Components:

  - Handle: one upgraded connection bound to one subscription
  - Registry: the set of running handles for a server instance

Each Handle runs two goroutines:
  - readPump: discards inbound data, answers pings, extends the read deadline on pong
  - writePump: pushes snapshot frames and sends keepalive pings

Frames:

Every push is one text frame holding a complete snapshot:

	{"type":"snapshot","query":{"name":"sets","params":{"variationId":"v1"}},
	 "seq":4,"timestamp":"2026-03-01T10:00:00Z","data":[...]}

Backpressure:

The subscription channel keeps only the newest snapshot, and the write pump
holds at most one more while the per-connection token bucket refills. A slow
peer therefore sees fewer frames, never stale ones, and never blocks other
streams.

Connection Lifecycle:

 1. The API layer validates the query and subscribes before upgrading
 2. Registry.Serve runs the handle
 3. The handle stops on peer close, pong timeout, write failure, source end
    or registry shutdown
 4. The subscription is closed and the connection released before Serve
    returns

Registry.Shutdown cancels every handle with a 1001 close frame and waits for
all of them, which is what lets the server release its port cleanly.
*/
package websocket
