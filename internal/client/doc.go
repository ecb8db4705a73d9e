// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

/*
Package client connects to a LiftSync server on another device.

Reads are websocket observations. Every distinct query key shares one
connection no matter how many observers join it; each observer gets its own
latest-wins channel of Update values. A dropped stream is redialed with
exponential backoff. Once MaxReconnectAttempts is spent the observers see
StatusDisconnected while the connection keeps probing at BackoffMax, and the
next snapshot flips them back to StatusConnected. A 400 or 404 from the
server ends the observation instead.

Writes go through Mutate or the typed helpers. Each attempt is bounded by
RequestTimeout and passes a gobreaker circuit breaker. Upserts and deletes
by id retry transient failures; bulk deletes are sent once.

Usage:

	c, err := client.New(cfg.Client)
	if err != nil {
	    return err
	}
	defer c.Close()

	obs, err := c.Observe(ctx, client.QueryLifts())
	if err != nil {
	    return err
	}
	defer obs.Close()

	for u := range obs.Updates() {
	    if u.Status != client.StatusConnected {
	        continue
	    }
	    lifts, err := client.Decode[[]models.Lift](*u.Snapshot)
	    ...
	}

Errors returned by the client are *models.SyncError values wrapping one of
the models.Err* sentinels, so callers branch with errors.Is.
*/
package client
