// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

/*
Package services provides suture.Service wrappers for LiftSync components.

Each wrapper translates a component lifecycle into suture's context-aware
Serve pattern and implements fmt.Stringer so suture can name it in logs.

# Available Services

Sync Server (SyncServerService):
  - Wraps server.Server (Start/Stop with a Done channel)
  - Binds one fixed port; bind failures are retried by suture
  - Hooks report every successful listen and every unplanned exit

mDNS Advertiser (AdvertiserService):
  - Wraps discovery.Advertiser
  - Announces the sync server port while the server is on

HTTP Server (HTTPServerService):
  - Wraps *http.Server for the loopback control plane
  - Converts ListenAndServe to Serve with a bounded Shutdown

# Usage Example

	svc := services.NewSyncServerService(srv, 8080, 10*time.Second, services.SyncServerHooks{
	    OnListening: func(addr string) { log.Info().Str("addr", addr).Msg("listening") },
	})
	token := tree.AddSyncService(svc)
	...
	err := tree.RemoveSyncService(token, 10*time.Second) // returns once the port is released

# Error Handling

Return values determine supervisor behavior:

	nil         -> Service stopped cleanly, will not restart
	error       -> Service crashed, supervisor will restart
	ctx.Err()   -> Shutdown requested, normal termination
*/
package services
