// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

/*
Package main is the LiftSync daemon.

The daemon owns the lift-logging data store and serves it to devices on the
local network while the user has sync turned on. Sync is off until turned on
through the loopback control plane; the choice survives restarts.

# Application Architecture

	RootSupervisor ("liftsync")
	├── SyncSupervisor ("sync-layer")
	│   ├── sync-server:<port>      (REST + WebSocket Sync Server)
	│   └── mdns-advertiser:<port>  (optional, DISCOVERY_ENABLED=true)
	└── ControlSupervisor ("control-layer")
	    └── admin-http              (127.0.0.1:8079)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Store: badger (default) or sqlite Repository Facade
 4. Lifecycle state: badger database holding the enabled flag
 5. Supervisor Tree: Suture v4 process supervision
 6. Lifecycle Manager: restores the enabled flag
 7. Control plane: lifecycle actions, status and /metrics

# Configuration

	Priority: Environment variables > Config file > Defaults

	SERVER_PORT=8080              # default sync port for /lifecycle/on
	STORE_DRIVER=badger           # badger or sqlite
	STORE_PATH=/data/liftsync/store
	LIFECYCLE_STATE_PATH=/data/liftsync/state
	ADMIN_PORT=8079
	DISCOVERY_ENABLED=false
	LOG_LEVEL=info
	LOG_FORMAT=json

# Control Plane

	curl -X POST 'http://127.0.0.1:8079/lifecycle/on?port=8080'
	curl -X POST http://127.0.0.1:8079/lifecycle/off
	curl http://127.0.0.1:8079/lifecycle/status
	curl http://127.0.0.1:8079/metrics

# Signal Handling

SIGINT and SIGTERM stop the supervisor tree. The Sync Server drains its
streams and releases the port; the persisted flag is left untouched, so the
next start restores the same state.
*/
package main
