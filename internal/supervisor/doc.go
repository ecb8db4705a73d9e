// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

/*
Package supervisor provides process supervision for LiftSync using suture v4.

# Overview

	RootSupervisor ("liftsync")
	├── SyncSupervisor ("sync-layer")
	│   ├── SyncServerService     (added by lifecycle.Manager.TurnOn)
	│   └── AdvertiserService     (when discovery is enabled)
	└── ControlSupervisor ("control-layer")
	    └── HTTPServerService     (loopback admin API)

The sync layer is dynamic: the lifecycle manager adds the server service
when the user turns sync on and removes it, waiting for the port to be
released, when the user turns it off. A server that fails to bind is
restarted with suture's backoff while the flag stays enabled.

# Usage Example

	tree, err := supervisor.NewSupervisorTree(logging.NewComponentSlogLogger("supervisor"), supervisor.TreeConfig{
	    FailureThreshold: cfg.Lifecycle.FailureThreshold,
	    FailureBackoff:   cfg.Lifecycle.FailureBackoff,
	    ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
	    return err
	}
	tree.AddControlService(services.NewHTTPServerService("admin-http", adminServer, 5*time.Second))
	errCh := tree.ServeBackground(ctx)

# Failure Handling

Each failure increments a counter that decays over FailureDecay seconds.
Past FailureThreshold the supervisor waits FailureBackoff before the next
restart.

# Debugging Shutdown Issues

	report, err := tree.UnstoppedServiceReport()
	for _, svc := range report {
	    log.Printf("Service didn't stop: %v", svc)
	}
*/
package supervisor
