// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

/*
Package models defines the data shared by the LiftSync server and client.

Key Components:

  - Entities: Lift, Variation, LBSet, Workout, Goal (camelCase JSON)
  - LogicalQuery: a named, parameterized resource; Key() is the multiplex key
  - Snapshot and Frame: the full current value of a query and its wire form
  - MutationRequest: entity + op (upsert, delete, delete_all, delete_by_parent)
  - Error taxonomy: ErrConnectFailure, ErrTimeout, ErrProtocol, ErrNotFound,
    ErrBadRequest, ErrWriteFailure and SyncError
  - APIResponse: the REST envelope

Snapshots are never diffs. Every push replaces what the receiver held.

Wire example:

	{"type":"snapshot","query":{"name":"lifts"},"seq":3,
	 "timestamp":"2026-01-02T10:00:00Z","data":[{"id":"1","name":"Squat"}]}

Unknown JSON fields are ignored when decoding any of these types.
*/
package models
