// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package store

import (
	"context"
	"errors"
)

// Tables
const (
	TableLifts      = "lifts"
	TableVariations = "variations"
	TableSets       = "sets"
	TableWorkouts   = "workouts"
	TableGoals      = "goals"
)

// ErrRecordNotFound is returned by Backend.Get for a missing id.
var ErrRecordNotFound = errors.New("record not found")

// Backend stores opaque JSON records keyed by (table, id).
//
// Implementations must give read-your-writes within the process: a Get or
// List issued after Put returned observes the write.
type Backend interface {
	Put(ctx context.Context, table, id string, body []byte) error
	Get(ctx context.Context, table, id string) ([]byte, error)
	List(ctx context.Context, table string) ([][]byte, error)

	// Delete removes the given ids in one transaction and reports how many existed.
	Delete(ctx context.Context, table string, ids ...string) (int, error)

	// DeleteAll empties a table and reports how many records it held.
	DeleteAll(ctx context.Context, table string) (int, error)

	Close() error
}
