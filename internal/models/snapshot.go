// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package models

import (
	"bytes"
	"time"

	"github.com/goccy/go-json"
)

// FrameTypeSnapshot is the only frame type pushed on a stream.
const FrameTypeSnapshot = "snapshot"

// Snapshot is the complete current value of a LogicalQuery.
//
// Data is encoded once when the shared observation produces a value and is
// then written unchanged to every subscriber. A single-entity query that
// resolves to nothing carries JSON null.
type Snapshot struct {
	Query     LogicalQuery    `json:"query"`
	Seq       uint64          `json:"seq"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// IsNull reports whether the snapshot has no value.
func (s Snapshot) IsNull() bool {
	d := bytes.TrimSpace(s.Data)
	return len(d) == 0 || bytes.Equal(d, []byte("null"))
}

// Frame is one websocket message.
type Frame struct {
	Type string `json:"type"`
	Snapshot
}

// NewSnapshotFrame wraps s for the wire.
func NewSnapshotFrame(s Snapshot) Frame {
	return Frame{Type: FrameTypeSnapshot, Snapshot: s}
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ServiceInfo is the body of GET /.
type ServiceInfo struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Streams   []string `json:"streams"`
	Mutations []string `json:"mutations"`
}
