// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package models

import "fmt"

// EntityType tags the entity a mutation targets.
type EntityType string

const (
	EntityLift      EntityType = "lift"
	EntityVariation EntityType = "variation"
	EntitySet       EntityType = "set"
	EntityWorkout   EntityType = "workout"
	EntityGoal      EntityType = "goal"
)

// MutationOp is the write operation.
type MutationOp string

const (
	OpUpsert         MutationOp = "upsert"
	OpDelete         MutationOp = "delete"
	OpDeleteAll      MutationOp = "delete_all"
	OpDeleteByParent MutationOp = "delete_by_parent"
)

// MutationRequest is one write against the remote store.
//
// Payload is the entity for OpUpsert. ID is required by OpDelete and
// ParentID by OpDeleteByParent (the lift of variations, the variation of sets).
type MutationRequest struct {
	Entity   EntityType `json:"entity"`
	Op       MutationOp `json:"op"`
	Payload  any        `json:"payload,omitempty"`
	ID       string     `json:"id,omitempty"`
	ParentID string     `json:"parentId,omitempty"`
}

// Idempotent reports whether repeating the request leaves the same state.
// Bulk deletes are excluded because a retry may remove rows written by
// another device between attempts.
func (m MutationRequest) Idempotent() bool {
	return m.Op == OpUpsert || m.Op == OpDelete
}

// supportedOps lists the operations each entity exposes over REST.
var supportedOps = map[EntityType][]MutationOp{
	EntityLift:      {OpUpsert, OpDelete, OpDeleteAll},
	EntityVariation: {OpUpsert, OpDelete, OpDeleteAll, OpDeleteByParent},
	EntitySet:       {OpUpsert, OpDelete, OpDeleteAll, OpDeleteByParent},
	EntityWorkout:   {OpUpsert, OpDelete},
	EntityGoal:      {OpUpsert, OpDelete},
}

// Check verifies the request shape. It does not validate the payload fields.
func (m MutationRequest) Check() error {
	ops, ok := supportedOps[m.Entity]
	if !ok {
		return fmt.Errorf("%w: unknown entity %q", ErrBadRequest, m.Entity)
	}
	supported := false
	for _, op := range ops {
		if op == m.Op {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("%w: %s does not support %q", ErrBadRequest, m.Entity, m.Op)
	}

	switch m.Op {
	case OpUpsert:
		if m.Payload == nil {
			return fmt.Errorf("%w: upsert requires a payload", ErrBadRequest)
		}
	case OpDelete:
		if m.ID == "" {
			return fmt.Errorf("%w: delete requires an id", ErrBadRequest)
		}
	case OpDeleteByParent:
		if m.ParentID == "" {
			return fmt.Errorf("%w: delete_by_parent requires a parentId", ErrBadRequest)
		}
	}
	return nil
}

// MutationResult is the data of a successful mutation response.
type MutationResult struct {
	Entity  EntityType `json:"entity"`
	Op      MutationOp `json:"op"`
	ID      string     `json:"id,omitempty"`
	Deleted int        `json:"deleted,omitempty"`
	Entry   any        `json:"entry,omitempty"`
}
