// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/liftsync/internal/store"
)

// State is the Sync Server lifecycle state. The numeric values are exported
// as the liftsync_lifecycle_state gauge.
type State int

const (
	StateOff State = iota
	StateStarting
	StateOn
	StateStopping
	// StateUnknown is held between a toggle request and its confirmation.
	StateUnknown
	// StateFailed means the server did not come up in time or died while on.
	// The enabled flag is kept and supervision keeps retrying.
	StateFailed
)

var stateNames = [...]string{
	StateOff:      "off",
	StateStarting: "starting",
	StateOn:       "on",
	StateStopping: "stopping",
	StateUnknown:  "unknown",
	StateFailed:   "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText renders the state by name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name.
func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown lifecycle state %q", b)
}

// Status is a point-in-time view of the lifecycle.
type Status struct {
	State State     `json:"state"`
	Port  int       `json:"port,omitempty"`
	Addr  string    `json:"addr,omitempty"`
	Error string    `json:"error,omitempty"`
	Since time.Time `json:"since"`
}

// Flag is the persisted user intent.
type Flag struct {
	Enabled   bool      `json:"enabled"`
	Port      int       `json:"port,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StateStore persists the enabled flag across restarts.
type StateStore interface {
	// Load returns false when no flag was ever saved.
	Load(ctx context.Context) (Flag, bool, error)
	Save(ctx context.Context, flag Flag) error
}

const (
	stateTable = "lifecycle"
	stateID    = "server"
)

// BadgerStateStore keeps the flag under the key lifecycle:server.
type BadgerStateStore struct {
	db *store.BadgerBackend
}

// OpenStateStore opens the state database at path. inMemory ignores path.
func OpenStateStore(path string, inMemory bool) (*BadgerStateStore, error) {
	db, err := store.OpenBadger(path, inMemory)
	if err != nil {
		return nil, fmt.Errorf("open lifecycle state: %w", err)
	}
	return &BadgerStateStore{db: db}, nil
}

// Load implements StateStore.
func (s *BadgerStateStore) Load(ctx context.Context) (Flag, bool, error) {
	body, err := s.db.Get(ctx, stateTable, stateID)
	if errors.Is(err, store.ErrRecordNotFound) {
		return Flag{}, false, nil
	}
	if err != nil {
		return Flag{}, false, err
	}

	var flag Flag
	if err := json.Unmarshal(body, &flag); err != nil {
		return Flag{}, false, fmt.Errorf("decode lifecycle flag: %w", err)
	}
	return flag, true, nil
}

// Save implements StateStore.
func (s *BadgerStateStore) Save(ctx context.Context, flag Flag) error {
	body, err := json.Marshal(flag)
	if err != nil {
		return fmt.Errorf("encode lifecycle flag: %w", err)
	}
	return s.db.Put(ctx, stateTable, stateID, body)
}

// Close closes the state database.
func (s *BadgerStateStore) Close() error {
	return s.db.Close()
}
