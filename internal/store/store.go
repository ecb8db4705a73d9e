// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

// Package store is the Repository Facade: typed per-entity reads, writes and
// observations over a pluggable record Backend.
//
// Every committed write is announced on the ChangeBus. Observe* methods emit
// the current value immediately and re-read after each change to the tables
// they depend on, so consumers always hold a full, current value.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/liftsync/internal/config"
	"github.com/tomtom215/liftsync/internal/logging"
	"github.com/tomtom215/liftsync/internal/metrics"
	"github.com/tomtom215/liftsync/internal/models"
)

// Store is the Repository Facade.
type Store struct {
	backend Backend
	bus     *ChangeBus

	done      chan struct{}
	closeOnce sync.Once
}

// Open creates the backend named by cfg.Driver.
func Open(cfg config.StoreConfig) (*Store, error) {
	var (
		backend Backend
		err     error
	)
	switch strings.ToLower(cfg.Driver) {
	case "sqlite":
		backend, err = OpenSQLite(cfg.Path, cfg.InMemory)
	case "badger", "":
		backend, err = OpenBadger(cfg.Path, cfg.InMemory)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	logging.Info().
		Str("component", "store").
		Str("driver", cfg.Driver).
		Bool("in_memory", cfg.InMemory).
		Msg("store opened")

	return New(backend, NewChangeBus(nil)), nil
}

// New wraps a backend and bus.
func New(backend Backend, bus *ChangeBus) *Store {
	return &Store{
		backend: backend,
		bus:     bus,
		done:    make(chan struct{}),
	}
}

// Done is closed when the store is closed. Observations end at that point.
func (s *Store) Done() <-chan struct{} {
	return s.done
}

// Close ends all observations and closes the bus and backend.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = errors.Join(s.bus.Close(), s.backend.Close())
	})
	return err
}

func getEntity[T any](ctx context.Context, s *Store, table, id string) (*T, error) {
	start := time.Now()
	body, err := s.backend.Get(ctx, table, id)
	metrics.RecordStoreOperation("get", table, time.Since(start), ignoreNotFound(err))
	if errors.Is(err, ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", table, id, err)
	}

	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", table, id, err)
	}
	return &v, nil
}

func listEntities[T any](ctx context.Context, s *Store, table string) ([]T, error) {
	start := time.Now()
	bodies, err := s.backend.List(ctx, table)
	metrics.RecordStoreOperation("list", table, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}

	out := make([]T, 0, len(bodies))
	for _, body := range bodies {
		var v T
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, fmt.Errorf("decode %s record: %w", table, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Store) put(ctx context.Context, table, id string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w: %w", table, id, models.ErrWriteFailure, err)
	}

	start := time.Now()
	err = s.backend.Put(ctx, table, id, body)
	metrics.RecordStoreOperation("put", table, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("write %s/%s: %w: %w", table, id, models.ErrWriteFailure, err)
	}

	s.notify(Change{Table: table, Op: "upsert", IDs: []string{id}})
	return nil
}

func (s *Store) remove(ctx context.Context, table string, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	start := time.Now()
	n, err := s.backend.Delete(ctx, table, ids...)
	metrics.RecordStoreOperation("delete", table, time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w: %w", table, models.ErrWriteFailure, err)
	}

	if n > 0 {
		s.notify(Change{Table: table, Op: "delete", IDs: ids})
	}
	return n, nil
}

func (s *Store) removeAll(ctx context.Context, table string) (int, error) {
	start := time.Now()
	n, err := s.backend.DeleteAll(ctx, table)
	metrics.RecordStoreOperation("delete_all", table, time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("delete all %s: %w: %w", table, models.ErrWriteFailure, err)
	}

	if n > 0 {
		s.notify(Change{Table: table, Op: "delete_all"})
	}
	return n, nil
}

// notify runs after the write committed. A failed publish only delays
// observers until the next change, so it is logged, not returned.
func (s *Store) notify(c Change) {
	if err := s.bus.Publish(c); err != nil {
		logging.Warn().Str("component", "store").Err(err).Str("table", c.Table).Msg("change not published")
	}
}

func ignoreNotFound(err error) error {
	if errors.Is(err, ErrRecordNotFound) {
		return nil
	}
	return err
}
