// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package store

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/tomtom215/liftsync/internal/models"
)

// Lifts returns all lifts ordered by name.
func (s *Store) Lifts(ctx context.Context) ([]models.Lift, error) {
	lifts, err := listEntities[models.Lift](ctx, s, TableLifts)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(lifts, func(a, b models.Lift) int {
		return cmp.Or(
			strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
			strings.Compare(a.ID, b.ID),
		)
	})
	return lifts, nil
}

// Lift returns one lift, or nil when it does not exist.
func (s *Store) Lift(ctx context.Context, id string) (*models.Lift, error) {
	return getEntity[models.Lift](ctx, s, TableLifts, id)
}

// ObserveLifts streams Lifts.
func (s *Store) ObserveLifts(ctx context.Context) (<-chan []models.Lift, error) {
	return observe(ctx, s, s.Lifts, TableLifts)
}

// ObserveLift streams Lift(id).
func (s *Store) ObserveLift(ctx context.Context, id string) (<-chan *models.Lift, error) {
	return observe(ctx, s, func(ctx context.Context) (*models.Lift, error) {
		return s.Lift(ctx, id)
	}, TableLifts)
}

// UpsertLift creates or replaces a lift.
func (s *Store) UpsertLift(ctx context.Context, l models.Lift) error {
	return s.put(ctx, TableLifts, l.ID, l)
}

// DeleteLift removes one lift and reports whether it existed.
func (s *Store) DeleteLift(ctx context.Context, id string) (bool, error) {
	n, err := s.remove(ctx, TableLifts, id)
	return n > 0, err
}

// DeleteAllLifts removes every lift.
func (s *Store) DeleteAllLifts(ctx context.Context) (int, error) {
	return s.removeAll(ctx, TableLifts)
}
