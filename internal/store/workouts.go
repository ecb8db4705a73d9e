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

// Workouts returns all workouts, most recent day first.
func (s *Store) Workouts(ctx context.Context) ([]models.Workout, error) {
	ws, err := listEntities[models.Workout](ctx, s, TableWorkouts)
	if err != nil {
		return nil, err
	}
	// YYYY-MM-DD sorts lexically
	slices.SortFunc(ws, func(a, b models.Workout) int {
		return cmp.Or(strings.Compare(b.Date, a.Date), strings.Compare(a.ID, b.ID))
	})
	return ws, nil
}

// Workout returns one workout, or nil.
func (s *Store) Workout(ctx context.Context, id string) (*models.Workout, error) {
	return getEntity[models.Workout](ctx, s, TableWorkouts, id)
}

// ObserveWorkouts streams Workouts.
func (s *Store) ObserveWorkouts(ctx context.Context) (<-chan []models.Workout, error) {
	return observe(ctx, s, s.Workouts, TableWorkouts)
}

// UpsertWorkout creates or replaces a workout.
func (s *Store) UpsertWorkout(ctx context.Context, w models.Workout) error {
	return s.put(ctx, TableWorkouts, w.ID, w)
}

// DeleteWorkout removes one workout and reports whether it existed.
func (s *Store) DeleteWorkout(ctx context.Context, id string) (bool, error) {
	n, err := s.remove(ctx, TableWorkouts, id)
	return n > 0, err
}
