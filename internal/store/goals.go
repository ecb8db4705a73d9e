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

// Goals returns all goals in creation order.
func (s *Store) Goals(ctx context.Context) ([]models.Goal, error) {
	goals, err := listEntities[models.Goal](ctx, s, TableGoals)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(goals, func(a, b models.Goal) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID, b.ID))
	})
	return goals, nil
}

// Goal returns one goal, or nil.
func (s *Store) Goal(ctx context.Context, id string) (*models.Goal, error) {
	return getEntity[models.Goal](ctx, s, TableGoals, id)
}

// ObserveGoals streams Goals.
func (s *Store) ObserveGoals(ctx context.Context) (<-chan []models.Goal, error) {
	return observe(ctx, s, s.Goals, TableGoals)
}

// ObserveGoal streams Goal(id).
func (s *Store) ObserveGoal(ctx context.Context, id string) (<-chan *models.Goal, error) {
	return observe(ctx, s, func(ctx context.Context) (*models.Goal, error) {
		return s.Goal(ctx, id)
	}, TableGoals)
}

// UpsertGoal creates or replaces a goal.
func (s *Store) UpsertGoal(ctx context.Context, g models.Goal) error {
	return s.put(ctx, TableGoals, g.ID, g)
}

// DeleteGoal removes one goal and reports whether it existed.
func (s *Store) DeleteGoal(ctx context.Context, id string) (bool, error) {
	n, err := s.remove(ctx, TableGoals, id)
	return n > 0, err
}
