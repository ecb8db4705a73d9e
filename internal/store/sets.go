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
	"time"

	"github.com/tomtom215/liftsync/internal/models"
)

// SetFilter selects and orders sets. The zero value returns every set,
// newest first.
type SetFilter struct {
	VariationID string

	// StartDate and EndDate are inclusive calendar days in UTC.
	StartDate *time.Time
	EndDate   *time.Time

	// Limit <= 0 means no limit. It is applied after sorting.
	Limit int

	Sort  string // models.SortDate (default) or models.SortWeight
	Order string // models.OrderDescending (default) or models.OrderAscending
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (f SetFilter) match(s models.LBSet) bool {
	if f.VariationID != "" && s.VariationID != f.VariationID {
		return false
	}
	if f.StartDate != nil && s.Date.Before(startOfDay(*f.StartDate)) {
		return false
	}
	if f.EndDate != nil && !s.Date.Before(startOfDay(*f.EndDate).AddDate(0, 0, 1)) {
		return false
	}
	return true
}

func (f SetFilter) compare(a, b models.LBSet) int {
	var c int
	if f.Sort == models.SortWeight {
		c = cmp.Or(cmp.Compare(a.Weight, b.Weight), a.Date.Compare(b.Date))
	} else {
		c = a.Date.Compare(b.Date)
	}
	if f.Order != models.OrderAscending {
		c = -c
	}
	return cmp.Or(c, strings.Compare(a.ID, b.ID))
}

// Sets returns the sets selected by f.
func (s *Store) Sets(ctx context.Context, f SetFilter) ([]models.LBSet, error) {
	all, err := listEntities[models.LBSet](ctx, s, TableSets)
	if err != nil {
		return nil, err
	}

	out := slices.DeleteFunc(all, func(set models.LBSet) bool { return !f.match(set) })
	slices.SortFunc(out, f.compare)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Set returns one set, or nil.
func (s *Store) Set(ctx context.Context, id string) (*models.LBSet, error) {
	return getEntity[models.LBSet](ctx, s, TableSets, id)
}

// ObserveSets streams Sets(f).
func (s *Store) ObserveSets(ctx context.Context, f SetFilter) (<-chan []models.LBSet, error) {
	return observe(ctx, s, func(ctx context.Context) ([]models.LBSet, error) {
		return s.Sets(ctx, f)
	}, TableSets)
}

// ObserveSet streams Set(id).
func (s *Store) ObserveSet(ctx context.Context, id string) (<-chan *models.LBSet, error) {
	return observe(ctx, s, func(ctx context.Context) (*models.LBSet, error) {
		return s.Set(ctx, id)
	}, TableSets)
}

// UpsertSet creates or replaces a set.
func (s *Store) UpsertSet(ctx context.Context, set models.LBSet) error {
	return s.put(ctx, TableSets, set.ID, set)
}

// DeleteSet removes one set and reports whether it existed.
func (s *Store) DeleteSet(ctx context.Context, id string) (bool, error) {
	n, err := s.remove(ctx, TableSets, id)
	return n > 0, err
}

// DeleteSets removes the sets of variationID, or every set when it is empty.
func (s *Store) DeleteSets(ctx context.Context, variationID string) (int, error) {
	if variationID == "" {
		return s.removeAll(ctx, TableSets)
	}

	sets, err := s.Sets(ctx, SetFilter{VariationID: variationID})
	if err != nil {
		return 0, err
	}
	ids := make([]string, 0, len(sets))
	for _, set := range sets {
		ids = append(ids, set.ID)
	}
	return s.remove(ctx, TableSets, ids...)
}
