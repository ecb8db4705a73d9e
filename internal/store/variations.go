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

// Variations returns the variations of liftID, or all of them when liftID is
// empty. Favourites come first, then by name.
func (s *Store) Variations(ctx context.Context, liftID string) ([]models.Variation, error) {
	all, err := listEntities[models.Variation](ctx, s, TableVariations)
	if err != nil {
		return nil, err
	}

	out := all
	if liftID != "" {
		out = slices.DeleteFunc(all, func(v models.Variation) bool { return v.LiftID != liftID })
	}

	slices.SortFunc(out, func(a, b models.Variation) int {
		if a.Favourite != b.Favourite {
			if a.Favourite {
				return -1
			}
			return 1
		}
		return cmp.Or(
			strings.Compare(strings.ToLower(deref(a.Name)), strings.ToLower(deref(b.Name))),
			strings.Compare(a.ID, b.ID),
		)
	})
	return out, nil
}

// Variation returns one variation, or nil.
func (s *Store) Variation(ctx context.Context, id string) (*models.Variation, error) {
	return getEntity[models.Variation](ctx, s, TableVariations, id)
}

// ObserveVariations streams Variations(liftID).
func (s *Store) ObserveVariations(ctx context.Context, liftID string) (<-chan []models.Variation, error) {
	return observe(ctx, s, func(ctx context.Context) ([]models.Variation, error) {
		return s.Variations(ctx, liftID)
	}, TableVariations)
}

// ObserveVariation streams Variation(id).
func (s *Store) ObserveVariation(ctx context.Context, id string) (<-chan *models.Variation, error) {
	return observe(ctx, s, func(ctx context.Context) (*models.Variation, error) {
		return s.Variation(ctx, id)
	}, TableVariations)
}

// UpsertVariation creates or replaces a variation.
func (s *Store) UpsertVariation(ctx context.Context, v models.Variation) error {
	return s.put(ctx, TableVariations, v.ID, v)
}

// DeleteVariation removes one variation and reports whether it existed.
func (s *Store) DeleteVariation(ctx context.Context, id string) (bool, error) {
	n, err := s.remove(ctx, TableVariations, id)
	return n > 0, err
}

// DeleteVariations removes the variations of liftID, or every variation
// when liftID is empty.
func (s *Store) DeleteVariations(ctx context.Context, liftID string) (int, error) {
	if liftID == "" {
		return s.removeAll(ctx, TableVariations)
	}

	vs, err := s.Variations(ctx, liftID)
	if err != nil {
		return 0, err
	}
	ids := make([]string, 0, len(vs))
	for _, v := range vs {
		ids = append(ids, v.ID)
	}
	return s.remove(ctx, TableVariations, ids...)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
