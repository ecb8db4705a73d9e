// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/liftsync/internal/logging"
	"github.com/tomtom215/liftsync/internal/models"
	"github.com/tomtom215/liftsync/internal/store"
)

// Repository is the part of the Repository Facade the multiplexer reads.
// *store.Store implements it.
type Repository interface {
	ObserveLifts(ctx context.Context) (<-chan []models.Lift, error)
	ObserveLift(ctx context.Context, id string) (<-chan *models.Lift, error)
	ObserveVariations(ctx context.Context, liftID string) (<-chan []models.Variation, error)
	ObserveVariation(ctx context.Context, id string) (<-chan *models.Variation, error)
	ObserveSets(ctx context.Context, f store.SetFilter) (<-chan []models.LBSet, error)
	ObserveSet(ctx context.Context, id string) (<-chan *models.LBSet, error)
	ObserveWorkouts(ctx context.Context) (<-chan []models.Workout, error)
	ObserveGoals(ctx context.Context) (<-chan []models.Goal, error)
	ObserveGoal(ctx context.Context, id string) (<-chan *models.Goal, error)
}

type opener func(ctx context.Context, repo Repository, q models.LogicalQuery) (<-chan json.RawMessage, error)

type route struct {
	params   []string
	required string
	open     opener
}

var routes = map[string]route{
	models.QueryLifts: {
		open: func(ctx context.Context, r Repository, _ models.LogicalQuery) (<-chan json.RawMessage, error) {
			return encode(r.ObserveLifts(ctx))
		},
	},
	models.QueryLift: {
		params:   []string{models.ParamLiftID},
		required: models.ParamLiftID,
		open: func(ctx context.Context, r Repository, q models.LogicalQuery) (<-chan json.RawMessage, error) {
			return encode(r.ObserveLift(ctx, q.Param(models.ParamLiftID)))
		},
	},
	models.QueryVariations: {
		params: []string{models.ParamLiftID},
		open: func(ctx context.Context, r Repository, q models.LogicalQuery) (<-chan json.RawMessage, error) {
			return encode(r.ObserveVariations(ctx, q.Param(models.ParamLiftID)))
		},
	},
	models.QueryVariation: {
		params:   []string{models.ParamVariationID},
		required: models.ParamVariationID,
		open: func(ctx context.Context, r Repository, q models.LogicalQuery) (<-chan json.RawMessage, error) {
			return encode(r.ObserveVariation(ctx, q.Param(models.ParamVariationID)))
		},
	},
	models.QuerySets: {
		params: []string{
			models.ParamVariationID, models.ParamStartDate, models.ParamEndDate,
			models.ParamLimit, models.ParamSort, models.ParamOrder,
		},
		open: func(ctx context.Context, r Repository, q models.LogicalQuery) (<-chan json.RawMessage, error) {
			f, err := ParseSetFilter(q)
			if err != nil {
				return nil, err
			}
			return encode(r.ObserveSets(ctx, f))
		},
	},
	models.QuerySet: {
		params:   []string{models.ParamSetID},
		required: models.ParamSetID,
		open: func(ctx context.Context, r Repository, q models.LogicalQuery) (<-chan json.RawMessage, error) {
			return encode(r.ObserveSet(ctx, q.Param(models.ParamSetID)))
		},
	},
	models.QueryWorkouts: {
		open: func(ctx context.Context, r Repository, _ models.LogicalQuery) (<-chan json.RawMessage, error) {
			return encode(r.ObserveWorkouts(ctx))
		},
	},
	models.QueryGoals: {
		open: func(ctx context.Context, r Repository, _ models.LogicalQuery) (<-chan json.RawMessage, error) {
			return encode(r.ObserveGoals(ctx))
		},
	},
	models.QueryGoal: {
		params:   []string{models.ParamGoalID},
		required: models.ParamGoalID,
		open: func(ctx context.Context, r Repository, q models.LogicalQuery) (<-chan json.RawMessage, error) {
			return encode(r.ObserveGoal(ctx, q.Param(models.ParamGoalID)))
		},
	},
}

// Resolve validates q and returns it with unknown parameters removed, so
// that two requests differing only in ignored parameters share one feed.
func Resolve(q models.LogicalQuery) (models.LogicalQuery, error) {
	rt, ok := routes[q.Name]
	if !ok {
		return models.LogicalQuery{}, fmt.Errorf("%w: unknown query %q", models.ErrBadRequest, q.Name)
	}

	kept := make(map[string]string, len(rt.params))
	for _, p := range rt.params {
		if v := q.Param(p); v != "" {
			kept[p] = v
		}
	}
	norm := models.NewQuery(q.Name, kept)

	if rt.required != "" && norm.Param(rt.required) == "" {
		return models.LogicalQuery{}, fmt.Errorf("%w: %s requires %s", models.ErrBadRequest, q.Name, rt.required)
	}
	if q.Name == models.QuerySets {
		if _, err := ParseSetFilter(norm); err != nil {
			return models.LogicalQuery{}, err
		}
	}
	return norm, nil
}

const dateLayout = "2006-01-02"

// ParseSetFilter maps sets query parameters onto a store.SetFilter.
func ParseSetFilter(q models.LogicalQuery) (store.SetFilter, error) {
	f := store.SetFilter{VariationID: q.Param(models.ParamVariationID)}

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{
		{models.ParamStartDate, &f.StartDate},
		{models.ParamEndDate, &f.EndDate},
	} {
		v := q.Param(p.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return f, fmt.Errorf("%w: %s must be YYYY-MM-DD, got %q", models.ErrBadRequest, p.name, v)
		}
		*p.dst = &t
	}
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return f, fmt.Errorf("%w: endDate is before startDate", models.ErrBadRequest)
	}

	limit, ok, err := q.IntParam(models.ParamLimit)
	if err != nil || (ok && limit < 1) {
		return f, fmt.Errorf("%w: limit must be a positive integer, got %q", models.ErrBadRequest, q.Param(models.ParamLimit))
	}
	f.Limit = limit

	switch sort := q.Param(models.ParamSort); sort {
	case "", models.SortDate, models.SortWeight:
		f.Sort = sort
	default:
		return f, fmt.Errorf("%w: sort must be %s or %s", models.ErrBadRequest, models.SortDate, models.SortWeight)
	}

	switch order := q.Param(models.ParamOrder); order {
	case "", models.OrderAscending, models.OrderDescending:
		f.Order = order
	default:
		return f, fmt.Errorf("%w: order must be %s or %s", models.ErrBadRequest, models.OrderAscending, models.OrderDescending)
	}
	return f, nil
}

// encode turns a typed observation into encoded snapshot payloads. The input
// channel closes when the observation's context ends, which ends this one too.
func encode[T any](in <-chan T, err error) (<-chan json.RawMessage, error) {
	if err != nil {
		return nil, err
	}

	out := make(chan json.RawMessage)
	go func() {
		defer close(out)
		for v := range in {
			b, err := json.Marshal(v)
			if err != nil {
				logging.Error().Str("component", "subscription").Err(err).Msg("snapshot encode failed")
				drain(in)
				return
			}
			out <- b
		}
	}()
	return out, nil
}

func drain[T any](in <-chan T) {
	go func() {
		for range in {
		}
	}()
}
