// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package models

import (
	"maps"
	"net/url"
	"strconv"
)

// Query names. Each one is a streaming endpoint under /api/ws/ and a
// one-shot read under /api/rest/.
const (
	QueryLifts      = "lifts"
	QueryLift       = "lift"
	QueryVariations = "variations"
	QueryVariation  = "variation"
	QuerySets       = "sets"
	QuerySet        = "set"
	QueryWorkouts   = "workouts"
	QueryGoals      = "goals"
	QueryGoal       = "goal"
)

// QueryNames lists every subscribable query in route order.
var QueryNames = []string{
	QueryLifts, QueryLift,
	QueryVariations, QueryVariation,
	QuerySets, QuerySet,
	QueryWorkouts,
	QueryGoals, QueryGoal,
}

// Query parameter names.
const (
	ParamLiftID      = "liftId"
	ParamVariationID = "variationId"
	ParamSetID       = "setId"
	ParamGoalID      = "goalId"
	ParamStartDate   = "startDate"
	ParamEndDate     = "endDate"
	ParamLimit       = "limit"
	ParamSort        = "sort"
	ParamOrder       = "order"
)

// Set sort keys and orders.
const (
	SortDate        = "date"
	SortWeight      = "weight"
	OrderAscending  = "Ascending"
	OrderDescending = "Descending"
)

// LogicalQuery names a subscribable resource. It is treated as immutable:
// NewQuery copies the params and no method mutates them.
type LogicalQuery struct {
	Name   string            `json:"name"`
	Params map[string]string `json:"params,omitempty"`
}

// NewQuery builds a query. Empty parameter values are dropped so that
// "sets?variationId=" and "sets" are the same query.
func NewQuery(name string, params map[string]string) LogicalQuery {
	q := LogicalQuery{Name: name}
	for k, v := range params {
		if v == "" {
			continue
		}
		if q.Params == nil {
			q.Params = make(map[string]string, len(params))
		}
		q.Params[k] = v
	}
	return q
}

// QueryFromValues builds a query from URL values, keeping the first value of each key.
func QueryFromValues(name string, values url.Values) LogicalQuery {
	params := make(map[string]string, len(values))
	for k, vs := range values {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}
	return NewQuery(name, params)
}

// Param returns a parameter or "".
func (q LogicalQuery) Param(key string) string {
	return q.Params[key]
}

// IntParam parses an integer parameter. ok is false when the parameter is absent.
func (q LogicalQuery) IntParam(key string) (n int, ok bool, err error) {
	v, present := q.Params[key]
	if !present {
		return 0, false, nil
	}
	n, err = strconv.Atoi(v)
	return n, true, err
}

// Values encodes the params for a URL.
func (q LogicalQuery) Values() url.Values {
	v := make(url.Values, len(q.Params))
	for k, p := range q.Params {
		v.Set(k, p)
	}
	return v
}

// Key is the canonical multiplex key: the name plus params sorted by key.
func (q LogicalQuery) Key() string {
	if len(q.Params) == 0 {
		return q.Name
	}
	return q.Name + "?" + q.Values().Encode()
}

// Equal reports whether both queries have the same name and params.
func (q LogicalQuery) Equal(other LogicalQuery) bool {
	return q.Name == other.Name && maps.Equal(q.Params, other.Params)
}

func (q LogicalQuery) String() string {
	return q.Key()
}
