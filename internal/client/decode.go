// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package client

import (
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/liftsync/internal/models"
)

// Decode unmarshals the data of a snapshot. A null single-entity snapshot
// decodes to the zero value of T; use a pointer type to tell the two apart.
func Decode[T any](snap models.Snapshot) (T, error) {
	var v T
	if snap.IsNull() {
		return v, nil
	}
	if err := json.Unmarshal(snap.Data, &v); err != nil {
		return v, fmt.Errorf("%w: decode %s snapshot: %v", models.ErrProtocol, snap.Query.Name, err)
	}
	return v, nil
}

// QueryLifts observes every lift.
func QueryLifts() models.LogicalQuery {
	return models.NewQuery(models.QueryLifts, nil)
}

// QueryLift observes one lift.
func QueryLift(id string) models.LogicalQuery {
	return models.NewQuery(models.QueryLift, map[string]string{models.ParamLiftID: id})
}

// QueryVariations observes the variations of liftID, or all when empty.
func QueryVariations(liftID string) models.LogicalQuery {
	return models.NewQuery(models.QueryVariations, map[string]string{models.ParamLiftID: liftID})
}

// QueryVariation observes one variation.
func QueryVariation(id string) models.LogicalQuery {
	return models.NewQuery(models.QueryVariation, map[string]string{models.ParamVariationID: id})
}

// SetQuery narrows a sets observation. Zero fields are omitted.
type SetQuery struct {
	VariationID string
	StartDate   time.Time
	EndDate     time.Time
	Limit       int
	Sort        string
	Order       string
}

// QuerySets observes sets matching sq.
func QuerySets(sq SetQuery) models.LogicalQuery {
	params := map[string]string{
		models.ParamVariationID: sq.VariationID,
		models.ParamSort:        sq.Sort,
		models.ParamOrder:       sq.Order,
	}
	if !sq.StartDate.IsZero() {
		params[models.ParamStartDate] = sq.StartDate.UTC().Format(time.DateOnly)
	}
	if !sq.EndDate.IsZero() {
		params[models.ParamEndDate] = sq.EndDate.UTC().Format(time.DateOnly)
	}
	if sq.Limit > 0 {
		params[models.ParamLimit] = strconv.Itoa(sq.Limit)
	}
	return models.NewQuery(models.QuerySets, params)
}

// QuerySet observes one set.
func QuerySet(id string) models.LogicalQuery {
	return models.NewQuery(models.QuerySet, map[string]string{models.ParamSetID: id})
}

// QueryWorkouts observes every workout.
func QueryWorkouts() models.LogicalQuery {
	return models.NewQuery(models.QueryWorkouts, nil)
}

// QueryGoals observes every goal.
func QueryGoals() models.LogicalQuery {
	return models.NewQuery(models.QueryGoals, nil)
}

// QueryGoal observes one goal.
func QueryGoal(id string) models.LogicalQuery {
	return models.NewQuery(models.QueryGoal, map[string]string{models.ParamGoalID: id})
}
