// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package client

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/liftsync/internal/models"
)

// normalizePayload copies an entity (value or pointer), fills its defaults
// and reports which entity it is.
func normalizePayload(p any, now time.Time) (any, models.EntityType, error) {
	switch v := p.(type) {
	case models.Lift:
		v.ApplyDefaults()
		return &v, models.EntityLift, nil
	case *models.Lift:
		if v != nil {
			c := *v
			c.ApplyDefaults()
			return &c, models.EntityLift, nil
		}
	case models.Variation:
		v.ApplyDefaults()
		return &v, models.EntityVariation, nil
	case *models.Variation:
		if v != nil {
			c := *v
			c.ApplyDefaults()
			return &c, models.EntityVariation, nil
		}
	case models.LBSet:
		v.ApplyDefaults(now)
		return &v, models.EntitySet, nil
	case *models.LBSet:
		if v != nil {
			c := *v
			c.ApplyDefaults(now)
			return &c, models.EntitySet, nil
		}
	case models.Workout:
		v.ApplyDefaults()
		return &v, models.EntityWorkout, nil
	case *models.Workout:
		if v != nil {
			c := *v
			c.ApplyDefaults()
			return &c, models.EntityWorkout, nil
		}
	case models.Goal:
		v.ApplyDefaults(now)
		return &v, models.EntityGoal, nil
	case *models.Goal:
		if v != nil {
			c := *v
			c.ApplyDefaults(now)
			return &c, models.EntityGoal, nil
		}
	}
	return nil, "", fmt.Errorf("%w: unsupported payload %T", models.ErrBadRequest, p)
}

// upsert runs an upsert and returns the stored id.
func (c *Client) upsert(ctx context.Context, entity models.EntityType, payload any) (string, error) {
	res, err := c.Mutate(ctx, models.MutationRequest{Entity: entity, Op: models.OpUpsert, Payload: payload})
	return res.ID, err
}

// remove deletes one entity and reports whether it existed.
func (c *Client) remove(ctx context.Context, entity models.EntityType, id string) (bool, error) {
	res, err := c.Mutate(ctx, models.MutationRequest{Entity: entity, Op: models.OpDelete, ID: id})
	return res.Deleted > 0, err
}

// removeMany deletes every entity, or the children of parentID when set.
func (c *Client) removeMany(ctx context.Context, entity models.EntityType, parentID string) (int, error) {
	req := models.MutationRequest{Entity: entity, Op: models.OpDeleteAll}
	if parentID != "" {
		req.Op = models.OpDeleteByParent
		req.ParentID = parentID
	}
	res, err := c.Mutate(ctx, req)
	return res.Deleted, err
}

// UpsertLift creates or replaces a lift and returns its id.
func (c *Client) UpsertLift(ctx context.Context, l models.Lift) (string, error) {
	return c.upsert(ctx, models.EntityLift, l)
}

// DeleteLift deletes a lift by id.
func (c *Client) DeleteLift(ctx context.Context, id string) (bool, error) {
	return c.remove(ctx, models.EntityLift, id)
}

// DeleteAllLifts deletes every lift. It is never retried.
func (c *Client) DeleteAllLifts(ctx context.Context) (int, error) {
	return c.removeMany(ctx, models.EntityLift, "")
}

// UpsertVariation creates or replaces a variation and returns its id.
func (c *Client) UpsertVariation(ctx context.Context, v models.Variation) (string, error) {
	return c.upsert(ctx, models.EntityVariation, v)
}

// DeleteVariation deletes a variation by id.
func (c *Client) DeleteVariation(ctx context.Context, id string) (bool, error) {
	return c.remove(ctx, models.EntityVariation, id)
}

// DeleteVariations deletes the variations of liftID, or every variation
// when liftID is empty. It is never retried.
func (c *Client) DeleteVariations(ctx context.Context, liftID string) (int, error) {
	return c.removeMany(ctx, models.EntityVariation, liftID)
}

// UpsertSet creates or replaces a set and returns its id.
func (c *Client) UpsertSet(ctx context.Context, s models.LBSet) (string, error) {
	return c.upsert(ctx, models.EntitySet, s)
}

// DeleteSet deletes a set by id.
func (c *Client) DeleteSet(ctx context.Context, id string) (bool, error) {
	return c.remove(ctx, models.EntitySet, id)
}

// DeleteSets deletes the sets of variationID, or every set when
// variationID is empty. It is never retried.
func (c *Client) DeleteSets(ctx context.Context, variationID string) (int, error) {
	return c.removeMany(ctx, models.EntitySet, variationID)
}

// UpsertWorkout creates or replaces a workout and returns its id.
func (c *Client) UpsertWorkout(ctx context.Context, w models.Workout) (string, error) {
	return c.upsert(ctx, models.EntityWorkout, w)
}

// DeleteWorkout deletes a workout by id.
func (c *Client) DeleteWorkout(ctx context.Context, id string) (bool, error) {
	return c.remove(ctx, models.EntityWorkout, id)
}

// UpsertGoal creates or replaces a goal and returns its id.
func (c *Client) UpsertGoal(ctx context.Context, g models.Goal) (string, error) {
	return c.upsert(ctx, models.EntityGoal, g)
}

// DeleteGoal deletes a goal by id.
func (c *Client) DeleteGoal(ctx context.Context, id string) (bool, error) {
	return c.remove(ctx, models.EntityGoal, id)
}
