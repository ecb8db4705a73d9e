// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/liftsync/internal/logging"
	"github.com/tomtom215/liftsync/internal/metrics"
	"github.com/tomtom215/liftsync/internal/models"
	"github.com/tomtom215/liftsync/internal/validation"
)

// Apply performs one mutation against the store. It is the single write
// path behind every REST mutation route.
func (h *Handler) Apply(ctx context.Context, req models.MutationRequest) (models.MutationResult, error) {
	start := time.Now()
	res, err := h.apply(ctx, req)
	metrics.RecordMutation(string(req.Entity), string(req.Op), time.Since(start), err)

	log := logging.Ctx(ctx)
	if err != nil {
		log.Warn().Err(err).Str("entity", string(req.Entity)).Str("op", string(req.Op)).Msg("mutation failed")
		return res, err
	}
	log.Debug().
		Str("entity", string(req.Entity)).
		Str("op", string(req.Op)).
		Str("id", res.ID).
		Int("deleted", res.Deleted).
		Msg("mutation applied")
	return res, nil
}

func (h *Handler) apply(ctx context.Context, req models.MutationRequest) (models.MutationResult, error) {
	if err := req.Check(); err != nil {
		return models.MutationResult{}, err
	}

	res := models.MutationResult{Entity: req.Entity, Op: req.Op, ID: req.ID}
	switch req.Op {
	case models.OpUpsert:
		id, err := h.upsert(ctx, req.Entity, req.Payload)
		if err != nil {
			return res, err
		}
		res.ID = id
		res.Entry = req.Payload

	case models.OpDelete:
		existed, err := h.deleteOne(ctx, req.Entity, req.ID)
		if err != nil {
			return res, err
		}
		if existed {
			res.Deleted = 1
		}

	case models.OpDeleteAll, models.OpDeleteByParent:
		n, err := h.deleteMany(ctx, req.Entity, req.ParentID)
		if err != nil {
			return res, err
		}
		res.Deleted = n
	}
	return res, nil
}

// upsert validates and stores payload. A payload whose type does not match
// entity is a bad request.
func (h *Handler) upsert(ctx context.Context, entity models.EntityType, payload any) (string, error) {
	if verr := validation.ValidateStruct(payload); verr != nil {
		return "", verr
	}

	switch p := payload.(type) {
	case *models.Lift:
		if entity == models.EntityLift {
			return p.ID, h.store.UpsertLift(ctx, *p)
		}
	case *models.Variation:
		if entity == models.EntityVariation {
			return p.ID, h.store.UpsertVariation(ctx, *p)
		}
	case *models.LBSet:
		if entity == models.EntitySet {
			return p.ID, h.store.UpsertSet(ctx, *p)
		}
	case *models.Workout:
		if entity == models.EntityWorkout {
			return p.ID, h.store.UpsertWorkout(ctx, *p)
		}
	case *models.Goal:
		if entity == models.EntityGoal {
			return p.ID, h.store.UpsertGoal(ctx, *p)
		}
	}
	return "", fmt.Errorf("%w: payload %T is not a %s", models.ErrBadRequest, payload, entity)
}

func (h *Handler) deleteOne(ctx context.Context, entity models.EntityType, id string) (bool, error) {
	switch entity {
	case models.EntityLift:
		return h.store.DeleteLift(ctx, id)
	case models.EntityVariation:
		return h.store.DeleteVariation(ctx, id)
	case models.EntitySet:
		return h.store.DeleteSet(ctx, id)
	case models.EntityWorkout:
		return h.store.DeleteWorkout(ctx, id)
	case models.EntityGoal:
		return h.store.DeleteGoal(ctx, id)
	}
	return false, fmt.Errorf("%w: unknown entity %q", models.ErrBadRequest, entity)
}

// deleteMany removes every row of entity, or only the children of parentID.
func (h *Handler) deleteMany(ctx context.Context, entity models.EntityType, parentID string) (int, error) {
	switch entity {
	case models.EntityLift:
		return h.store.DeleteAllLifts(ctx)
	case models.EntityVariation:
		return h.store.DeleteVariations(ctx, parentID)
	case models.EntitySet:
		return h.store.DeleteSets(ctx, parentID)
	}
	return 0, fmt.Errorf("%w: %s does not support bulk delete", models.ErrBadRequest, entity)
}

// Upsert handles POST /api/rest/{lift|variation|sets|workout|goal}.
func (h *Handler) Upsert(entity models.EntityType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rw := NewResponseWriter(w, r)

		payload, err := h.decodePayload(w, r, entity)
		if err != nil {
			rw.FromError(err)
			return
		}

		res, err := h.Apply(r.Context(), models.MutationRequest{Entity: entity, Op: models.OpUpsert, Payload: payload})
		if err != nil {
			rw.FromError(err)
			return
		}
		rw.Success(res)
	}
}

// Delete handles DELETE /api/rest/{lift|variation|workout|goal}?id=.
func (h *Handler) Delete(entity models.EntityType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.respondMutation(w, r, models.MutationRequest{
			Entity: entity,
			Op:     models.OpDelete,
			ID:     r.URL.Query().Get("id"),
		})
	}
}

// DeleteAll handles bulk deletes. When parentParam is set and present in the
// query, only that parent's children are removed.
//
//	DELETE /api/rest/lifts
//	DELETE /api/rest/variations[?liftId=]
func (h *Handler) DeleteAll(entity models.EntityType, parentParam string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := models.MutationRequest{Entity: entity, Op: models.OpDeleteAll}
		if parentParam != "" {
			if parent := r.URL.Query().Get(parentParam); parent != "" {
				req.Op = models.OpDeleteByParent
				req.ParentID = parent
			}
		}
		h.respondMutation(w, r, req)
	}
}

// DeleteSets handles DELETE /api/rest/sets. variationId removes that
// variation's sets, id removes one set, neither removes every set.
// variationId wins when both are given.
func (h *Handler) DeleteSets(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := models.MutationRequest{Entity: models.EntitySet, Op: models.OpDeleteAll}

	switch {
	case query.Get(models.ParamVariationID) != "":
		req.Op = models.OpDeleteByParent
		req.ParentID = query.Get(models.ParamVariationID)
	case query.Get("id") != "":
		req.Op = models.OpDelete
		req.ID = query.Get("id")
	}
	h.respondMutation(w, r, req)
}

func (h *Handler) respondMutation(w http.ResponseWriter, r *http.Request, req models.MutationRequest) {
	rw := NewResponseWriter(w, r)
	res, err := h.Apply(r.Context(), req)
	if err != nil {
		rw.FromError(err)
		return
	}
	rw.Success(res)
}
