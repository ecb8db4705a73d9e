// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/liftsync/internal/models"
)

// defaultMaxBodyBytes bounds request bodies when the server config leaves
// MaxMessageSize unset.
const defaultMaxBodyBytes = 1 << 20

// decodeBody reads one JSON document from the request body into dst.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	limit := h.cfg.MaxMessageSize
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	body := http.MaxBytesReader(w, r.Body, limit)
	defer body.Close()

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return fmt.Errorf("%w: body exceeds %d bytes", models.ErrBadRequest, tooLarge.Limit)
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty body", models.ErrBadRequest)
		default:
			return fmt.Errorf("%w: invalid JSON: %v", models.ErrBadRequest, err)
		}
	}
	return nil
}

// decodePayload decodes the body for entity and fills server-side defaults
// (ids, tempo, dates) before validation.
func (h *Handler) decodePayload(w http.ResponseWriter, r *http.Request, entity models.EntityType) (any, error) {
	now := h.now()
	switch entity {
	case models.EntityLift:
		var l models.Lift
		if err := h.decodeBody(w, r, &l); err != nil {
			return nil, err
		}
		l.ApplyDefaults()
		return &l, nil

	case models.EntityVariation:
		var v models.Variation
		if err := h.decodeBody(w, r, &v); err != nil {
			return nil, err
		}
		v.ApplyDefaults()
		return &v, nil

	case models.EntitySet:
		var s models.LBSet
		if err := h.decodeBody(w, r, &s); err != nil {
			return nil, err
		}
		s.ApplyDefaults(now)
		return &s, nil

	case models.EntityWorkout:
		var wo models.Workout
		if err := h.decodeBody(w, r, &wo); err != nil {
			return nil, err
		}
		wo.ApplyDefaults()
		return &wo, nil

	case models.EntityGoal:
		var g models.Goal
		if err := h.decodeBody(w, r, &g); err != nil {
			return nil, err
		}
		g.ApplyDefaults(now)
		return &g, nil
	}
	return nil, fmt.Errorf("%w: unknown entity %q", models.ErrBadRequest, entity)
}
