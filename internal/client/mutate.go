// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/liftsync/internal/metrics"
	"github.com/tomtom215/liftsync/internal/models"
	"github.com/tomtom215/liftsync/internal/validation"
)

// singular is the REST path segment of single-entity writes.
var singular = map[models.EntityType]string{
	models.EntityLift:      "lift",
	models.EntityVariation: "variation",
	models.EntitySet:       "sets",
	models.EntityWorkout:   "workout",
	models.EntityGoal:      "goal",
}

// plural is the REST path segment and parent parameter of bulk deletes.
var plural = map[models.EntityType]struct{ path, parent string }{
	models.EntityLift:      {"lifts", ""},
	models.EntityVariation: {"variations", models.ParamLiftID},
	models.EntitySet:       {"sets", models.ParamVariationID},
}

// Mutate applies one write on the server.
//
// Each attempt is bounded by RequestTimeout. Upserts and deletes by id are
// retried on transient failures with exponential backoff, up to
// MaxRetryAttempts attempts in total; bulk deletes make exactly one attempt.
// A malformed request fails locally without any attempt.
//
// Errors are *models.SyncError wrapping one taxonomy sentinel.
func (c *Client) Mutate(ctx context.Context, req models.MutationRequest) (models.MutationResult, error) {
	op := fmt.Sprintf("%s %s", req.Op, req.Entity)

	if c.isClosed() {
		return models.MutationResult{}, &models.SyncError{Op: op, Err: models.ErrConnectFailure, Detail: ErrClosed.Error()}
	}
	if err := c.prepare(&req); err != nil {
		return models.MutationResult{}, &models.SyncError{Op: op, Err: models.ErrBadRequest, Detail: detail(err)}
	}
	method, u := c.route(req)

	attempts := 1
	if req.Idempotent() && c.cfg.RetryOnConnectionFailure && c.cfg.MaxRetryAttempts > 1 {
		attempts = c.cfg.MaxRetryAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		res, err := c.attempt(ctx, req, method, u)
		if err == nil {
			metrics.ClientMutationAttempts.WithLabelValues(string(req.Entity), string(req.Op), "success").Inc()
			return *res, nil
		}
		metrics.ClientMutationAttempts.WithLabelValues(string(req.Entity), string(req.Op), "failure").Inc()
		lastErr = err

		if ctx.Err() != nil {
			return models.MutationResult{}, &models.SyncError{Op: op, Err: models.ErrTimeout, Attempts: attempt, Detail: ctx.Err().Error()}
		}
		if !models.Transient(err) {
			return models.MutationResult{}, syncError(op, err, attempt)
		}
		if attempt == attempts {
			break
		}

		wait := c.backoff(attempt)
		c.log.Debug().Err(err).Str("op", op).Int("attempt", attempt).Dur("backoff", wait).Msg("retrying mutation")
		if err := sleep(ctx, wait); err != nil {
			return models.MutationResult{}, &models.SyncError{Op: op, Err: models.ErrTimeout, Attempts: attempt, Detail: err.Error()}
		}
	}

	c.log.Warn().Err(lastErr).Str("op", op).Int("attempts", attempts).Msg("mutation failed")
	return models.MutationResult{}, syncError(op, lastErr, attempts)
}

// attempt performs one request through the circuit breaker.
func (c *Client) attempt(ctx context.Context, req models.MutationRequest, method string, u *url.URL) (*models.MutationResult, error) {
	return castResult[models.MutationResult](c.breaker.execute(func() (any, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()

		var body any
		if req.Op == models.OpUpsert {
			body = req.Payload
		}
		data, err := c.do(attemptCtx, method, u, body)
		if err != nil {
			return nil, err
		}
		var res models.MutationResult
		if err := json.Unmarshal(data, &res); err != nil {
			return nil, fmt.Errorf("%w: decode mutation result: %v", models.ErrProtocol, err)
		}
		return &res, nil
	}))
}

// prepare checks the request shape and, for upserts, fills defaults and
// validates the payload. The id is assigned here, before the first attempt,
// so every retry writes the same entity.
func (c *Client) prepare(req *models.MutationRequest) error {
	if err := req.Check(); err != nil {
		return err
	}
	if req.Op != models.OpUpsert {
		return nil
	}

	payload, entity, err := normalizePayload(req.Payload, c.now())
	if err != nil {
		return err
	}
	if entity != req.Entity {
		return fmt.Errorf("%w: payload is a %s, request targets %s", models.ErrBadRequest, entity, req.Entity)
	}
	if verr := validation.ValidateStruct(payload); verr != nil {
		return verr
	}
	req.Payload = payload
	return nil
}

// route returns the method and URL of req.
func (c *Client) route(req models.MutationRequest) (string, *url.URL) {
	switch req.Op {
	case models.OpUpsert:
		return http.MethodPost, c.endpoint("/api/rest/"+singular[req.Entity], nil)
	case models.OpDelete:
		return http.MethodDelete, c.endpoint("/api/rest/"+singular[req.Entity], url.Values{"id": {req.ID}})
	case models.OpDeleteByParent:
		p := plural[req.Entity]
		return http.MethodDelete, c.endpoint("/api/rest/"+p.path, url.Values{p.parent: {req.ParentID}})
	default:
		return http.MethodDelete, c.endpoint("/api/rest/"+plural[req.Entity].path, nil)
	}
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// taxonomy lists the sentinels in the order they are matched.
var taxonomy = []error{
	models.ErrBadRequest, models.ErrNotFound, models.ErrWriteFailure,
	models.ErrTimeout, models.ErrConnectFailure, models.ErrProtocol,
}

// syncError wraps err as a SyncError on its taxonomy sentinel.
func syncError(op string, err error, attempts int) *models.SyncError {
	sentinel := models.ErrProtocol
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		sentinel = models.ErrTimeout
	}
	for _, s := range taxonomy {
		if errors.Is(err, s) {
			sentinel = s
			break
		}
	}
	return &models.SyncError{Op: op, Err: sentinel, Attempts: attempts, Detail: detail(err)}
}

// detail strips the sentinel prefix so it is not printed twice.
func detail(err error) string {
	if err == nil {
		return ""
	}
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	msg := err.Error()
	for _, s := range taxonomy {
		if rest, ok := strings.CutPrefix(msg, s.Error()+": "); ok {
			return rest
		}
	}
	return msg
}
