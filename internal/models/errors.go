// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package models

import (
	"errors"
	"fmt"
	"net/http"
)

// Error taxonomy shared by server and client. Every error that crosses a
// component boundary wraps exactly one of these.
var (
	ErrConnectFailure = errors.New("connect failure")
	ErrTimeout        = errors.New("timeout")
	ErrProtocol       = errors.New("protocol error")
	ErrNotFound       = errors.New("not found")
	ErrBadRequest     = errors.New("bad request")
	ErrWriteFailure   = errors.New("write failure")
)

// SyncError carries the operation and attempt count of a failed client call.
type SyncError struct {
	Op       string
	Err      error
	Attempts int
	Detail   string
}

func (e *SyncError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Err)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" (after %d attempts)", e.Attempts)
	}
	return msg
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// Transient reports whether err is worth retrying: the server was unreachable,
// slow, or failed on its side.
func Transient(err error) bool {
	return errors.Is(err, ErrConnectFailure) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrWriteFailure)
}

// HTTPStatus maps a taxonomy error to a status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrConnectFailure):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode maps a taxonomy error to an APIError code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrBadRequest):
		return ErrCodeBadRequest
	case errors.Is(err, ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, ErrWriteFailure):
		return ErrCodeWriteFailed
	case errors.Is(err, ErrConnectFailure), errors.Is(err, ErrTimeout):
		return ErrCodeServiceUnavailable
	default:
		return ErrCodeInternalError
	}
}

// ErrorFromStatus maps an HTTP response back into the taxonomy.
func ErrorFromStatus(status int, code string) error {
	switch {
	case status < 400:
		return nil
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity,
		code == ErrCodeBadRequest, code == ErrCodeValidationFailed:
		return ErrBadRequest
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return ErrTimeout
	case status == http.StatusTooManyRequests, status == http.StatusBadGateway,
		status == http.StatusServiceUnavailable:
		return ErrConnectFailure
	case status >= 500:
		return ErrWriteFailure
	default:
		return ErrProtocol
	}
}
