// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRecordStoreOperation tests store operation metric recording
func TestRecordStoreOperation(t *testing.T) {
	before := testutil.ToFloat64(StoreOperationErrors.WithLabelValues("put", "lifts"))

	RecordStoreOperation("put", "lifts", time.Millisecond, nil)
	RecordStoreOperation("put", "lifts", 2*time.Millisecond, errors.New("disk full"))

	after := testutil.ToFloat64(StoreOperationErrors.WithLabelValues("put", "lifts"))
	if after-before != 1 {
		t.Errorf("StoreOperationErrors delta = %v, want 1", after-before)
	}
}

func TestRecordMutation(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		result string
	}{
		{"success", nil, "success"},
		{"failure", errors.New("write failure"), "failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := MutationsTotal.WithLabelValues("goal", "upsert", tt.result)
			before := testutil.ToFloat64(c)

			RecordMutation("goal", "upsert", 3*time.Millisecond, tt.err)

			if got := testutil.ToFloat64(c) - before; got != 1 {
				t.Errorf("MutationsTotal{%s} delta = %v, want 1", tt.result, got)
			}
		})
	}
}

// TestRecordAPIRequest tests API request metric recording
func TestRecordAPIRequest(t *testing.T) {
	tests := []struct {
		method     string
		endpoint   string
		statusCode string
	}{
		{"GET", "/health", "200"},
		{"POST", "/api/rest/lift", "200"},
		{"DELETE", "/api/rest/sets", "500"},
		{"GET", "/api/rest/lfts", "400"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.endpoint, func(t *testing.T) {
			c := APIRequestsTotal.WithLabelValues(tt.method, tt.endpoint, tt.statusCode)
			before := testutil.ToFloat64(c)
			RecordAPIRequest(tt.method, tt.endpoint, tt.statusCode, 5*time.Millisecond)
			if got := testutil.ToFloat64(c) - before; got != 1 {
				t.Errorf("delta = %v, want 1", got)
			}
		})
	}
}

// TestTrackGauges verifies that paired inc/dec calls leave gauges unchanged
func TestTrackGauges(t *testing.T) {
	startReq := testutil.ToFloat64(APIActiveRequests)
	startConn := testutil.ToFloat64(StreamConnectionsActive)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			TrackActiveRequest(true)
			TrackStreamConnection(true)
			TrackStreamConnection(false)
			TrackActiveRequest(false)
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(APIActiveRequests); got != startReq {
		t.Errorf("APIActiveRequests = %v, want %v", got, startReq)
	}
	if got := testutil.ToFloat64(StreamConnectionsActive); got != startConn {
		t.Errorf("StreamConnectionsActive = %v, want %v", got, startConn)
	}
}
