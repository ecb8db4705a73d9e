// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package models

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestLogicalQuery_Key(t *testing.T) {
	tests := []struct {
		name string
		q    LogicalQuery
		want string
	}{
		{"no params", NewQuery(QueryLifts, nil), "lifts"},
		{"empty values dropped", NewQuery(QuerySets, map[string]string{ParamVariationID: ""}), "sets"},
		{"sorted params", NewQuery(QuerySets, map[string]string{
			ParamVariationID: "v1",
			ParamLimit:       "10",
			ParamEndDate:     "2026-01-31",
		}), "sets?endDate=2026-01-31&limit=10&variationId=v1"},
		{"escaped", NewQuery(QueryGoal, map[string]string{ParamGoalID: "a b&c"}), "goal?goalId=a+b%26c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.Key(); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogicalQuery_Equal(t *testing.T) {
	a := NewQuery(QuerySets, map[string]string{ParamVariationID: "v1", ParamLimit: "5"})
	b := QueryFromValues(QuerySets, url.Values{ParamLimit: {"5", "7"}, ParamVariationID: {"v1"}})
	c := NewQuery(QuerySets, map[string]string{ParamVariationID: "v2", ParamLimit: "5"})

	if !a.Equal(b) || a.Key() != b.Key() {
		t.Errorf("expected %v == %v", a, b)
	}
	if a.Equal(c) {
		t.Errorf("expected %v != %v", a, c)
	}
	if NewQuery(QueryLifts, nil).Equal(NewQuery(QueryGoals, nil)) {
		t.Error("different names must not be equal")
	}
}

func TestLogicalQuery_Immutable(t *testing.T) {
	params := map[string]string{ParamGoalID: "g1"}
	q := NewQuery(QueryGoal, params)
	params[ParamGoalID] = "g2"

	if q.Param(ParamGoalID) != "g1" {
		t.Errorf("query changed with caller map: %v", q)
	}
}

func TestLogicalQuery_IntParam(t *testing.T) {
	q := NewQuery(QuerySets, map[string]string{ParamLimit: "12"})
	n, ok, err := q.IntParam(ParamLimit)
	if err != nil || !ok || n != 12 {
		t.Errorf("IntParam = %d, %v, %v", n, ok, err)
	}

	if _, ok, _ := NewQuery(QuerySets, nil).IntParam(ParamLimit); ok {
		t.Error("absent param reported present")
	}

	if _, _, err := NewQuery(QuerySets, map[string]string{ParamLimit: "x"}).IntParam(ParamLimit); err == nil {
		t.Error("expected parse error")
	}
}

func TestFrame_WireShape(t *testing.T) {
	ts := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	f := NewSnapshotFrame(Snapshot{
		Query:     NewQuery(QueryLifts, nil),
		Seq:       3,
		Timestamp: ts,
		Data:      json.RawMessage(`[{"id":"1","name":"Squat"}]`),
	})

	b, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	out := string(b)
	for _, want := range []string{
		`"type":"snapshot"`,
		`"query":{"name":"lifts"}`,
		`"seq":3`,
		`"data":[{"id":"1","name":"Squat"}]`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("frame %s missing %s", out, want)
		}
	}
}

func TestFrame_IgnoresUnknownFields(t *testing.T) {
	in := `{"type":"snapshot","query":{"name":"goal","params":{"goalId":"g"}},"seq":1,
		"timestamp":"2026-01-02T10:00:00Z","data":null,"compression":"none"}`

	var f Frame
	if err := json.Unmarshal([]byte(in), &f); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if f.Query.Param(ParamGoalID) != "g" || !f.IsNull() {
		t.Errorf("unexpected frame %+v", f)
	}
}

func TestLBSet_ApplyDefaults(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	s := LBSet{VariationID: "v1", Weight: 100, Reps: 5}
	s.ApplyDefaults(now)
	if s.ID == "" || s.Tempo != DefaultTempo() || !s.Date.Equal(now) {
		t.Errorf("defaults not applied: %+v", s)
	}

	// Second call keeps everything
	before := s
	s.ApplyDefaults(now.Add(time.Hour))
	if s != before {
		t.Errorf("ApplyDefaults is not stable: %+v vs %+v", s, before)
	}

	if got := s.TotalWeightMoved(); got != 500 {
		t.Errorf("TotalWeightMoved = %v, want 500", got)
	}
}

func TestGoal_ApplyDefaults(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	g := Goal{Name: "Bodyweight bench"}
	g.ApplyDefaults(now)
	if g.ID == "" || !g.CreatedAt.Equal(now) || !g.UpdatedAt.Equal(now) {
		t.Errorf("defaults not applied: %+v", g)
	}
}

func TestMutationRequest_Check(t *testing.T) {
	tests := []struct {
		name    string
		req     MutationRequest
		wantErr bool
	}{
		{"upsert lift", MutationRequest{Entity: EntityLift, Op: OpUpsert, Payload: Lift{ID: "1", Name: "Squat"}}, false},
		{"upsert without payload", MutationRequest{Entity: EntityLift, Op: OpUpsert}, true},
		{"delete without id", MutationRequest{Entity: EntityGoal, Op: OpDelete}, true},
		{"delete goal", MutationRequest{Entity: EntityGoal, Op: OpDelete, ID: "g"}, false},
		{"delete all sets", MutationRequest{Entity: EntitySet, Op: OpDeleteAll}, false},
		{"delete sets by variation", MutationRequest{Entity: EntitySet, Op: OpDeleteByParent, ParentID: "v"}, false},
		{"delete by parent without parent", MutationRequest{Entity: EntityVariation, Op: OpDeleteByParent}, true},
		{"goal has no bulk delete", MutationRequest{Entity: EntityGoal, Op: OpDeleteAll}, true},
		{"unknown entity", MutationRequest{Entity: "plate", Op: OpDelete, ID: "x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Check()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Check() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrBadRequest) {
				t.Errorf("Check() = %v, want ErrBadRequest", err)
			}
		})
	}
}

func TestMutationRequest_Idempotent(t *testing.T) {
	tests := []struct {
		op   MutationOp
		want bool
	}{
		{OpUpsert, true},
		{OpDelete, true},
		{OpDeleteAll, false},
		{OpDeleteByParent, false},
	}
	for _, tt := range tests {
		if got := (MutationRequest{Op: tt.op}).Idempotent(); got != tt.want {
			t.Errorf("%s: Idempotent() = %v, want %v", tt.op, got, tt.want)
		}
	}
}

func TestSyncError(t *testing.T) {
	err := error(&SyncError{Op: "mutate lift upsert", Err: ErrConnectFailure, Attempts: 3, Detail: "dial tcp: refused"})

	if !errors.Is(err, ErrConnectFailure) {
		t.Error("errors.Is should see through SyncError")
	}
	var se *SyncError
	if !errors.As(fmt.Errorf("wrapped: %w", err), &se) || se.Attempts != 3 {
		t.Errorf("errors.As failed: %v", se)
	}
	want := "mutate lift upsert: connect failure: dial tcp: refused (after 3 attempts)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{ErrBadRequest, http.StatusBadRequest, ErrCodeBadRequest},
		{ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
		{ErrWriteFailure, http.StatusInternalServerError, ErrCodeWriteFailed},
		{ErrTimeout, http.StatusGatewayTimeout, ErrCodeServiceUnavailable},
		{ErrConnectFailure, http.StatusServiceUnavailable, ErrCodeServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError, ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("handler: %w", tt.err)
			if got := HTTPStatus(wrapped); got != tt.status {
				t.Errorf("HTTPStatus = %d, want %d", got, tt.status)
			}
			if got := ErrorCode(wrapped); got != tt.code {
				t.Errorf("ErrorCode = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestErrorFromStatus(t *testing.T) {
	tests := []struct {
		status int
		code   string
		want   error
	}{
		{200, "", nil},
		{400, ErrCodeBadRequest, ErrBadRequest},
		{422, ErrCodeValidationFailed, ErrBadRequest},
		{404, ErrCodeNotFound, ErrNotFound},
		{500, ErrCodeWriteFailed, ErrWriteFailure},
		{503, ErrCodeServiceUnavailable, ErrConnectFailure},
		{504, "", ErrTimeout},
		{429, ErrCodeTooManyRequests, ErrConnectFailure},
		{405, ErrCodeMethodNotAllowed, ErrProtocol},
	}
	for _, tt := range tests {
		if got := ErrorFromStatus(tt.status, tt.code); !errors.Is(got, tt.want) || (tt.want == nil && got != nil) {
			t.Errorf("ErrorFromStatus(%d, %q) = %v, want %v", tt.status, tt.code, got, tt.want)
		}
	}

	if !Transient(ErrWriteFailure) || Transient(ErrBadRequest) || Transient(ErrNotFound) {
		t.Error("Transient classification is wrong")
	}
}
