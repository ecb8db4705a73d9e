// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/liftsync/internal/admin"
	"github.com/tomtom215/liftsync/internal/config"
	"github.com/tomtom215/liftsync/internal/lifecycle"
	"github.com/tomtom215/liftsync/internal/models"
	"github.com/tomtom215/liftsync/internal/server"
	"github.com/tomtom215/liftsync/internal/store"
)

func newLiveServer(t *testing.T) string {
	t.Helper()
	st, err := store.Open(config.StoreConfig{Driver: "badger", InMemory: true})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	srv := server.New(config.ServerConfig{
		Host:              "127.0.0.1",
		PingPeriod:        time.Second,
		PongWait:          3 * time.Second,
		WriteWait:         time.Second,
		MaxMessageSize:    64 * 1024,
		PushRate:          1000,
		PushBurst:         10,
		RateLimitDisabled: true,
	}, st, "test")
	if err := srv.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
		_ = st.Close()
	})
	return "http://127.0.0.1:" + strconv.Itoa(srv.Port())
}

func testConfig() (*config.Config, error) {
	cfg := config.Default()
	cfg.Client.BackoffInitial = 10 * time.Millisecond
	cfg.Client.BackoffMax = 50 * time.Millisecond
	cfg.Client.MaxRetryAttempts = 2
	return cfg, nil
}

// run executes liftctl with args against the given server and returns stdout.
func run(t *testing.T, serverURL string, args ...string) (string, error) {
	t.Helper()
	opts := &RootOptions{loadConfig: testConfig}
	cmd := newRootCommand(opts)

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--server", serverURL, "--timeout", "5s"}, args...))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestRoot_InvalidFormat(t *testing.T) {
	_, err := run(t, "http://127.0.0.1:1", "--format", "yaml", "health")
	if err == nil || !strings.Contains(err.Error(), "invalid format") {
		t.Errorf("err = %v, want invalid format", err)
	}
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantKey string
		wantErr bool
	}{
		{"bare", []string{"lifts"}, "lifts", false},
		{"params", []string{"sets", "variationId=v1", "sort=weight"}, "sets?sort=weight&variationId=v1", false},
		{"empty value dropped", []string{"variations", "liftId="}, "variations", false},
		{"missing equals", []string{"sets", "variationId"}, "", true},
		{"empty key", []string{"sets", "=v1"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := parseQuery(tt.args)
			if tt.wantErr {
				if !errors.Is(err, models.ErrBadRequest) {
					t.Errorf("err = %v, want ErrBadRequest", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseQuery: %v", err)
			}
			if q.Key() != tt.wantKey {
				t.Errorf("key = %q, want %q", q.Key(), tt.wantKey)
			}
		})
	}
}

func TestDecodePayload(t *testing.T) {
	p, err := decodePayload(models.EntityLift, []byte(` {"name":"Squat"} `))
	if err != nil {
		t.Fatalf("decodePayload: %v", err)
	}
	if lift, ok := p.(*models.Lift); !ok || lift.Name != "Squat" {
		t.Errorf("payload = %#v", p)
	}

	if _, err := decodePayload("barbell", []byte(`{}`)); !errors.Is(err, models.ErrBadRequest) {
		t.Errorf("unknown entity err = %v", err)
	}
	if _, err := decodePayload(models.EntitySet, []byte(`{"reps":`)); !errors.Is(err, models.ErrBadRequest) {
		t.Errorf("bad json err = %v", err)
	}
}

func TestCLI_MutateAndRead(t *testing.T) {
	url := newLiveServer(t)

	out, err := run(t, url, "upsert", "lift", `{"id":"squat","name":"Squat"}`)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if strings.TrimSpace(out) != "lift squat" {
		t.Errorf("upsert output = %q", out)
	}

	out, err = run(t, url, "--format", "json", "read", "lifts")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("decode snapshot: %v\n%s", err, out)
	}
	var lifts []models.Lift
	if err := json.Unmarshal(snap.Data, &lifts); err != nil {
		t.Fatalf("decode lifts: %v", err)
	}
	if len(lifts) != 1 || lifts[0].Name != "Squat" {
		t.Errorf("lifts = %+v", lifts)
	}

	out, err = run(t, url, "delete", "lift", "squat")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if strings.TrimSpace(out) != "deleted 1 lift" {
		t.Errorf("delete output = %q", out)
	}

	out, err = run(t, url, "read", "lift", "id=squat")
	if err == nil {
		t.Errorf("read of deleted lift succeeded: %q", out)
	}
}

func TestCLI_DeleteAllByParent(t *testing.T) {
	url := newLiveServer(t)

	for _, body := range []string{
		`{"variationId":"v1","reps":5,"weight":100}`,
		`{"variationId":"v1","reps":3,"weight":110}`,
		`{"variationId":"v2","reps":5,"weight":60}`,
	} {
		if _, err := run(t, url, "upsert", "set", body); err != nil {
			t.Fatalf("upsert set: %v", err)
		}
	}

	out, err := run(t, url, "delete-all", "set", "--parent", "v1")
	if err != nil {
		t.Fatalf("delete-all: %v", err)
	}
	if strings.TrimSpace(out) != "deleted 2 set" {
		t.Errorf("delete-all output = %q", out)
	}
}

func TestCLI_MalformedMutationFailsLocally(t *testing.T) {
	// Nothing listens here; a local rejection never dials.
	_, err := run(t, "http://127.0.0.1:1", "delete-all", "workout")
	if !errors.Is(err, models.ErrBadRequest) {
		t.Errorf("err = %v, want ErrBadRequest", err)
	}
}

func TestCLI_Watch(t *testing.T) {
	url := newLiveServer(t)
	if _, err := run(t, url, "upsert", "lift", `{"id":"bench","name":"Bench"}`); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	out, err := run(t, url, "watch", "lifts", "--count", "1")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if !strings.Contains(out, "lifts seq=") || !strings.Contains(out, "Bench") {
		t.Errorf("watch output = %q", out)
	}
}

func TestCLI_WatchRejectedQuery(t *testing.T) {
	url := newLiveServer(t)

	_, err := run(t, url, "watch", "barbells")
	if !errors.Is(err, models.ErrBadRequest) {
		t.Errorf("err = %v, want ErrBadRequest", err)
	}
}

func TestCLI_Health(t *testing.T) {
	url := newLiveServer(t)

	out, err := run(t, url, "health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if !strings.HasPrefix(out, url) {
		t.Errorf("health output = %q", out)
	}

	out, err = run(t, url, "--format", "json", "info")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	var info models.ServiceInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil || info.Version != "test" {
		t.Errorf("info = %+v, err %v", info, err)
	}
}

type fakeLifecycle struct {
	status lifecycle.Status
}

func (f *fakeLifecycle) TurnOn(_ context.Context, port int) (lifecycle.Status, error) {
	f.status = lifecycle.Status{State: lifecycle.StateOn, Port: port, Since: time.Now()}
	return f.status, nil
}

func (f *fakeLifecycle) TurnOff(context.Context) (lifecycle.Status, error) {
	f.status = lifecycle.Status{State: lifecycle.StateOff, Since: time.Now()}
	return f.status, nil
}

func (f *fakeLifecycle) Status() lifecycle.Status {
	return f.status
}

func TestCLI_Lifecycle(t *testing.T) {
	ts := httptest.NewServer(admin.NewHandler(&fakeLifecycle{}, 8080).Routes())
	defer ts.Close()

	out, err := run(t, "http://127.0.0.1:1", "--admin", ts.URL, "lifecycle", "on", "--port", "9000")
	if err != nil {
		t.Fatalf("lifecycle on: %v", err)
	}
	if !strings.HasPrefix(out, "on port=9000") {
		t.Errorf("on output = %q", out)
	}

	out, err = run(t, "http://127.0.0.1:1", "--admin", ts.URL, "--format", "json", "lifecycle", "status")
	if err != nil {
		t.Fatalf("lifecycle status: %v", err)
	}
	var st lifecycle.Status
	if err := json.Unmarshal([]byte(out), &st); err != nil || st.State != lifecycle.StateOn {
		t.Errorf("status = %+v, err %v", st, err)
	}

	out, err = run(t, "http://127.0.0.1:1", "--admin", ts.URL, "lifecycle", "off")
	if err != nil {
		t.Fatalf("lifecycle off: %v", err)
	}
	if !strings.HasPrefix(out, "off") {
		t.Errorf("off output = %q", out)
	}
}

func TestCLI_DiscoverRequiresService(t *testing.T) {
	opts := &RootOptions{loadConfig: func() (*config.Config, error) {
		cfg := config.Default()
		cfg.Discovery.Service = ""
		return cfg, nil
	}}
	cmd := newRootCommand(opts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"discover", "--wait", "10ms"})
	if err := cmd.Execute(); err == nil {
		t.Error("discover without a service type should fail")
	}
}
