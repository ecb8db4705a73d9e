// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func backends(t *testing.T) map[string]func(t *testing.T) Backend {
	t.Helper()
	return map[string]func(t *testing.T) Backend{
		"badger-memory": func(t *testing.T) Backend {
			b, err := OpenBadger("", true)
			if err != nil {
				t.Fatalf("OpenBadger: %v", err)
			}
			return b
		},
		"badger-disk": func(t *testing.T) Backend {
			b, err := OpenBadger(t.TempDir(), false)
			if err != nil {
				t.Fatalf("OpenBadger: %v", err)
			}
			return b
		},
		"sqlite-file": func(t *testing.T) Backend {
			b, err := OpenSQLite(filepath.Join(t.TempDir(), "liftsync.db"), false)
			if err != nil {
				t.Fatalf("OpenSQLite: %v", err)
			}
			return b
		},
		"sqlite-memory": func(t *testing.T) Backend {
			b, err := OpenSQLite("", true)
			if err != nil {
				t.Fatalf("OpenSQLite: %v", err)
			}
			return b
		},
	}
}

func TestBackendContract(t *testing.T) {
	ctx := context.Background()

	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			b := open(t)
			defer b.Close()

			if _, err := b.Get(ctx, TableLifts, "missing"); !errors.Is(err, ErrRecordNotFound) {
				t.Fatalf("Get missing = %v, want ErrRecordNotFound", err)
			}

			for _, id := range []string{"b", "a", "c"} {
				if err := b.Put(ctx, TableLifts, id, []byte(`{"id":"`+id+`"}`)); err != nil {
					t.Fatalf("Put %s: %v", id, err)
				}
			}
			// Same id in another table must not collide
			if err := b.Put(ctx, TableGoals, "a", []byte(`{"id":"goal"}`)); err != nil {
				t.Fatalf("Put goal: %v", err)
			}

			// Replace
			if err := b.Put(ctx, TableLifts, "a", []byte(`{"id":"a","v":2}`)); err != nil {
				t.Fatalf("Put replace: %v", err)
			}
			body, err := b.Get(ctx, TableLifts, "a")
			if err != nil || string(body) != `{"id":"a","v":2}` {
				t.Fatalf("Get a = %s, %v", body, err)
			}

			list, err := b.List(ctx, TableLifts)
			if err != nil || len(list) != 3 {
				t.Fatalf("List = %d records, %v; want 3", len(list), err)
			}

			n, err := b.Delete(ctx, TableLifts, "a", "missing")
			if err != nil || n != 1 {
				t.Fatalf("Delete = %d, %v; want 1", n, err)
			}

			n, err = b.DeleteAll(ctx, TableLifts)
			if err != nil || n != 2 {
				t.Fatalf("DeleteAll = %d, %v; want 2", n, err)
			}
			if list, _ := b.List(ctx, TableLifts); len(list) != 0 {
				t.Errorf("List after DeleteAll = %d records", len(list))
			}

			if _, err := b.Get(ctx, TableGoals, "a"); err != nil {
				t.Errorf("goal removed by lift DeleteAll: %v", err)
			}
		})
	}
}

func TestBadgerBackend_CanceledContext(t *testing.T) {
	b, err := OpenBadger("", true)
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := b.Put(ctx, TableLifts, "1", []byte(`{}`)); !errors.Is(err, context.Canceled) {
		t.Errorf("Put with canceled ctx = %v", err)
	}
}

func TestSQLiteBackend_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "liftsync.db")

	b, err := OpenSQLite(path, false)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := b.Put(ctx, TableGoals, "g1", []byte(`{"id":"g1"}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	b, err = OpenSQLite(path, false)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer b.Close()

	if _, err := b.Get(ctx, TableGoals, "g1"); err != nil {
		t.Errorf("record lost across reopen: %v", err)
	}
}

func TestSQLiteBackend_PragmasOnEveryConnection(t *testing.T) {
	b, err := OpenSQLite(filepath.Join(t.TempDir(), "liftsync.db"), false)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer b.Close()

	// Hold several pooled connections at once so each is a distinct one.
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		c, err := b.conn.Conn(ctx)
		if err != nil {
			t.Fatalf("Conn #%d: %v", i, err)
		}
		defer c.Close()

		var timeout int
		if err := c.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout); err != nil {
			t.Fatalf("conn #%d busy_timeout: %v", i, err)
		}
		if timeout != 5000 {
			t.Errorf("conn #%d busy_timeout = %d, want 5000", i, timeout)
		}
		var mode string
		if err := c.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
			t.Fatalf("conn #%d journal_mode: %v", i, err)
		}
		if mode != "wal" {
			t.Errorf("conn #%d journal_mode = %q, want wal", i, mode)
		}
	}
}
