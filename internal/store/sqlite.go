// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS records (
	tbl        TEXT    NOT NULL,
	id         TEXT    NOT NULL,
	body       BLOB    NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (tbl, id)
)`

// SQLiteBackend implements Backend on a single SQLite table.
type SQLiteBackend struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database at path. inMemory uses a private
// in-memory database pinned to one connection.
func OpenSQLite(path string, inMemory bool) (*SQLiteBackend, error) {
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	connStr := sqliteDSN(path, inMemory)

	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if inMemory {
		// Every connection to :memory: is a different database.
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(8)
		conn.SetMaxIdleConns(2)
		conn.SetConnMaxLifetime(5 * time.Minute)
	}

	b := &SQLiteBackend{conn: conn}

	if _, err := conn.Exec(sqliteSchema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return b, nil
}

// sqliteDSN builds the connection string. Pragmas go in the DSN so the
// driver applies them to every pooled connection, not just the first.
func sqliteDSN(path string, inMemory bool) string {
	if inMemory {
		return "file::memory:?_pragma=busy_timeout(5000)"
	}
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)"
}

// Put upserts the record.
func (b *SQLiteBackend) Put(ctx context.Context, table, id string, body []byte) error {
	_, err := b.conn.ExecContext(ctx, `
		INSERT INTO records (tbl, id, body, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (tbl, id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		table, id, body, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", table, id, err)
	}
	return nil
}

// Get returns the record or ErrRecordNotFound.
func (b *SQLiteBackend) Get(ctx context.Context, table, id string) ([]byte, error) {
	var body []byte
	err := b.conn.QueryRowContext(ctx, `SELECT body FROM records WHERE tbl = ? AND id = ?`, table, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", table, id, err)
	}
	return body, nil
}

// List returns every record of table ordered by id.
func (b *SQLiteBackend) List(ctx context.Context, table string) ([][]byte, error) {
	rows, err := b.conn.QueryContext(ctx, `SELECT body FROM records WHERE tbl = ? ORDER BY id`, table)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, body)
	}
	return out, rows.Err()
}

// Delete removes ids from table in one transaction.
func (b *SQLiteBackend) Delete(ctx context.Context, table string, ids ...string) (int, error) {
	tx, err := b.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM records WHERE tbl = ? AND id = ?`)
	if err != nil {
		return 0, fmt.Errorf("prepare delete: %w", err)
	}
	defer stmt.Close()

	deleted := 0
	for _, id := range ids {
		res, err := stmt.ExecContext(ctx, table, id)
		if err != nil {
			return 0, fmt.Errorf("delete %s/%s: %w", table, id, err)
		}
		n, _ := res.RowsAffected()
		deleted += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return deleted, nil
}

// DeleteAll empties table.
func (b *SQLiteBackend) DeleteAll(ctx context.Context, table string) (int, error) {
	res, err := b.conn.ExecContext(ctx, `DELETE FROM records WHERE tbl = ?`, table)
	if err != nil {
		return 0, fmt.Errorf("delete all %s: %w", table, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Close checkpoints the WAL and closes the connection pool.
func (b *SQLiteBackend) Close() error {
	if b.conn == nil {
		return nil
	}
	_, _ = b.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	if err := b.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	b.conn = nil
	return nil
}
