// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// BadgerBackend implements Backend on BadgerDB. Keys are "<table>:<id>".
type BadgerBackend struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a BadgerDB at path. inMemory ignores path.
func OpenBadger(path string, inMemory bool) (*BadgerBackend, error) {
	opts := badger.DefaultOptions(path)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return NewBadgerBackend(db), nil
}

// NewBadgerBackend wraps an already opened database.
func NewBadgerBackend(db *badger.DB) *BadgerBackend {
	return &BadgerBackend{db: db}
}

func recordKey(table, id string) []byte {
	return []byte(table + ":" + id)
}

func tablePrefix(table string) []byte {
	return []byte(table + ":")
}

// Put stores body under (table, id), replacing any previous value.
func (b *BadgerBackend) Put(ctx context.Context, table, id string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(table, id), body)
	})
}

// Get returns the record or ErrRecordNotFound.
func (b *BadgerBackend) Get(ctx context.Context, table, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var body []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(table, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrRecordNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s/%s: %w", table, id, err)
		}
		body, err = item.ValueCopy(nil)
		return err
	})
	return body, err
}

// List returns every record of table in key order.
func (b *BadgerBackend) List(ctx context.Context, table string) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out [][]byte
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = tablePrefix(table)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			body, err := it.Item().ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read %s: %w", it.Item().Key(), err)
			}
			out = append(out, body)
		}
		return nil
	})
	return out, err
}

// Delete removes ids from table in one transaction.
func (b *BadgerBackend) Delete(ctx context.Context, table string, ids ...string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	deleted := 0
	err := b.db.Update(func(txn *badger.Txn) error {
		deleted = 0
		for _, id := range ids {
			key := recordKey(table, id)
			if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
				continue
			} else if err != nil {
				return fmt.Errorf("get %s/%s: %w", table, id, err)
			}
			if err := txn.Delete(key); err != nil {
				return fmt.Errorf("delete %s/%s: %w", table, id, err)
			}
			deleted++
		}
		return nil
	})
	return deleted, err
}

// DeleteAll removes every record of table using a write batch.
func (b *BadgerBackend) DeleteAll(ctx context.Context, table string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var keys [][]byte
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = tablePrefix(table)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", table, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return 0, fmt.Errorf("batch delete %s: %w", k, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("flush %s deletes: %w", table, err)
	}
	return len(keys), nil
}

// Close closes the database.
func (b *BadgerBackend) Close() error {
	return b.db.Close()
}
