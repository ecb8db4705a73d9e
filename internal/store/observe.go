// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package store

import (
	"bytes"
	"context"

	"github.com/goccy/go-json"

	"github.com/tomtom215/liftsync/internal/logging"
)

// observe emits fetch() now and again after every change to tables.
//
// The bus subscription is made before the first read so no change can fall
// between them. Changes that arrive while a value is being read or delivered
// collapse into one pending re-read. A re-read whose encoding equals the last
// emitted value is dropped. The channel closes when ctx is done, the store
// closes, or a read fails.
func observe[T any](ctx context.Context, s *Store, fetch func(context.Context) (T, error), tables ...string) (<-chan T, error) {
	ctx, cancel := context.WithCancel(ctx)

	dirty := make(chan struct{}, 1)
	for _, table := range tables {
		msgs, err := s.bus.Subscribe(ctx, table)
		if err != nil {
			cancel()
			return nil, err
		}
		go func() {
			for msg := range msgs {
				msg.Ack()
				select {
				case dirty <- struct{}{}:
				default:
				}
			}
		}()
	}

	out := make(chan T)
	go func() {
		defer cancel()
		defer close(out)

		var last []byte
		for {
			v, err := fetch(ctx)
			if err != nil {
				if ctx.Err() == nil {
					logging.Error().Str("component", "store").Err(err).Strs("tables", tables).Msg("observation read failed")
				}
				return
			}

			enc, encErr := json.Marshal(v)
			if encErr != nil || last == nil || !bytes.Equal(enc, last) {
				select {
				case out <- v:
				case <-ctx.Done():
					return
				case <-s.done:
					return
				}
				last = enc
			}

			select {
			case <-dirty:
			case <-ctx.Done():
				return
			case <-s.done:
				return
			}
		}
	}()
	return out, nil
}
