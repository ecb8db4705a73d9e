// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package subscription

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/liftsync/internal/fanout"
	"github.com/tomtom215/liftsync/internal/logging"
	"github.com/tomtom215/liftsync/internal/metrics"
	"github.com/tomtom215/liftsync/internal/models"
)

// ErrClosed is returned by Subscribe after Close.
var ErrClosed = errors.New("subscription multiplexer closed")

// Multiplexer shares one repository observation between every subscriber of
// the same logical query.
type Multiplexer struct {
	repo Repository
	now  func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	feeds  map[string]*feed
	closed bool
}

type feed struct {
	key    string
	query  models.LogicalQuery
	hub    *fanout.Hub[models.Snapshot]
	cancel context.CancelFunc
	refs   int
}

// New creates a multiplexer over repo.
func New(repo Repository) *Multiplexer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Multiplexer{
		repo:   repo,
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
		feeds:  make(map[string]*feed),
	}
}

// Subscription is one consumer's view of a shared feed.
type Subscription struct {
	m     *Multiplexer
	f     *feed
	sub   *fanout.Subscriber[models.Snapshot]
	query models.LogicalQuery

	mu   sync.Mutex
	stop func() bool
	once sync.Once
}

// Subscribe validates q and attaches to its feed, starting one if none is
// running. It returns without waiting for data; the first snapshot arrives on
// C() as soon as the initial read completes, or immediately when the feed
// already holds one. The subscription is closed when ctx ends.
func (m *Multiplexer) Subscribe(ctx context.Context, q models.LogicalQuery) (*Subscription, error) {
	q, err := Resolve(q)
	if err != nil {
		return nil, err
	}
	key := q.Key()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}

	f := m.feeds[key]
	if f != nil && ended(f) {
		delete(m.feeds, key)
		f = nil
	}
	if f == nil {
		f, err = m.startFeed(key, q)
		if err != nil {
			m.mu.Unlock()
			return nil, err
		}
		m.feeds[key] = f
	}
	f.refs++
	refs := f.refs
	m.mu.Unlock()

	s := &Subscription{m: m, f: f, sub: f.hub.Subscribe(), query: q}
	metrics.SubscribersActive.WithLabelValues(q.Name).Inc()
	s.mu.Lock()
	s.stop = context.AfterFunc(ctx, s.Close)
	s.mu.Unlock()

	logging.Debug().
		Str("component", "subscription").
		Str("query", key).
		Int("refs", refs).
		Msg("subscriber attached")
	return s, nil
}

// Snapshot returns the current value of q. It reuses a running feed when one
// exists.
func (m *Multiplexer) Snapshot(ctx context.Context, q models.LogicalQuery) (models.Snapshot, error) {
	s, err := m.Subscribe(ctx, q)
	if err != nil {
		return models.Snapshot{}, err
	}
	defer s.Close()

	select {
	case snap, ok := <-s.C():
		if !ok {
			if ctx.Err() != nil {
				return models.Snapshot{}, fmt.Errorf("%w: %w", models.ErrTimeout, ctx.Err())
			}
			return models.Snapshot{}, fmt.Errorf("observation of %s ended before producing a value", q.Name)
		}
		return snap, nil
	case <-ctx.Done():
		return models.Snapshot{}, fmt.Errorf("%w: %w", models.ErrTimeout, ctx.Err())
	}
}

// Feeds returns the number of running feeds.
func (m *Multiplexer) Feeds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.feeds)
}

// Close stops every feed and waits for them to exit. Open subscriptions see
// their channels close.
func (m *Multiplexer) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
}

// startFeed must be called with m.mu held.
func (m *Multiplexer) startFeed(key string, q models.LogicalQuery) (*feed, error) {
	ctx, cancel := context.WithCancel(m.ctx)
	raw, err := routes[q.Name].open(ctx, m.repo, q)
	if err != nil {
		cancel()
		return nil, err
	}

	f := &feed{
		key:    key,
		query:  q,
		hub:    fanout.New[models.Snapshot](),
		cancel: cancel,
	}
	metrics.FeedsActive.Inc()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer metrics.FeedsActive.Dec()
		defer f.hub.Close()

		var seq uint64
		for data := range raw {
			seq++
			f.hub.Publish(models.Snapshot{
				Query:     q,
				Seq:       seq,
				Timestamp: m.now().UTC(),
				Data:      data,
			})
			metrics.FeedSnapshots.WithLabelValues(q.Name).Inc()
		}

		m.mu.Lock()
		if m.feeds[key] == f {
			delete(m.feeds, key)
		}
		m.mu.Unlock()

		logging.Debug().Str("component", "subscription").Str("query", key).Uint64("snapshots", seq).Msg("feed ended")
	}()

	return f, nil
}

func (m *Multiplexer) release(f *feed) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f.refs--
	if f.refs > 0 {
		return
	}
	f.cancel()
	if m.feeds[f.key] == f {
		delete(m.feeds, f.key)
	}
}

func ended(f *feed) bool {
	select {
	case <-f.hub.Done():
		return true
	default:
		return false
	}
}

// Query returns the normalized query this subscription follows.
func (s *Subscription) Query() models.LogicalQuery {
	return s.query
}

// C yields snapshots, newest wins. It closes when the subscription or its
// feed ends.
func (s *Subscription) C() <-chan models.Snapshot {
	return s.sub.C()
}

// Close detaches from the feed. The feed stops after its last subscriber
// leaves. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		stop := s.stop
		s.mu.Unlock()
		if stop != nil {
			stop()
		}
		s.sub.Close()
		s.m.release(s.f)
		metrics.SubscribersActive.WithLabelValues(s.query.Name).Dec()
	})
}
