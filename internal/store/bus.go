// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package store

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/liftsync/internal/logging"
	"github.com/tomtom215/liftsync/internal/metrics"
)

const topicPrefix = "liftsync.store."

// Change describes a committed write. Observers only use it as a signal to
// re-read; the payload is informational.
type Change struct {
	Table string   `json:"table"`
	Op    string   `json:"op"`
	IDs   []string `json:"ids,omitempty"`
}

// ChangeBus is the in-process change feed, one watermill topic per table.
type ChangeBus struct {
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter
}

// NewChangeBus creates a non-persistent bus. A nil logger logs through zerolog.
func NewChangeBus(logger watermill.LoggerAdapter) *ChangeBus {
	if logger == nil {
		logger = watermill.NewSlogLogger(logging.NewComponentSlogLogger("store-bus"))
	}
	return &ChangeBus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, logger),
		logger: logger,
	}
}

// Publish announces a change. Subscribers that joined later do not see it.
func (b *ChangeBus) Publish(c Change) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("op", c.Op)

	if err := b.pubsub.Publish(topicPrefix+c.Table, msg); err != nil {
		return fmt.Errorf("publish %s change: %w", c.Table, err)
	}
	metrics.StoreChanges.WithLabelValues(c.Table).Inc()
	return nil
}

// Subscribe returns the change messages of table until ctx is done.
// Callers must Ack every message.
func (b *ChangeBus) Subscribe(ctx context.Context, table string) (<-chan *message.Message, error) {
	msgs, err := b.pubsub.Subscribe(ctx, topicPrefix+table)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", table, err)
	}
	return msgs, nil
}

// Close closes every subscription channel.
func (b *ChangeBus) Close() error {
	return b.pubsub.Close()
}
