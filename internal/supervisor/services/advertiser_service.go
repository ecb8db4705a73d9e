// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package services

import (
	"context"
	"fmt"
)

// Advertiser matches *discovery.Advertiser: Advertise blocks until ctx is
// done and withdraws the announcement on return.
type Advertiser interface {
	Advertise(ctx context.Context, port int) error
}

// AdvertiserService announces the Sync Server over mDNS while it is on.
type AdvertiserService struct {
	advertiser Advertiser
	port       int
	name       string
}

// NewAdvertiserService creates the supervised wrapper for advertiser.
func NewAdvertiserService(advertiser Advertiser, port int) *AdvertiserService {
	return &AdvertiserService{
		advertiser: advertiser,
		port:       port,
		name:       fmt.Sprintf("mdns-advertiser:%d", port),
	}
}

// Serve implements suture.Service.
func (a *AdvertiserService) Serve(ctx context.Context) error {
	err := a.advertiser.Advertise(ctx, a.port)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("mdns advertiser failed: %w", err)
	}
	return nil
}

// String implements fmt.Stringer for suture's logs.
func (a *AdvertiserService) String() string {
	return a.name
}
