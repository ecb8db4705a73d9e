// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

// Package discovery advertises and finds Sync Servers on the local network
// over mDNS/DNS-SD.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/enbility/zeroconf/v3"
	"github.com/rs/zerolog"

	"github.com/tomtom215/liftsync/internal/config"
	"github.com/tomtom215/liftsync/internal/logging"
)

// TXT record keys.
const (
	txtVersion = "version"
	txtPath    = "path"
)

// Advertiser publishes the local Sync Server.
type Advertiser struct {
	cfg     config.DiscoveryConfig
	version string
	log     zerolog.Logger
}

// NewAdvertiser creates an advertiser for cfg.
func NewAdvertiser(cfg config.DiscoveryConfig, version string) *Advertiser {
	return &Advertiser{
		cfg:     cfg,
		version: version,
		log:     logging.WithComponent("discovery"),
	}
}

// Advertise registers the service on port and keeps it registered until
// ctx is done. The announcement is withdrawn on return.
func (a *Advertiser) Advertise(ctx context.Context, port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("advertise: invalid port %d", port)
	}

	var opts []zeroconf.ServerOption
	if a.cfg.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.cfg.TTL.Seconds())))
	}

	server, err := zeroconf.Register(
		a.cfg.Instance,
		a.cfg.Service,
		a.cfg.Domain,
		port,
		encodeTXT(a.version),
		nil,
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register %s service: %w", a.cfg.Service, err)
	}
	defer server.Shutdown()

	a.log.Info().Str("instance", a.cfg.Instance).Str("service", a.cfg.Service).Int("port", port).Msg("Advertising sync server")
	<-ctx.Done()
	a.log.Info().Str("instance", a.cfg.Instance).Msg("Withdrew sync server advertisement")
	return ctx.Err()
}

// Peer is a Sync Server found on the network.
type Peer struct {
	Instance  string   `json:"instance"`
	Host      string   `json:"host"`
	Port      int      `json:"port"`
	Addresses []string `json:"addresses"`
	Version   string   `json:"version,omitempty"`
}

// BaseURL is the http address of the peer, preferring IPv4.
func (p Peer) BaseURL() string {
	host := strings.TrimSuffix(p.Host, ".")
	for _, addr := range p.Addresses {
		if ip := net.ParseIP(addr); ip != nil && ip.To4() != nil {
			host = addr
			break
		}
	}
	if host == "" && len(p.Addresses) > 0 {
		host = p.Addresses[0]
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(p.Port))
}

// Browse streams peers as they are found. Addresses seen on several
// interfaces are merged into one Peer, which is emitted once. The channel
// closes when ctx is done.
func Browse(ctx context.Context, cfg config.DiscoveryConfig) (<-chan Peer, error) {
	if cfg.Service == "" {
		return nil, errors.New("browse: service type is required")
	}

	out := make(chan Peer)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go func() {
		defer close(out)
		seen := make(map[string]*Peer)
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				p := entryToPeer(entry)
				if existing, found := seen[p.Instance]; found {
					existing.Addresses = mergeAddresses(existing.Addresses, p.Addresses)
					continue
				}
				seen[p.Instance] = &p
				select {
				case out <- p:
				case <-ctx.Done():
					return
				}
			case entry, ok := <-removed:
				if !ok {
					continue
				}
				delete(seen, entry.Instance)
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		if err := zeroconf.Browse(ctx, cfg.Service, cfg.Domain, entries, removed); err != nil {
			logging.Warn().Err(err).Str("service", cfg.Service).Msg("mDNS browse failed")
		}
	}()
	return out, nil
}

// Lookup collects peers until ctx is done.
func Lookup(ctx context.Context, cfg config.DiscoveryConfig) ([]Peer, error) {
	ch, err := Browse(ctx, cfg)
	if err != nil {
		return nil, err
	}
	var peers []Peer
	for p := range ch {
		peers = append(peers, p)
	}
	return peers, nil
}

func encodeTXT(version string) []string {
	txt := []string{txtPath + "=/api"}
	if version != "" {
		txt = append(txt, txtVersion+"="+version)
	}
	return txt
}

func decodeTXT(records []string) map[string]string {
	out := make(map[string]string, len(records))
	for _, r := range records {
		k, v, _ := strings.Cut(r, "=")
		if k != "" {
			out[k] = v
		}
	}
	return out
}

func entryToPeer(entry *zeroconf.ServiceEntry) Peer {
	return newPeer(entry.Instance, entry.HostName, entry.Port, entry.Text, entry.AddrIPv4, entry.AddrIPv6)
}

func newPeer(instance, host string, port int, text []string, v4, v6 []net.IP) Peer {
	addrs := make([]string, 0, len(v4)+len(v6))
	for _, ip := range v4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range v6 {
		addrs = append(addrs, ip.String())
	}
	return Peer{
		Instance:  instance,
		Host:      host,
		Port:      port,
		Addresses: addrs,
		Version:   decodeTXT(text)[txtVersion],
	}
}

// mergeAddresses appends the addresses of next missing from existing.
func mergeAddresses(existing, next []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}
	for _, addr := range next {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}
