// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

// Package cli implements liftctl, the command line companion of the daemon:
// reads, live watches and mutations against a Sync Server, mDNS discovery,
// and lifecycle control through the loopback control plane.
package cli

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/liftsync/internal/client"
	"github.com/tomtom215/liftsync/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Server  string
	Admin   string
	Format  string // "json" | "text"
	Timeout time.Duration
	Verbose bool

	// loadConfig is replaced in tests.
	loadConfig func() (*config.Config, error)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the liftctl command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{loadConfig: config.Load})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "liftctl",
		Short: "LiftSync command line client",
		Long:  "Read, watch and change lift-logging data on a LiftSync server, and control the local daemon.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultAdmin := "http://127.0.0.1:" + strconv.Itoa(config.Default().Admin.Port)
	cmd.PersistentFlags().StringVarP(&opts.Server, "server", "s", "", "sync server base URL (default from CLIENT_BASE_URL)")
	cmd.PersistentFlags().StringVar(&opts.Admin, "admin", defaultAdmin, "daemon control plane URL")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "overall timeout for one-shot commands")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log client activity to stderr")

	cmd.AddCommand(NewHealthCommand(opts))
	cmd.AddCommand(NewInfoCommand(opts))
	cmd.AddCommand(NewReadCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewUpsertCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewDeleteAllCommand(opts))
	cmd.AddCommand(NewDiscoverCommand(opts))
	cmd.AddCommand(NewLifecycleCommand(opts))

	return cmd
}

func (o *RootOptions) config() (*config.Config, error) {
	load := o.loadConfig
	if load == nil {
		load = config.Load
	}
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if o.Server != "" {
		cfg.Client.BaseURL = o.Server
	}
	if o.Verbose {
		cfg.Client.EnableLogging = true
	}
	return cfg, nil
}

// newClient builds a sync client from configuration and flags.
func (o *RootOptions) newClient() (*client.Client, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	return client.New(cfg.Client)
}

// print writes v as indented JSON in json format, or calls text otherwise.
func (o *RootOptions) print(w io.Writer, v any, text func(io.Writer) error) error {
	if o.Format == "json" || text == nil {
		body, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(body))
		return err
	}
	return text(w)
}
