// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/liftsync/internal/client"
	"github.com/tomtom215/liftsync/internal/models"
)

// NewHealthCommand creates the health command.
func NewHealthCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the sync server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			h, err := c.Health(cmd.Context())
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), h, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s %s (%s)\n", c.BaseURL(), h.Status, h.Timestamp.Format(time.RFC3339))
				return err
			})
		},
	}
}

// NewInfoCommand creates the info command.
func NewInfoCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the server's version, streams and mutation routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
			defer cancel()
			info, err := c.Info(ctx)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), info, func(w io.Writer) error {
				fmt.Fprintf(w, "%s %s\n", info.Name, info.Version)
				fmt.Fprintf(w, "streams:   %s\n", strings.Join(info.Streams, " "))
				_, err := fmt.Fprintf(w, "mutations: %s\n", strings.Join(info.Mutations, ", "))
				return err
			})
		},
	}
}

// NewReadCommand creates the read command.
func NewReadCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "read <query> [key=value ...]",
		Short: "Fetch one snapshot of a query",
		Long: `Fetch one snapshot of a query.

Example:
  liftctl read sets variationId=v1 sort=weight limit=10`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parseQuery(args)
			if err != nil {
				return err
			}
			c, err := opts.newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
			defer cancel()
			snap, err := c.Read(ctx, q)
			if err != nil {
				return err
			}
			return printSnapshot(opts, cmd.OutOrStdout(), snap)
		},
	}
}

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Count int
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <query> [key=value ...]",
		Short: "Print every snapshot of a query as it changes",
		Long: `Print every snapshot of a query as it changes.

The stream reconnects on its own while the server is unreachable. Interrupt
to stop, or pass --count to exit after that many snapshots.

Example:
  liftctl watch lifts`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return watch(cmd.Context(), opts, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().IntVarP(&opts.Count, "count", "n", 0, "exit after this many snapshots (0 = forever)")

	return cmd
}

func watch(ctx context.Context, opts *WatchOptions, args []string, out, errOut io.Writer) error {
	q, err := parseQuery(args)
	if err != nil {
		return err
	}
	c, err := opts.newClient()
	if err != nil {
		return err
	}
	defer c.Close()

	obs, err := c.Observe(ctx, q)
	if err != nil {
		return err
	}
	defer obs.Close()

	seen := 0
	status := client.StatusConnecting
	var lastErr error
	for u := range obs.Updates() {
		lastErr = u.Err
		if u.Status != status {
			status = u.Status
			fmt.Fprintf(errOut, "# %s %s\n", q, status)
		}
		if u.Snapshot != nil && u.Status == client.StatusConnected {
			if err := printSnapshot(opts.RootOptions, out, *u.Snapshot); err != nil {
				return err
			}
			seen++
			if opts.Count > 0 && seen >= opts.Count {
				return nil
			}
		}
		if u.Status == client.StatusDisconnected && u.Err != nil && !models.Transient(u.Err) {
			return u.Err
		}
	}
	// The stream ended on its own: the server rejected it or retry is off.
	if ctx.Err() == nil {
		return lastErr
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}

// parseQuery turns "name k=v k=v" into a query.
func parseQuery(args []string) (models.LogicalQuery, error) {
	params := make(map[string]string, len(args)-1)
	for _, kv := range args[1:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return models.LogicalQuery{}, fmt.Errorf("%w: parameter %q must be key=value", models.ErrBadRequest, kv)
		}
		params[k] = v
	}
	return models.NewQuery(args[0], params), nil
}

func printSnapshot(opts *RootOptions, w io.Writer, snap models.Snapshot) error {
	return opts.print(w, snap, func(w io.Writer) error {
		data := "null"
		if !snap.IsNull() {
			data = string(snap.Data)
		}
		_, err := fmt.Fprintf(w, "%s seq=%d %s\n%s\n", snap.Query, snap.Seq, snap.Timestamp.Format(time.RFC3339), data)
		return err
	})
}
