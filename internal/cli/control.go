// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/liftsync/internal/admin"
	"github.com/tomtom215/liftsync/internal/discovery"
	"github.com/tomtom215/liftsync/internal/lifecycle"
)

// DiscoverOptions holds flags for the discover command.
type DiscoverOptions struct {
	*RootOptions
	Wait time.Duration
}

// NewDiscoverCommand creates the discover command.
func NewDiscoverCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiscoverOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List LiftSync servers announced on the local network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.Wait)
			defer cancel()
			peers, err := discovery.Lookup(ctx, cfg.Discovery)
			if err != nil {
				return err
			}

			return opts.print(cmd.OutOrStdout(), peers, func(w io.Writer) error {
				if len(peers) == 0 {
					_, err := fmt.Fprintln(w, "no servers found")
					return err
				}
				for _, p := range peers {
					if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", p.Instance, p.BaseURL(), p.Version); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&opts.Wait, "wait", 3*time.Second, "how long to listen for announcements")

	return cmd
}

// LifecycleOptions holds flags for the lifecycle commands.
type LifecycleOptions struct {
	*RootOptions
	Port int
}

// NewLifecycleCommand creates the lifecycle command group.
func NewLifecycleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LifecycleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lifecycle",
		Short: "Turn the local daemon's sync server on or off",
	}

	on := &cobra.Command{
		Use:   "on",
		Short: "Turn sync on and wait until the server listens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return lifecycleAction(cmd, opts, func(ctx context.Context, c *admin.Client) (lifecycle.Status, error) {
				return c.TurnOn(ctx, opts.Port)
			})
		},
	}
	on.Flags().IntVarP(&opts.Port, "port", "p", 0, "sync port (default: the daemon's SERVER_PORT)")

	off := &cobra.Command{
		Use:   "off",
		Short: "Turn sync off and wait until the port is released",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return lifecycleAction(cmd, opts, func(ctx context.Context, c *admin.Client) (lifecycle.Status, error) {
				return c.TurnOff(ctx)
			})
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the sync server state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return lifecycleAction(cmd, opts, func(ctx context.Context, c *admin.Client) (lifecycle.Status, error) {
				return c.Status(ctx)
			})
		},
	}

	cmd.AddCommand(on, off, status)
	return cmd
}

func lifecycleAction(cmd *cobra.Command, opts *LifecycleOptions, action func(context.Context, *admin.Client) (lifecycle.Status, error)) error {
	c, err := admin.NewClient(opts.Admin, opts.Timeout)
	if err != nil {
		return err
	}

	st, err := action(cmd.Context(), c)
	if err != nil {
		// A failed action may still report where the daemon ended up.
		if !st.Since.IsZero() {
			_ = printStatus(opts.RootOptions, cmd.ErrOrStderr(), st)
		}
		return err
	}
	return printStatus(opts.RootOptions, cmd.OutOrStdout(), st)
}

func printStatus(opts *RootOptions, w io.Writer, st lifecycle.Status) error {
	return opts.print(w, st, func(w io.Writer) error {
		line := st.State.String()
		if st.Port != 0 {
			line += fmt.Sprintf(" port=%d", st.Port)
		}
		if st.Addr != "" {
			line += " addr=" + st.Addr
		}
		if !st.Since.IsZero() {
			line += " since=" + st.Since.Format(time.RFC3339)
		}
		if st.Error != "" {
			line += " error=" + fmt.Sprintf("%q", st.Error)
		}
		_, err := fmt.Fprintln(w, line)
		return err
	})
}
