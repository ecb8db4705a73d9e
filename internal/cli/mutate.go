// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/liftsync/internal/models"
)

// NewUpsertCommand creates the upsert command.
func NewUpsertCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "upsert <lift|variation|set|workout|goal> <json|->",
		Short: "Create or replace one entity",
		Long: `Create or replace one entity. A missing id is generated.

Pass "-" to read the JSON body from stdin.

Example:
  liftctl upsert lift '{"name":"Squat"}'
  liftctl upsert set '{"variationId":"v1","reps":5,"weight":100}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := []byte(args[1])
			if args[1] == "-" {
				var err error
				if body, err = io.ReadAll(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			payload, err := decodePayload(models.EntityType(args[0]), body)
			if err != nil {
				return err
			}
			return mutate(cmd, opts, models.MutationRequest{
				Entity:  models.EntityType(args[0]),
				Op:      models.OpUpsert,
				Payload: payload,
			})
		},
	}
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <entity> <id>",
		Short: "Delete one entity by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, opts, models.MutationRequest{
				Entity: models.EntityType(args[0]),
				Op:     models.OpDelete,
				ID:     args[1],
			})
		},
	}
}

// DeleteAllOptions holds flags for the delete-all command.
type DeleteAllOptions struct {
	*RootOptions
	Parent string
}

// NewDeleteAllCommand creates the delete-all command.
func NewDeleteAllCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeleteAllOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "delete-all <lift|variation|set>",
		Short: "Delete every entity of a type, or every child of --parent",
		Long: `Delete every entity of a type, or every child of --parent.

Bulk deletes are sent once and never retried.

Example:
  liftctl delete-all set --parent v1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := models.MutationRequest{Entity: models.EntityType(args[0]), Op: models.OpDeleteAll}
			if opts.Parent != "" {
				req.Op = models.OpDeleteByParent
				req.ParentID = opts.Parent
			}
			return mutate(cmd, opts.RootOptions, req)
		},
	}

	cmd.Flags().StringVar(&opts.Parent, "parent", "", "parent id (liftId for variations, variationId for sets)")

	return cmd
}

func mutate(cmd *cobra.Command, opts *RootOptions, req models.MutationRequest) error {
	if err := req.Check(); err != nil {
		return err
	}
	c, err := opts.newClient()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()
	res, err := c.Mutate(ctx, req)
	if err != nil {
		return err
	}
	return opts.print(cmd.OutOrStdout(), res, func(w io.Writer) error {
		var err error
		switch res.Op {
		case models.OpUpsert:
			_, err = fmt.Fprintf(w, "%s %s\n", res.Entity, res.ID)
		default:
			_, err = fmt.Fprintf(w, "deleted %d %s\n", res.Deleted, res.Entity)
		}
		return err
	})
}

// decodePayload decodes body into the entity's model so the client can
// fill defaults before sending.
func decodePayload(entity models.EntityType, body []byte) (any, error) {
	var dst any
	switch entity {
	case models.EntityLift:
		dst = &models.Lift{}
	case models.EntityVariation:
		dst = &models.Variation{}
	case models.EntitySet:
		dst = &models.LBSet{}
	case models.EntityWorkout:
		dst = &models.Workout{}
	case models.EntityGoal:
		dst = &models.Goal{}
	default:
		return nil, fmt.Errorf("%w: unknown entity %q", models.ErrBadRequest, entity)
	}

	dec := json.NewDecoder(bytes.NewReader(bytes.TrimSpace(body)))
	if err := dec.Decode(dst); err != nil {
		return nil, fmt.Errorf("%w: %s body: %v", models.ErrBadRequest, entity, err)
	}
	return dst, nil
}
