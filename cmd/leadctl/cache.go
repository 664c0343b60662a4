package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ignite/leadgen-crm/internal/pkg/distlock"
)

func newCacheCmd(open opener) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the view cache",
	}
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "flush",
		Short: "Drop every cached dashboard view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd.Context(), open, func(d *deps) error {
				if d.flusher == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "View cache is disabled; nothing to flush")
					return nil
				}
				var n int
				err := distlock.WithLock(cmd.Context(), d.lock, func(ctx context.Context) error {
					var err error
					n, err = d.flusher.Flush(ctx)
					return err
				})
				if errors.Is(err, distlock.ErrNotAcquired) {
					return errors.New("another flush is in progress")
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Flushed %d cached views\n", n)
				return nil
			})
		},
	})
	return cacheCmd
}
