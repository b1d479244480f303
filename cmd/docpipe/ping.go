package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the configured store is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx, cfg, cfg.Mongo.Database, logger)
			if err != nil {
				return err
			}
			defer closeStore(store)

			if err := store.Ping(ctx); err != nil {
				return err
			}
			fmt.Printf("%s store is reachable\n", cfg.StoreDriver)
			return nil
		},
	}
}
