package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adfharrison1/go-docpipe/pkg/accessor"
	"github.com/adfharrison1/go-docpipe/pkg/seeder"
)

func newSeedCmd() *cobra.Command {
	var sample int64
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the users, teams and projects collections with sample data",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx, cfg, cfg.Mongo.Database, logger)
			if err != nil {
				return err
			}
			defer closeStore(store)

			s := seeder.New(accessor.New(store, accessor.WithLogger(logger)), logger)
			if _, err := s.SeedAll(ctx); err != nil {
				return err
			}

			summary, err := s.Summary(ctx)
			if err != nil {
				return err
			}
			summary.Print(os.Stdout)

			if sample <= 0 {
				return nil
			}
			for _, coll := range seeder.Collections {
				items, err := s.Sample(ctx, coll, sample)
				if err != nil {
					return err
				}
				fmt.Printf("\n=== %s (first %d) ===\n", coll, sample)
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(items); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&sample, "sample", 0, "print this many items of each seeded collection")
	return cmd
}
