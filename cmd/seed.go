package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/storage"
)

func newSeedCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert the default achievements and store badges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			st, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer closeStore(st, log)

			ctx, cancel := context.WithTimeout(cmd.Context(), connectTimeout)
			defer cancel()

			if migrate {
				if err := st.Migrate(ctx); err != nil {
					return fmt.Errorf("failed to migrate before seeding: %w", err)
				}
			}
			if err := storage.Seed(ctx, st); err != nil {
				return err
			}
			log.Info("catalog seeded", "driver", cfg.StorageDriver)
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "Run migrations before seeding")
	return cmd
}
