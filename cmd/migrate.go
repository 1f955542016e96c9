package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and indexes for the configured storage backend",
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
			if err := st.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to migrate %s store: %w", cfg.StorageDriver, err)
			}
			log.Info("migration complete", "driver", cfg.StorageDriver)
			return nil
		},
	}
}
