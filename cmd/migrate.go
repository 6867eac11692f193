package cmd

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create tables and indexes if they do not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, logger, store, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		defer store.Pool.Close()

		if err := ensureSchemas(ctx, cfg, store); err != nil {
			return err
		}
		logger.Info("Schema is up to date")
		return nil
	},
}
