package commands

import (
	"fmt"

	"github.com/Freeeeeet/appointment_bot/internal/app"
	"github.com/Freeeeeet/appointment_bot/internal/config"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations (postgres backend)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd, "info")
			if err != nil {
				return err
			}
			defer logger.Sync()

			if cfg.StoreBackend != config.BackendPostgres {
				return fmt.Errorf("migrate needs STORE_BACKEND=%s, got %q", config.BackendPostgres, cfg.StoreBackend)
			}

			pool, err := app.OpenPool(cmd.Context(), cfg.DBDSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator, err := app.NewMigrator(pool, logger)
			if err != nil {
				return err
			}
			defer migrator.Close()

			if err := migrator.Run(cmd.Context()); err != nil {
				return err
			}
			version, err := migrator.Version(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database at migration version %d.\n", version)
			return nil
		},
	}
}
