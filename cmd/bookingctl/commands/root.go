// Package commands реализует подкоманды bookingctl на cobra.
package commands

import (
	"context"

	"github.com/Freeeeeet/appointment_bot/internal/app"
	"github.com/Freeeeeet/appointment_bot/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewRootCmd создаёт корневую команду со всеми подкомандами
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bookingctl",
		Short: "Appointment bot maintenance tool",
		Long: `bookingctl works with the same configuration and booking store as the bot.

Examples:
  bookingctl list
  bookingctl parse "next friday at 2:30pm"
  bookingctl say 42 "book monday 10am"
  bookingctl sweep --log-only
  bookingctl cancel 42
  bookingctl migrate`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newListCmd(),
		newParseCmd(),
		newSayCmd(),
		newCancelCmd(),
		newSweepCmd(),
		newMigrateCmd(),
	)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logs")
	return rootCmd
}

// loadConfig конфиг и логгер. Без --verbose CLI пишет в лог только предупреждения.
func loadConfig(cmd *cobra.Command, level string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	return cfg, app.NewLogger(cfg.Environment, level), nil
}

// withServices открывает хранилище, выполняет fn и закрывает всё за собой
func withServices(cmd *cobra.Command, level string, fn func(ctx context.Context, svc *app.Services, cfg *config.Config, logger *zap.Logger) error) error {
	cfg, logger, err := loadConfig(cmd, level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()
	svc, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	return fn(ctx, svc, cfg, logger)
}
