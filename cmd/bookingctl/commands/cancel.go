package commands

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/appointment_bot/internal/app"
	"github.com/Freeeeeet/appointment_bot/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <user_id>",
		Short: "Cancel a user's appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, "warn", func(ctx context.Context, svc *app.Services, _ *config.Config, _ *zap.Logger) error {
				previous, err := svc.Bookings.Cancel(ctx, args[0])
				if err != nil {
					return err
				}
				if previous == "" {
					fmt.Fprintf(cmd.OutOrStdout(), "User %s has no appointment.\n", args[0])
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cancelled %s for user %s.\n", previous, args[0])
				return nil
			})
		},
	}
}
