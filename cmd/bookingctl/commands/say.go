package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/appointment_bot/internal/app"
	"github.com/Freeeeeet/appointment_bot/internal/config"
	"github.com/Freeeeeet/appointment_bot/internal/controller/handlers"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "say <user_id> <text>",
		Short: "Send a message through the conversation as the given user and print the reply",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, "warn", func(ctx context.Context, svc *app.Services, _ *config.Config, _ *zap.Logger) error {
				res := svc.Conversation.HandleMessage(ctx, args[0], strings.Join(args[1:], " "))
				text, _ := handlers.Render(res)
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			})
		},
	}
}
