package commands

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/appointment_bot/internal/app"
	"github.com/Freeeeeet/appointment_bot/internal/config"
	"github.com/Freeeeeet/appointment_bot/internal/notify"
	"github.com/go-telegram/bot"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one reminder pass now",
		Long: `Runs a single reminder pass, the same one the bot runs on its schedule.
Sent reminders are recorded, so the bot will not send them again.

With --log-only reminders are written to the log instead of Telegram and email,
and nothing is recorded, so the next real pass still sends them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logOnly, _ := cmd.Flags().GetBool("log-only")

			return withServices(cmd, "info", func(ctx context.Context, svc *app.Services, cfg *config.Config, logger *zap.Logger) error {
				chat, email, err := senders(cfg, logger, logOnly)
				if err != nil {
					return err
				}

				reminders := svc.Reminders(chat, email)
				if logOnly {
					reminders = reminders.WithoutMarking()
				}

				report, err := reminders.Sweep(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "checked=%d due=%d sent=%d failed=%d skipped=%d\n",
					report.Checked, report.Due, report.Sent, report.Failed, report.Skipped)
				return nil
			})
		},
	}

	cmd.Flags().Bool("log-only", false, "write reminders to the log without sending or recording them")
	return cmd
}

func senders(cfg *config.Config, logger *zap.Logger, logOnly bool) (notify.ChatSender, notify.EmailSender, error) {
	if logOnly {
		s := notify.NewLogSender(logger)
		return s, s, nil
	}

	if err := cfg.RequireTelegram(); err != nil {
		return nil, nil, fmt.Errorf("%w (use --log-only to sweep without Telegram)", err)
	}
	b, err := bot.New(cfg.TelegramToken)
	if err != nil {
		return nil, nil, fmt.Errorf("create telegram client: %w", err)
	}
	return notify.NewTelegramSender(b), app.EmailSender(cfg), nil
}
