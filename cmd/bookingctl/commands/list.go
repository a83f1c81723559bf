package commands

import (
	"context"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/Freeeeeet/appointment_bot/internal/app"
	"github.com/Freeeeeet/appointment_bot/internal/config"
	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all booking records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd, "warn", func(ctx context.Context, svc *app.Services, _ *config.Config, _ *zap.Logger) error {
				bookings, err := svc.Store.Load(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(bookings) == 0 {
					fmt.Fprintln(out, "No bookings.")
					return nil
				}

				ids := make([]string, 0, len(bookings))
				for id := range bookings {
					ids = append(ids, id)
				}
				sort.Strings(ids)

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "USER\tSLOT\tEMAIL\tSTATE\tREMINDERS")
				for _, id := range ids {
					b := bookings[id]
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
						id, orDash(b.Time), orDash(b.Email), b.State(), reminderFlags(b))
				}
				return w.Flush()
			})
		},
	}
}

// reminderFlags отправленные напоминания, например "chat24 email1"
func reminderFlags(b *model.Booking) string {
	var out string
	for _, ch := range []model.Channel{model.ChannelChat, model.ChannelEmail} {
		for _, w := range model.LeadWindows {
			if b.ReminderSent(ch, w) {
				if out != "" {
					out += " "
				}
				out += fmt.Sprintf("%s%d", ch, int(w.Duration().Hours()))
			}
		}
	}
	return orDash(out)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
