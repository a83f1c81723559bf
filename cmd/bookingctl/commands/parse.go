package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/appointment_bot/internal/app"
	"github.com/Freeeeeet/appointment_bot/internal/intent"
	"github.com/Freeeeeet/appointment_bot/internal/slot"
	"github.com/spf13/cobra"
)

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <text>",
		Short: "Show how a message is classified and which slot it resolves to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd, "warn")
			if err != nil {
				return err
			}
			defer logger.Sync()

			parser, err := app.NewParser(cfg, logger)
			if err != nil {
				return err
			}

			text := strings.Join(args, " ")
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "intent: %s\n", intent.Classify(text))

			at, ok := parser.Resolve(cmd.Context(), text)
			if !ok {
				fmt.Fprintln(out, "slot:   -")
				return nil
			}
			fmt.Fprintf(out, "slot:   %s\n", slot.FromTime(at))
			fmt.Fprintf(out, "at:     %s\n", at.Format(time.RFC1123))
			return nil
		},
	}
}
