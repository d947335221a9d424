package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cptspacemanspiff/gnome-power-tracker/internal/logging"
	"github.com/cptspacemanspiff/gnome-power-tracker/internal/scheduler"
)

func NewPollCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Print the panel string once, or on every refresh with --watch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if !watch {
				fmt.Fprintln(out, a.tracker.RunPoll())
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s := scheduler.New(a.tracker, func(text string) {
				fmt.Fprintln(out, text)
			}, nil, a.logger.With("topic", logging.TopicSchedule))
			s.Run(ctx)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep polling at the configured refresh interval")
	return cmd
}
