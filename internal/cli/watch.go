package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/BuzzLyutic/task-sync/internal/reminder"
)

func newWatchCmd(a *app) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print reminders for tasks that are due soon",
		Long: `Poll the item store and print a reminder for every pending task due
within the next hour or already overdue. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Fail fast when not logged in; the scheduler itself stays quiet.
			if err := a.tasks.Refresh(ctx); err != nil {
				return a.userError(err)
			}

			if !cmd.Flags().Changed("interval") {
				interval = a.cfg.PollInterval
			}

			out := cmd.OutOrStdout()
			s := reminder.New(a.api, reminder.NewTerminalGateway(out, !a.cfg.MuteNotifications),
				reminder.WithInterval(interval),
				reminder.WithLogger(a.logger.Named("reminder")),
			)
			fmt.Fprintf(out, "Watching for reminders every %s (Ctrl+C to stop)\n", interval)

			h := s.Start(ctx)
			if s.Permission() != reminder.PermissionGranted {
				fmt.Fprintln(out, "Notifications are disabled, reminders will not be shown")
			}
			<-ctx.Done()
			h.Stop()
			return nil
		},
	}
	cmd.Flags().DurationVarP(&interval, "interval", "i", reminder.DefaultInterval, "Poll interval")
	return cmd
}
