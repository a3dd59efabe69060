package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/christophergentle/instaposter/internal/app"
	"github.com/christophergentle/instaposter/internal/scheduler"
)

// ErrNotReady is returned when the startup self-check reports any issue.
var ErrNotReady = errors.New("configuration check failed")

func newRunCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Check configuration, then post once a day until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, flags)
			if err != nil {
				return err
			}
			defer s.Close()

			report := s.SelfCheck()
			app.LogReport(s.Log, report)
			if !report.Ready() {
				return ErrNotReady
			}

			sched, err := scheduler.New(s.Config.Schedule, func(ctx context.Context) {
				s.Workflow.Run(ctx)
			}, s.Log)
			if err != nil {
				return err
			}

			s.Log.WithField("time", s.Config.Schedule.Time).Info("Scheduled daily post")
			return sched.Run(ctx)
		},
	}
}

func newOnceCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run the posting workflow one time",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer s.Close()

			out := s.Workflow.Run(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "run %s: %s\n", out.RunID, out.State)
			if !out.Succeeded() {
				return fmt.Errorf("workflow failed at %s (%s): %s", out.FailedAt, out.Kind, out.Reason)
			}
			if out.Publish != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "container %s, post %s\n", out.Publish.ContainerID, out.Publish.PostID)
			}
			return nil
		},
	}
}
