package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awslambda "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/spf13/cobra"

	"github.com/christophergentle/instaposter/internal/app"
	lambdapkg "github.com/christophergentle/instaposter/internal/lambda"
	"github.com/christophergentle/instaposter/internal/state"
)

func newHistoryCmd(flags *rootFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recent workflow runs, or one run by id, from the history table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer s.Close()

			if s.History == nil {
				return errors.New("history.table is not configured")
			}

			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			return showHistory(cmd.Context(), cmd.OutOrStdout(), s.History, runID, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of runs to show")
	return cmd
}

type runHistory interface {
	GetRun(ctx context.Context, runID string) (*state.RunRecord, error)
	ListRecent(ctx context.Context, limit int) ([]state.RunRecord, error)
}

func showHistory(ctx context.Context, w io.Writer, h runHistory, runID string, limit int) error {
	if runID != "" {
		rec, err := h.GetRun(ctx, runID)
		if err != nil {
			return err
		}
		return printRun(w, rec)
	}

	records, err := h.ListRecent(ctx, limit)
	if err != nil {
		return err
	}
	return printHistory(w, records)
}

func printHistory(w io.Writer, records []state.RunRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSTATE\tKIND\tPOST\tIMAGE")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04"), runStatus(r), dash(r.Kind), dash(r.PostID), dash(r.ImageURL))
	}
	return tw.Flush()
}

func printRun(w io.Writer, r *state.RunRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Run:\t%s\n", r.RunID)
	fmt.Fprintf(tw, "State:\t%s\n", runStatus(*r))
	fmt.Fprintf(tw, "Kind:\t%s\n", dash(r.Kind))
	fmt.Fprintf(tw, "Reason:\t%s\n", dash(r.Reason))
	fmt.Fprintf(tw, "Image:\t%s\n", dash(r.ImageURL))
	fmt.Fprintf(tw, "Caption:\t%s\n", dash(r.Caption))
	fmt.Fprintf(tw, "Container:\t%s\n", dash(r.ContainerID))
	fmt.Fprintf(tw, "Post:\t%s\n", dash(r.PostID))
	fmt.Fprintf(tw, "Started:\t%s\n", r.StartedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(tw, "Finished:\t%s\n", r.FinishedAt.Local().Format(time.RFC3339))
	return tw.Flush()
}

func runStatus(r state.RunRecord) string {
	status := r.State
	if r.FailedAt != "" {
		status += " @" + r.FailedAt
	}
	if r.DryRun {
		status += " (dry run)"
	}
	return status
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

type lambdaInvoker interface {
	Invoke(ctx context.Context, params *awslambda.InvokeInput, optFns ...func(*awslambda.Options)) (*awslambda.InvokeOutput, error)
}

func newInvokeCmd(flags *rootFlags) *cobra.Command {
	var function string
	cmd := &cobra.Command{
		Use:   "invoke",
		Short: "Trigger the deployed Lambda to run the workflow asynchronously",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, log, closer, err := app.Load(ctx, app.Options{ConfigPath: flags.cfgFile})
			if err != nil {
				return err
			}
			defer closer.Close()

			var opts []func(*awsconfig.LoadOptions) error
			if cfg.AWS.Region != "" {
				opts = append(opts, awsconfig.WithRegion(cfg.AWS.Region))
			}
			awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
			if err != nil {
				return fmt.Errorf("failed to load AWS config: %w", err)
			}

			if err := invokeFunction(ctx, awslambda.NewFromConfig(awsCfg), function, time.Now()); err != nil {
				return err
			}
			log.WithField("function", function).Info("Invoked posting workflow")
			fmt.Fprintf(cmd.OutOrStdout(), "Invoked %s\n", function)
			return nil
		},
	}
	cmd.Flags().StringVar(&function, "function", "instaposter", "Lambda function name")
	return cmd
}

func invokeFunction(ctx context.Context, client lambdaInvoker, function string, now time.Time) error {
	payload, err := json.Marshal(lambdapkg.Event{
		Source: "instaposter.cli",
		Time:   now.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	_, err = client.Invoke(ctx, &awslambda.InvokeInput{
		FunctionName:   aws.String(function),
		Payload:        payload,
		InvocationType: types.InvocationTypeEvent,
	})
	if err != nil {
		return fmt.Errorf("failed to invoke %s: %w", function, err)
	}
	return nil
}
