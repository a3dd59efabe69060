package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/christophergentle/instaposter/internal/selfcheck"
)

func newCheckCmd(flags *rootFlags) *cobra.Command {
	var live bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report missing or placeholder configuration",
		Long:  "Report missing or placeholder configuration and exit non-zero if any issue is found. With --live, also list bucket images and generate a sample caption. Nothing is ever posted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, flags)
			if err != nil {
				return err
			}
			defer s.Close()

			report := s.SelfCheck()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration: %s\n", report.Status)
			for _, name := range []string{"config", "images", "caption", "instagram"} {
				r, ok := report.Checks[name]
				if !ok {
					continue
				}
				mark := "✓"
				switch r.Status {
				case selfcheck.StatusDegraded:
					mark = "!"
				case selfcheck.StatusUnhealthy:
					mark = "✗"
				}
				fmt.Fprintf(out, " %s %-10s %s\n", mark, name+":", r.Message)
			}

			if name := s.Captions.ModelName(); name != "" {
				fmt.Fprintf(out, "\nCaption model: %s\n", name)
			}

			if live {
				urls := s.Images.ListImages(ctx)
				fmt.Fprintf(out, "\nImages available: %d\n", len(urls))
				if len(urls) > 0 {
					fmt.Fprintf(out, "First image: %s\n", urls[0])
					fmt.Fprintf(out, "Sample caption: %s\n", s.Captions.GenerateCaption(ctx, urls[0]))
				}
			}

			if !report.Ready() {
				return ErrNotReady
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&live, "live", false, "also call the image store and caption model")
	return cmd
}
