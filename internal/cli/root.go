// Package cli holds the cobra commands behind the instaposter binary.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/christophergentle/instaposter/internal/app"
	"github.com/christophergentle/instaposter/internal/config"
)

type rootFlags struct {
	cfgFile string
	dryRun  bool
}

// NewRootCmd returns the root command for the instaposter CLI
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "instaposter",
		Short:         "Daily Instagram poster",
		Long:          "instaposter picks an image from a bucket, captions it with Gemini and publishes it to Instagram once a day.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.cfgFile, "config", config.DefaultPath, "config file")
	rootCmd.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "generate captions but never publish")

	rootCmd.AddCommand(newRunCmd(flags))
	rootCmd.AddCommand(newOnceCmd(flags))
	rootCmd.AddCommand(newCheckCmd(flags))
	rootCmd.AddCommand(newImagesCmd(flags))
	rootCmd.AddCommand(newUploadCmd(flags))
	rootCmd.AddCommand(newDownloadCmd(flags))
	rootCmd.AddCommand(newHistoryCmd(flags))
	rootCmd.AddCommand(newInvokeCmd(flags))

	return rootCmd
}

// session is a loaded configuration plus the constructed adapters.
type session struct {
	*app.App
	logCloser io.Closer
}

func (s *session) Close() {
	_ = s.App.Close()
	_ = s.logCloser.Close()
}

func openSession(ctx context.Context, flags *rootFlags) (*session, error) {
	cfg, log, closer, err := app.Load(ctx, app.Options{
		ConfigPath: flags.cfgFile,
		DryRun:     flags.dryRun,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return &session{App: app.New(ctx, cfg, log), logCloser: closer}, nil
}
