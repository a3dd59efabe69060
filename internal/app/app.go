// Package app builds every adapter once at startup and hands the same
// instances to the workflow, the self-check and the CLI commands.
package app

import (
	"context"
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/christophergentle/instaposter/internal/analyzer"
	"github.com/christophergentle/instaposter/internal/caption"
	"github.com/christophergentle/instaposter/internal/client"
	"github.com/christophergentle/instaposter/internal/config"
	"github.com/christophergentle/instaposter/internal/errs"
	"github.com/christophergentle/instaposter/internal/images"
	"github.com/christophergentle/instaposter/internal/logging"
	"github.com/christophergentle/instaposter/internal/publisher"
	"github.com/christophergentle/instaposter/internal/selfcheck"
	"github.com/christophergentle/instaposter/internal/state"
	"github.com/christophergentle/instaposter/internal/workflow"
)

type Options struct {
	ConfigPath string
	// DryRun forces dry-run mode regardless of the config document.
	DryRun bool
	// ConsoleOnly skips the log file, for read-only environments.
	ConsoleOnly bool
}

// Load reads .env files, the config document and the optional SSM overlay,
// and builds the logger described by the result. The returned closer
// releases the log file.
func Load(ctx context.Context, opts Options) (*config.Config, *logrus.Logger, io.Closer, error) {
	config.LoadEnv(logging.NewLogger(config.GetEnv("LOG_LEVEL", "info")))

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if opts.DryRun {
		cfg.DryRun = true
	}
	if opts.ConsoleOnly {
		cfg.Logging.File = ""
	}

	log, closer := logging.NewLoggerWithFile(cfg.Logging.Level, cfg.Logging.File)
	if cfg.Source == "" {
		log.Warnf("Config file %s not found, continuing with environment settings", configPathOrDefault(opts.ConfigPath))
	}

	if cfg.AWS.SSMPrefix != "" {
		overlaySSM(ctx, cfg, log)
	}

	return cfg, log, closer, nil
}

func overlaySSM(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) {
	loader, err := config.NewSSMConfigLoader(ctx, cfg.AWS.SSMPrefix, cfg.AWS.Region)
	if err != nil {
		log.WithError(err).Warn("SSM config loader unavailable")
		return
	}

	if err := loader.Overlay(ctx, cfg); err != nil {
		var cfgErr *config.ConfigError
		if errors.As(err, &cfgErr) && len(cfgErr.Details) > 0 {
			log.WithField("invalid", cfgErr.Details).Warn(cfgErr.Message)
			return
		}
		log.WithError(err).Warn("Failed to load credentials from SSM")
		return
	}
	log.WithField("prefix", cfg.AWS.SSMPrefix).Info("Loaded credentials from SSM")
}

func configPathOrDefault(path string) string {
	if path == "" {
		return config.DefaultPath
	}
	return path
}

type App struct {
	Config    *config.Config
	Log       *logrus.Logger
	Images    *images.Source
	Captions  *caption.Generator
	Publisher *publisher.InstagramPublisher
	Mirror    *client.BlueskyClient
	History   *state.StateManager
	Workflow  *workflow.Workflow
}

// New constructs the adapters. An adapter that cannot be built is left in
// its fallback mode and reported by SelfCheck rather than failing here.
func New(ctx context.Context, cfg *config.Config, log *logrus.Logger) *App {
	a := &App{Config: cfg, Log: log}

	store, err := images.OpenStore(ctx, cfg.Storage)
	if err != nil {
		log.WithError(err).WithField("kind", errs.KindOf(err)).Warn("Image store unavailable")
	}
	a.Images = images.NewSource(store, cfg.Images, log)

	model, err := caption.NewModel(ctx, cfg.Caption, cfg.HTTP.Timeout)
	if err != nil {
		log.WithError(err).WithField("kind", errs.KindOf(err)).Warn("Caption model unavailable")
	}
	a.Captions = caption.NewGenerator(model, analyzer.New(), cfg.Caption.MinSentiment, log)

	a.Publisher = publisher.New(cfg.Instagram, cfg.HTTP.Timeout, log)

	deps := workflow.Deps{
		Images:    a.Images,
		Captions:  a.Captions,
		Publisher: a.Publisher,
		DryRun:    cfg.DryRun,
		Log:       log,
	}

	if config.IsSet(cfg.Bluesky.Handle) && config.IsSet(cfg.Bluesky.AppPassword) {
		a.Mirror = client.New(cfg.Bluesky.Host, cfg.Bluesky.Handle, cfg.Bluesky.AppPassword, log)
		deps.Mirror = a.Mirror
	}

	if cfg.History.Table != "" {
		history, err := state.NewStateManager(ctx, cfg.History.Table, cfg.AWS.Region, cfg.History.TTLDays)
		if err != nil {
			log.WithError(err).Warn("Run history unavailable")
		} else {
			a.History = history
			deps.History = history
		}
	}

	a.Workflow = workflow.New(deps)
	return a
}

// SelfCheck inspects the constructed adapters without any network calls.
func (a *App) SelfCheck() selfcheck.Report {
	checker := selfcheck.New()
	checker.AddCheck("config", selfcheck.ConfigFileCheck(a.Config.Source))
	checker.AddCheck("images", selfcheck.ImageSourceCheck(a.Images))
	checker.AddCheck("caption", selfcheck.CaptionCheck(a.Captions))
	checker.AddCheck("instagram", selfcheck.PublisherCheck(a.Publisher))
	return checker.Run()
}

// LogReport writes a self-check report, one line per issue.
func LogReport(log logrus.FieldLogger, report selfcheck.Report) {
	entry := log.WithField("status", report.Status)
	if len(report.Issues) == 0 {
		entry.Info("Configuration check passed")
		return
	}
	for _, issue := range report.Issues {
		entry.Error(issue)
	}
}

func (a *App) Close() error {
	return errors.Join(a.Images.Close(), a.Captions.Close())
}
