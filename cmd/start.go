// Package cmd implements the firewatch subcommands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"grimm.is/firewatch/internal/api"
	"grimm.is/firewatch/internal/classify"
	"grimm.is/firewatch/internal/clock"
	"grimm.is/firewatch/internal/config"
	"grimm.is/firewatch/internal/hub"
	"grimm.is/firewatch/internal/logging"
	"grimm.is/firewatch/internal/watcher"
)

// RunStart wires the pipeline and serves until SIGINT/SIGTERM.
func RunStart(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	log := logging.New(logging.Config{Level: parseLevel(cfg.LogLevel)})
	logging.SetDefault(log)

	clf := buildClassifier(cfg, log)
	h := hub.New(log)

	w, err := watcher.New(watcher.Options{
		LogPath:      cfg.LogPath,
		Concurrency:  cfg.Concurrency,
		QueueSize:    cfg.QueueSize,
		PollInterval: cfg.PollInterval,
		Classifier:   clf,
		Hub:          h,
		Logger:       log,
	})
	if err != nil {
		return err
	}

	commands := api.NewCommandHandler(h, w, &clock.RealClock{}, log, 0)
	srv := api.NewServer(api.ServerOptions{
		Addr:     cfg.ListenAddr(),
		Hub:      h,
		Commands: commands,
		Logger:   log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting",
		"log_path", cfg.LogPath,
		"listen", cfg.ListenAddr(),
		"workers", cfg.Concurrency,
		"local_model", cfg.UseLocalModel)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(ctx) })
	g.Go(func() error { return srv.Run(ctx) })

	err = g.Wait()
	log.Info("stopped")
	return err
}

// buildClassifier picks the local pattern matcher or the remote model
// with pattern fallback, per configuration.
func buildClassifier(cfg *config.Config, log *logging.Logger) classify.Classifier {
	if cfg.UseLocalModel {
		return classify.NewPattern()
	}
	remote := classify.NewRemoteModel(cfg.ModelAPIURL, cfg.ModelAPIKey, cfg.MaxRetries, cfg.InitialBackoff)
	return classify.NewModel(remote, remote, log)
}

func parseLevel(s string) logging.Level {
	switch strings.ToLower(s) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}
