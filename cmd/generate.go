package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"grimm.is/firewatch/internal/gen"
	"grimm.is/firewatch/internal/logging"
)

// GenerateOptions control the synthetic log writer.
type GenerateOptions struct {
	Path     string
	Count    int
	MinDelay time.Duration
	MaxDelay time.Duration
	Seed     int64
}

// RunGenerate appends synthetic traffic lines to the log file. With a
// zero count it runs until interrupted, which is handy for feeding a
// live watcher during demos.
func RunGenerate(opts GenerateOptions) error {
	f, err := os.OpenFile(opts.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", opts.Path, err)
	}
	defer f.Close()

	log := logging.Default().WithComponent("gen")
	log.Info("generating", "path", opts.Path, "count", opts.Count)

	g := gen.New(gen.Options{
		Count:    opts.Count,
		MinDelay: opts.MinDelay,
		MaxDelay: opts.MaxDelay,
		Seed:     opts.Seed,
		Logger:   logging.Default(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = g.Run(ctx, f)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
