package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dataoneorg/d1logdigest/internal/config"
	"github.com/dataoneorg/d1logdigest/internal/digest"
	"github.com/dataoneorg/d1logdigest/internal/logging"
	"github.com/dataoneorg/d1logdigest/internal/output"
)

func runDigest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	log := logging.New(os.Stderr, cfg.LogLevel, cfg.Debug)

	// --- Cancel on interrupt ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	var progress io.Writer
	if !cfg.NoProgress && !cfg.Debug {
		progress = os.Stderr
	}

	res, err := digest.Run(ctx, digest.Options{
		Regex:       args[0],
		Roots:       cfg.LogDirs,
		OutputDir:   cfg.OutputDir,
		MaxRecord:   cfg.MaxRecord,
		MinRecord:   cfg.MinRecord,
		MaxLines:    cfg.MaxLines,
		MaxPerType:  cfg.MaxPerType,
		Width:       cfg.MaxLineWidth,
		Workers:     cfg.Workers,
		Similar:     cfg.Similar,
		Similarity:  cfg.Similarity,
		JSON:        cfg.JSON,
		MetricsFile: cfg.MetricsFile,
		Progress:    progress,
	}, log)
	if errors.Is(err, context.Canceled) {
		// Interrupted: leave quietly without a digest.
		return nil
	}
	if err != nil {
		return err
	}

	return output.Summary(cmd.OutOrStdout(), res.Report, res.Path)
}
