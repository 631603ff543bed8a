package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"changewatch/internal/config"
	"changewatch/internal/logger"
	"changewatch/internal/report"
	"changewatch/internal/repository/sqlite"
	"changewatch/internal/service/notify"
	"changewatch/internal/service/pipeline"
	"changewatch/internal/service/strategy"
)

type compareOptions struct {
	notify bool
	record bool
}

// runCompare performs one comparison and prints the fixed-format report. Only
// configuration and directory errors are returned.
func runCompare(cmd *cobra.Command, cfg *config.Config, dir string, opts compareOptions) error {
	log, err := logger.New(cfg.LogDirectory, false)
	if err != nil {
		return fmt.Errorf("set up logger: %w", err)
	}
	defer log.Close()

	s, err := strategy.New(cfg, log)
	if err != nil {
		return err
	}
	defer strategy.Close(s)

	var notifier notify.Notifier = notify.Noop{}
	if opts.notify {
		notifier = notify.New(cfg, log)
	}

	out := report.NewReporter(cmd.OutOrStdout())
	result, err := pipeline.New(s, notifier, log).Run(cmd.Context(), dir)
	if err != nil {
		out.Directory(dir)
		log.Error("Comparison in %s failed: %v", dir, err)
		return fmt.Errorf("scan %s: %w", dir, err)
	}
	result.Report(out)

	if opts.record {
		recordResult(cfg, log, result)
	}
	return nil
}

// recordResult stores the result; failures are logged and never change the exit status.
func recordResult(cfg *config.Config, log *logger.Logger, result *pipeline.Result) {
	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Warning("History not recorded: %v", err)
		return
	}
	defer db.Close()

	if _, err := sqlite.NewComparisonRepository(db).Insert(result.Comparison()); err != nil {
		log.Warning("History not recorded: %v", err)
	}
}
