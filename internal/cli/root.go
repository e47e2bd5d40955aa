// Package cli contains the redditsentiment command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Koshroy/redditsentiment/internal/config"
	"github.com/Koshroy/redditsentiment/internal/logger"
	"github.com/Koshroy/redditsentiment/internal/report"
	"github.com/Koshroy/redditsentiment/internal/sentiment"
)

// ErrNoSubmissions is returned when every URL on the command line failed.
var ErrNoSubmissions = errors.New("no submission could be analyzed")

var version = "dev"

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
}

type rootOptions struct {
	cfgFile string
	verbose bool
}

// NewRootCmd builds the command tree. Each call returns fresh flag state.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "redditsentiment [flags] URL [URL...]",
		Short: "Score the sentiment of Reddit submissions and their comments",
		Long: `redditsentiment fetches each Reddit submission, scores the polarity of its
title and body and of its first top-level comments, and writes one CSV row
per submission.

URLs that cannot be fetched or scored are logged and skipped.

Example usage:
  redditsentiment https://www.reddit.com/r/golang/comments/abc123/title/
  redditsentiment -o golang.csv --format table https://redd.it/abc123 https://redd.it/def456
  redditsentiment --scorer openai https://redd.it/abc123`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is .redditsentiment.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	flags := cmd.Flags()
	flags.StringP("output", "o", report.DefaultOutputPath, "CSV file to write")
	flags.String("color", "auto", "color output: auto, always, never")
	flags.String("format", "blocks", "console output: blocks, table")
	flags.String("scorer", "vader", "polarity backend: vader, openai")
	flags.Duration("timeout", 30*time.Second, "HTTP timeout per request")

	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command until it finishes or the process is
// interrupted. An interrupt stops processing; the URLs not yet handled are
// reported as failed.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

func run(cmd *cobra.Command, opts *rootOptions, urls []string) error {
	cfg, err := config.Load(opts.cfgFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := cfg.Logging.Level
	if opts.verbose {
		level = "debug"
	}
	log := logger.New(cmd.ErrOrStderr(), level, cfg.Logging.Format)

	mode, err := report.ParseColorMode(cfg.Output.Color)
	if err != nil {
		return err
	}

	fetcher, err := newFetcher(cfg, log)
	if err != nil {
		return fmt.Errorf("creating reddit client: %w", err)
	}
	scorer, err := newScorer(cfg)
	if err != nil {
		return fmt.Errorf("creating scorer: %w", err)
	}

	log.Debug("configuration loaded",
		"urls", len(urls),
		"scorer", cfg.Scorer.Backend,
		"output", cfg.Output.Path,
	)

	aggregator := sentiment.NewAggregator(fetcher, scorer, sentiment.WithLogger(log))
	results := aggregator.Process(cmd.Context(), urls)
	records := sentiment.Records(results)
	summary := sentiment.Summarize(results)

	if err := report.WriteCSVFile(cfg.Output.Path, records); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}

	out := cmd.OutOrStdout()
	printer := report.NewPrinter(out, report.ResolveColors(mode, cfg.Output.Colors))
	if cfg.Output.Format == "table" {
		if err := report.RenderTable(out, records); err != nil {
			return err
		}
	} else {
		printer.PrintRecords(records)
	}
	printer.PrintSummary(summary, cfg.Output.Path)

	log.Info("analysis finished",
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
	)

	if summary.Succeeded == 0 {
		return ErrNoSubmissions
	}
	return nil
}
