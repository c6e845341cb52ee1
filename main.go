package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"cryptoetl/internal/cleaner"
	"cryptoetl/internal/config"
	"cryptoetl/internal/fetcher"
	"cryptoetl/internal/logging"
	"cryptoetl/internal/pipeline"
	"cryptoetl/internal/provision"
	"cryptoetl/internal/ratelimit"
	"cryptoetl/internal/tabular"
)

const appName = "cryptoetl"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Fetch a CoinGecko market snapshot and load it into Parquet",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Create context with cancellation for graceful shutdown
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			report, err := run(ctx, cfg)
			if err != nil {
				return err
			}

			fmt.Printf("batch %s: %d rows written to %s\n",
				report.Processed.BatchID, report.Rows, report.OutputPath)
			return nil
		},
	}
	root.AddCommand(newPreviewCmd())
	return root
}

// run wires the stages from cfg and executes one batch.
func run(ctx context.Context, cfg *config.Config) (pipeline.Report, error) {
	logger, closer := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		Dir:        cfg.Paths.Logs,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	defer closer.Close()

	// the HTTP retry hook logs through the default logger
	prev := slog.Default()
	slog.SetDefault(logger)
	defer slog.SetDefault(prev)

	limiter := ratelimit.New()
	limiter.Set(ratelimit.APICoinGecko, cfg.API.RequestsPerMinute, 1)

	client := fetcher.NewHTTPClient(fetcher.ClientOptions{
		Timeout:          cfg.HTTP.Timeout,
		RetryCount:       retryCount(cfg.HTTP.RetryCount),
		RetryWaitTime:    cfg.HTTP.RetryWait,
		RetryMaxWaitTime: cfg.HTTP.RetryMaxWait,
	})
	defer client.Close()

	markets := fetcher.NewMarketFetcher(fetcher.Options{
		Coins:    cfg.API.Crypto,
		Currency: cfg.API.Currency,
		Endpoint: cfg.API.Endpoint,
		Query: fetcher.Query{
			Order:     cfg.API.Order,
			PerPage:   cfg.API.PerPage,
			Page:      cfg.API.Page,
			Sparkline: cfg.API.Sparkline,
		},
		Client:  client,
		Limiter: limiter,
		Logger:  logger,
	})

	session := tabular.NewSession(appName, logger)
	defer session.Close()

	p := pipeline.New(
		provision.New(cfg.Paths.Raw, cfg.Paths.Processed, cfg.Paths.Output, cfg.Paths.Logs, cfg.Paths.Tests).
			WithLogger(logger),
		markets,
		cleaner.New(logger),
		session,
		pipeline.Dirs{Raw: cfg.Paths.Raw, Processed: cfg.Paths.Processed, Output: cfg.Paths.Output},
		logger,
	)

	return p.Run(ctx)
}

// retryCount maps the configured count onto ClientOptions, where zero means
// "use the default" and a negative value disables retries.
func retryCount(n int) int {
	if n == 0 {
		return -1
	}
	return n
}

func newPreviewCmd() *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "preview [batch-id]",
		Short: "Print the first rows of a Parquet output partition (latest when no batch id is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			dir := ""
			if len(args) == 1 {
				dir = filepath.Join(cfg.Paths.Output, args[0])
			} else if dir, err = latestPartition(cfg.Paths.Output); err != nil {
				return err
			}

			session := tabular.NewSession(appName, nil)
			defer session.Close()

			frame, err := session.ReadOutput(dir)
			if err != nil {
				return err
			}
			table, err := frame.Table(rows)
			if err != nil {
				return err
			}

			pterm.DefaultSection.Printfln("%s (%d rows)", dir, frame.Len())
			return pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData(table)).Render()
		},
	}
	cmd.Flags().IntVarP(&rows, "rows", "n", 5, "number of rows to print")
	return cmd
}

var errNoPartitions = errors.New("no output partitions found")

// latestPartition returns the most recently written partition under outputDir.
func latestPartition(outputDir string) (string, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return "", err
	}

	var (
		latest string
		newest int64
	)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); latest == "" || mod > newest {
			latest, newest = e.Name(), mod
		}
	}
	if latest == "" {
		return "", fmt.Errorf("%w in %s", errNoPartitions, outputDir)
	}
	return filepath.Join(outputDir, latest), nil
}
