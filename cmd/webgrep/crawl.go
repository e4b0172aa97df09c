package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/blinkenlichten/webgrep/internal/config"
	"github.com/blinkenlichten/webgrep/internal/crawler"
	"github.com/blinkenlichten/webgrep/internal/fetch"
	"github.com/blinkenlichten/webgrep/internal/log"
	"github.com/blinkenlichten/webgrep/internal/model"
	"github.com/blinkenlichten/webgrep/internal/report"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url...]",
		Short: "Crawl from seed URLs and grep pages for an expression",
		Long: `Crawl fetches each seed URL, greps the page text for the given
expression, and follows the links of every fetched page recursively until
the link budget is exhausted.

Examples:
  # Crawl one site for a word
  webgrep crawl --grep kittens http://example.com/

  # Crawl several seeds concurrently
  webgrep crawl --grep kittens http://example.com/ http://example.org/

  # Bound the crawl and use more workers
  webgrep crawl --grep kittens --max-links 256 --threads 8 http://example.com/

  # Route requests through a SOCKS5 proxy
  webgrep crawl --grep kittens --proxy 127.0.0.1:9050 http://example.com/

  # Write a Markdown report to a file
  webgrep crawl --grep kittens --markdown -o report.md http://example.com/

Configuration file (.webgrep) example:
  grep: kittens
  maxLinks: 256
  threads: 8
  timeout: 45s
  proxy: 127.0.0.1:9050`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().StringP("grep", "g", "",
		"Text expression to search for on every page (RE2 syntax)")
	cmd.Flags().Uint32P("max-links", "l", config.DefaultMaxLinks,
		"Maximum number of child URLs one crawl may spawn in total")
	cmd.Flags().Uint32P("threads", "n", config.DefaultThreads,
		"Worker pool size per crawl")
	cmd.Flags().Uint32("max-nodes", config.DefaultMaxNodes,
		"Maximum number of page nodes one crawl tree may allocate")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().StringP("proxy", "x", "",
		"SOCKS5 proxy address for all requests (e.g., 127.0.0.1:9050)")
	cmd.Flags().BoolP("force", "f", false,
		"Refetch seed pages even when already crawled in this run")

	// Batch crawling flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent crawls when several seeds are given")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .webgrep in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// buildConfig creates a Config from the config file and cobra flags.
// File values override defaults; flags the user actually set override
// the file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If the user explicitly specified a config file path, error when it
	// cannot be loaded. Otherwise a missing file is fine.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.ApplyTo(cfg)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	cfg.Targets = args
	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// applyFlags copies flag values into cfg. Flags that overlap with the
// config file are applied only when changed, so the file keeps its say
// for untouched flags.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("grep") {
		if cfg.GrepExpr, err = flags.GetString("grep"); err != nil {
			return err
		}
	}
	if flags.Changed("max-links") {
		if cfg.MaxLinks, err = flags.GetUint32("max-links"); err != nil {
			return err
		}
	}
	if flags.Changed("threads") {
		if cfg.Threads, err = flags.GetUint32("threads"); err != nil {
			return err
		}
	}
	if flags.Changed("max-nodes") {
		if cfg.MaxNodes, err = flags.GetUint32("max-nodes"); err != nil {
			return err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return err
		}
	}
	if flags.Changed("batch") {
		if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
			return err
		}
	}

	if cfg.Force, err = flags.GetBool("force"); err != nil {
		return err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return err
	}

	return nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// runCrawl executes the crawl.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"targets", cfg.Targets,
		"expression", cfg.GrepExpr,
		"maxLinks", cfg.MaxLinks,
		"threads", cfg.Threads,
		"batchSize", cfg.BatchSize,
	)

	clientFactory := func() (*fetch.Client, error) {
		opts := []fetch.Option{
			fetch.WithTimeout(cfg.Timeout),
			fetch.WithUserAgent(cfg.UserAgent),
			fetch.WithMaxBodySize(cfg.MaxBodySize),
		}
		if cfg.ProxyAddress != "" {
			opts = append(opts, fetch.WithProxy(cfg.ProxyAddress))
		}
		return fetch.New(opts...)
	}
	crawlerFactory := func() *crawler.Crawler {
		return crawler.New(
			crawler.WithClientFactory(clientFactory),
			crawler.WithMaxNodes(cfg.MaxNodes),
			crawler.WithContext(ctx),
			crawler.WithLogger(logger),
		)
	}

	output, closeOutput, err := openReportOutput(cfg)
	if err != nil {
		return err
	}
	defer closeOutput()

	if len(cfg.Targets) > 1 && cfg.BatchSize > 1 {
		return runBatchCrawl(ctx, cfg, crawlerFactory, output, logger)
	}
	return runSequentialCrawl(ctx, cfg, crawlerFactory, output, logger)
}

// runSequentialCrawl crawls targets one at a time.
func runSequentialCrawl(ctx context.Context, cfg *config.Config, factory func() *crawler.Crawler, output io.Writer, logger *slog.Logger) error {
	for _, target := range cfg.Targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		c := factory()

		fmt.Fprintf(os.Stderr, "Crawling %s...\n", target)
		startTime := time.Now()

		if !c.Start(target, cfg.GrepExpr, cfg.MaxLinks, cfg.Threads, cfg.Force) {
			logger.Error("crawl failed to start", "target", target)
			fmt.Fprintf(os.Stderr, "Crawl error for %s: could not start\n", target)
			continue
		}
		if err := c.WaitIdle(ctx); err != nil {
			c.Shutdown()
			return err
		}

		crawlReport := model.NewCrawlReport(c.Root(), cfg.GrepExpr, c.LinksCount())
		c.Shutdown()

		elapsed := time.Since(startTime)
		fmt.Fprintf(os.Stderr, "Crawl completed in %s\n\n", elapsed.Round(time.Millisecond))

		if err := outputReport(cfg, crawlReport, output); err != nil {
			logger.Error("report failed", "target", target, "error", err)
		}
	}

	return nil
}

// runBatchCrawl crawls multiple seeds concurrently using BatchRunner.
func runBatchCrawl(ctx context.Context, cfg *config.Config, factory func() *crawler.Crawler, output io.Writer, logger *slog.Logger) error {
	fmt.Fprintf(os.Stderr, "Starting batch crawl of %d seeds (concurrency: %d)...\n\n",
		len(cfg.Targets), cfg.BatchSize)

	startTime := time.Now()

	runner := crawler.NewBatchRunner(factory,
		crawler.WithBatchConcurrency(cfg.BatchSize),
		crawler.WithBatchLogger(logger),
	)

	results, err := runner.Run(ctx, cfg.Targets, cfg.GrepExpr, cfg.MaxLinks, cfg.Threads)

	for i, res := range results {
		if !res.Started {
			logger.Error("crawl failed to start", "target", res.URL)
			fmt.Fprintf(os.Stderr, "[%d/%d] Crawl error for %s: could not start\n",
				i+1, len(results), res.URL)
			continue
		}

		fmt.Fprintf(os.Stderr, "[%d/%d] Crawl completed: %s\n", i+1, len(results), res.URL)

		crawlReport := model.NewCrawlReport(res.Root, cfg.GrepExpr, res.Links)
		if werr := outputReport(cfg, crawlReport, output); werr != nil {
			logger.Error("report failed", "target", res.URL, "error", werr)
		}
	}

	elapsed := time.Since(startTime)
	fmt.Fprintf(os.Stderr, "\nBatch crawl completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}

// openReportOutput returns the report destination and a close function.
// All reports of one run go to the same destination.
func openReportOutput(cfg *config.Config) (io.Writer, func(), error) {
	if cfg.ReportFile == "" {
		return os.Stdout, func() {}, nil
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports may quote page content; keep them owner-readable only.
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// outputReport writes one crawl report in the requested format.
func outputReport(cfg *config.Config, crawlReport *model.CrawlReport, output io.Writer) error {
	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	if _, err := w.Write(crawlReport); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
