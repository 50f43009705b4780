// Package export provides the export command, the main operation of esdrain.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/esdrain/esdrain/internal/config"
	"github.com/esdrain/esdrain/internal/esclient"
	"github.com/esdrain/esdrain/internal/export"
	"github.com/esdrain/esdrain/internal/monitor"
	"github.com/esdrain/esdrain/internal/scroll"
)

var (
	flagIndex       string
	flagQuery       string
	flagQueryFile   string
	flagBatchSize   int
	flagMaxRetries  int
	flagRetryDelay  time.Duration
	flagScroll      time.Duration
	flagTimeout     time.Duration
	flagOutput      string
	flagFormat      string
	flagAddresses   []string
	flagUsername    string
	flagMonitorAddr string
)

// ExportCmd drains all documents matching a query from an index.
var ExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all documents matching a query from an index",
	Long: "Export all documents matching a query from an index.\n\n" +
		"Opens a scroll cursor over the search backend and retrieves the full " +
		"result set in bounded-size batches, writing each document to the output. " +
		"Transient continuation failures are retried up to the configured budget " +
		"without losing the cursor; the cursor is released when the export " +
		"finishes or is abandoned. Flags override config file values.",
	Example: `  # Export a whole index to stdout as NDJSON
  esdrain export --index logs-2026.08

  # Export matching documents to a file
  esdrain export --index products --query '{"query":{"term":{"in_stock":true}}}' --output products.ndjson

  # Export with a larger batch size and a retry budget of 5
  esdrain export --index logs-2026.08 --batch-size 5000 --max-retries 5`,
	PreRunE: validateExport,
	RunE:    runExport,
}

func init() {
	ExportCmd.Flags().StringVar(&flagIndex, "index", "", "Index to export (required unless set in config)")
	ExportCmd.Flags().StringVar(&flagQuery, "query", "", "Raw query body (JSON)")
	ExportCmd.Flags().StringVar(&flagQueryFile, "query-file", "", "Read the query body from a file")
	ExportCmd.Flags().IntVar(&flagBatchSize, "batch-size", 0, "Documents per batch")
	ExportCmd.Flags().IntVar(&flagMaxRetries, "max-retries", 0, "Continuation retry budget")
	ExportCmd.Flags().DurationVar(&flagRetryDelay, "retry-delay", 0, "Delay between continuation retries (default immediate)")
	ExportCmd.Flags().DurationVar(&flagScroll, "scroll", 0, "Cursor validity window between calls")
	ExportCmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "Per-call network timeout")
	ExportCmd.Flags().StringVar(&flagOutput, "output", "", "Output path, or - for stdout")
	ExportCmd.Flags().StringVar(&flagFormat, "format", "", "Output format: ndjson or json")
	ExportCmd.Flags().StringSliceVar(&flagAddresses, "addresses", nil, "Search backend addresses")
	ExportCmd.Flags().StringVar(&flagUsername, "username", "", "Search backend username")
	ExportCmd.Flags().StringVar(&flagMonitorAddr, "monitor-addr", "", "Listen address for /healthz and /metrics during the export")
}

func validateExport(cmd *cobra.Command, args []string) error {
	if flagQuery != "" && flagQueryFile != "" {
		return fmt.Errorf("--query and --query-file are mutually exclusive")
	}
	cmd.SilenceUsage = true
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	if cfg.Export.Index == "" {
		cmd.SilenceUsage = false
		return fmt.Errorf("an index is required; pass --index or set export.index in config")
	}

	timeout, err := cfg.Elasticsearch.CallTimeout()
	if err != nil {
		return fmt.Errorf("invalid elasticsearch.timeout; %w", err)
	}
	keepAlive, err := cfg.Export.KeepAlive()
	if err != nil {
		return fmt.Errorf("invalid export.scroll_duration; %w", err)
	}

	client, err := esclient.New(esclient.Config{
		Addresses: cfg.Elasticsearch.Addresses,
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.ResolvePassword(),
		Timeout:   timeout,
	}, esclient.WithLogger(logger))
	if err != nil {
		return err
	}

	writer, err := export.NewWriter(cfg.Export.Output, cfg.Export.Format, export.WithLogger(logger))
	if err != nil {
		return err
	}

	scroller := scroll.New(client, cfg.Export.Index, cfg.Export.Query,
		scroll.WithKeepAlive(keepAlive),
		scroll.WithRetryDelay(cfg.Export.RetryDelay()),
		scroll.WithLogger(logger),
	)
	session := scroll.NewSession(scroller, writer, cfg.Export.BatchSize, cfg.Export.MaxRetries)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Monitor.Addr != "" {
		srv := monitor.NewServer(monitor.Config{Addr: cfg.Monitor.Addr})
		go func() {
			if err := srv.Start(ctx); err != nil {
				logger.Warn("monitor server stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	summary, err := session.Run(ctx)
	if err != nil {
		return fmt.Errorf("export failed after %d documents; %w", summary.Documents, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d documents in %d batches (backend reported %d) in %s\n",
		summary.Documents, summary.Batches, summary.Total, summary.Duration.Round(time.Millisecond))
	return nil
}

// applyFlags overlays explicitly set flags onto the loaded configuration.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("index") {
		cfg.Export.Index = flagIndex
	}
	if flags.Changed("query") {
		cfg.Export.Query = flagQuery
	}
	if flags.Changed("query-file") {
		data, err := os.ReadFile(flagQueryFile)
		if err != nil {
			return fmt.Errorf("failed to read query file; %w", err)
		}
		cfg.Export.Query = string(data)
	}
	if flags.Changed("batch-size") {
		cfg.Export.BatchSize = flagBatchSize
	}
	if flags.Changed("max-retries") {
		cfg.Export.MaxRetries = flagMaxRetries
	}
	if flags.Changed("retry-delay") {
		cfg.Export.RetryDelayMs = int(flagRetryDelay.Milliseconds())
	}
	if flags.Changed("scroll") {
		cfg.Export.ScrollDuration = flagScroll.String()
	}
	if flags.Changed("timeout") {
		cfg.Elasticsearch.Timeout = flagTimeout.String()
	}
	if flags.Changed("output") {
		cfg.Export.Output = flagOutput
	}
	if flags.Changed("format") {
		cfg.Export.Format = flagFormat
	}
	if flags.Changed("addresses") {
		cfg.Elasticsearch.Addresses = flagAddresses
	}
	if flags.Changed("username") {
		cfg.Elasticsearch.Username = flagUsername
	}
	if flags.Changed("monitor-addr") {
		cfg.Monitor.Addr = flagMonitorAddr
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}

	return nil
}
