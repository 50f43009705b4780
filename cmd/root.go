package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	configcmd "github.com/esdrain/esdrain/cmd/config"
	"github.com/esdrain/esdrain/cmd/export"
	"github.com/esdrain/esdrain/cmd/version"
	"github.com/esdrain/esdrain/internal/config"
	"github.com/esdrain/esdrain/internal/logging"
)

// logManager is the global logging manager, created in init() and upgraded after config loads
var logManager *logging.Manager

var esdrainCmd = &cobra.Command{
	Use:   "esdrain",
	Short: "Bulk-export documents from an Elasticsearch index",
	Long: "esdrain drains every document matching a query out of an Elasticsearch index.\n\n" +
		"It opens a scroll cursor, retrieves the full result set in bounded-size batches, " +
		"retries transient continuation failures without losing the cursor or double-counting " +
		"results, and releases the cursor when the export finishes or is abandoned.\n\n",
	PersistentPreRunE: runInitialize,
}

func init() {
	// Bootstrap mode logs text to stderr until config is available.
	logManager = logging.NewManager()

	esdrainCmd.AddCommand(export.ExportCmd)
	esdrainCmd.AddCommand(configcmd.ConfigCmd)
	esdrainCmd.AddCommand(version.VersionCmd)
}

func runInitialize(cmd *cobra.Command, args []string) error {
	logger := logManager.Logger()

	if err := config.Init(); err != nil {
		return err
	}

	logFile := config.GetPath("log_file")
	levelStr := config.GetString("log_level")
	level, ok := logging.ParseLevel(levelStr)
	if !ok {
		level = logging.DefaultLevel
		if levelStr != "" {
			logger.Warn("invalid log level configured, using default", "configured", levelStr, "default", "info")
		}
	}

	if err := logManager.Upgrade(logFile, level); err != nil {
		logger.Warn("failed to enable file logging, continuing with stderr only", "error", err)
		// Continue in bootstrap mode rather than failing the command.
	}

	// Route slog.Default() through the managed handler so every package
	// picks up the upgraded sinks.
	slog.SetDefault(logManager.Logger())

	return nil
}

// Execute runs the root command.
func Execute() error {
	esdrainCmd.SilenceErrors = true
	esdrainCmd.SilenceUsage = true

	defer func() { _ = logManager.Close() }()

	err := esdrainCmd.Execute()

	if err != nil {
		cmd, _, _ := esdrainCmd.Find(os.Args[1:])
		if cmd == nil {
			cmd = esdrainCmd
		}

		fmt.Printf("Error: %v\n", err)
		if !cmd.SilenceUsage {
			fmt.Printf("\n")
			cmd.SetOut(os.Stdout)
			_ = cmd.Usage()
		}

		return err
	}

	return nil
}
