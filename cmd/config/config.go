// Package config provides the config parent command and subcommands.
package config

import (
	"github.com/spf13/cobra"

	"github.com/esdrain/esdrain/cmd/config/subcommands"
)

// ConfigCmd is the parent command for all config-related subcommands.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage esdrain configuration",
	Long: "Manage esdrain configuration.\n\n" +
		"The config command allows you to view, validate, and seed the esdrain " +
		"configuration. Configuration is stored in a YAML file located at " +
		"~/.config/esdrain/config.yaml by default.",
}

func init() {
	ConfigCmd.AddCommand(subcommands.ShowCmd)
	ConfigCmd.AddCommand(subcommands.ValidateCmd)
	ConfigCmd.AddCommand(subcommands.InitCmd)
}
