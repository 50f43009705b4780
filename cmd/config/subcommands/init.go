package subcommands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/esdrain/esdrain/internal/config"
)

var (
	initForce bool
)

// InitCmd seeds a default configuration file.
var InitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: "Write a default configuration file.\n\n" +
		"Creates a configuration file populated with default values at the " +
		"default location (~/.config/esdrain/config.yaml). Refuses to overwrite " +
		"an existing file unless --force is given.",
	Example: `  # Seed a default configuration
  esdrain config init

  # Overwrite an existing configuration
  esdrain config init --force`,
	PreRunE: validateInit,
	RunE:    runInit,
}

func init() {
	InitCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration file")
}

func validateInit(cmd *cobra.Command, args []string) error {
	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	path := config.DefaultConfigPath()

	if config.ConfigExists() && !initForce {
		return fmt.Errorf("configuration file already exists at %s; use --force to overwrite", path)
	}

	cfg := config.NewDefaultConfig()
	if err := config.WriteDefault(&cfg); err != nil {
		return err
	}

	fmt.Printf("Configuration written: %s\n", path)
	return nil
}
