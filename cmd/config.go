package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/puglink/internal/config"
	lerrors "github.com/conneroisu/puglink/internal/errors"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect puglink configuration",
	Long: `Inspect the configuration puglink resolves from .puglink.yml, PUGLINK_
environment variables and flags.

Examples:
  puglink config show                        # Show the effective configuration
  puglink config validate                    # Validate the configuration
  puglink config validate --config ci.yml    # Validate a specific file`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration as YAML",
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, lerrors.NewConfigError(lerrors.ErrCodeConfigInvalid, "failed to load configuration", err)
	}
	return cfg, nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := cfg.YAML()
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dest, err := cfg.DestinationPath()
	if err != nil {
		return lerrors.NewConfigError(lerrors.ErrCodeConfigInvalid, "cannot place template under output_path", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid")
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", cfg.Template, dest)
	return nil
}
