// Package cmd provides the command-line interface for puglink with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	Values are resolved with the following precedence:
//	1. Command-line flags (--config, --template, --output, ...) - highest priority
//	2. PUGLINK_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (PUGLINK_OUTPUT_PATH, PUGLINK_LOG_LEVEL, ...)
//	4. Configuration file (.puglink.yml) - lowest priority
//
// Environment Variables:
//
//	PUGLINK_CONFIG_FILE: Path to custom configuration file
//	PUGLINK_TEMPLATE: Template to link
//	PUGLINK_PUBLIC_PATH: Prefix for emitted URLs
//	And every other key following the PUGLINK_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/puglink/internal/config"
	"github.com/conneroisu/puglink/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "puglink",
	Short: "Link pug templates against a build's output bundles",
	Long: `puglink links a pug template against the output of a bundler build.

It appends blocks listing the build's script and stylesheet bundles to the
template, runs a sub-build for every require('...') reference embedded in it,
substitutes the resulting URLs back into the template and writes the result
to the output directory.

Quick Start:
  puglink link --template src/views/index.pug --output build --manifest stats.json
  puglink deps                    List the template's static dependencies
  puglink config show             Show the effective configuration

Documentation: https://github.com/conneroisu/puglink`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .puglink.yml, can also use PUGLINK_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text, json)")
	bindFlags(rootCmd.PersistentFlags(), map[string]string{
		"log-level":  "log.level",
		"log-format": "log.format",
	})
}

// initConfig initializes the configuration system.
//
// Config file lookup (highest to lowest):
//  1. --config flag
//  2. PUGLINK_CONFIG_FILE environment variable
//  3. .puglink.yml in the current directory
//
// Every key can also be overridden with a PUGLINK_ prefixed environment
// variable, dots replaced by underscores (PUGLINK_ASSETS_INLINE_LIMIT=0).
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("PUGLINK_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".puglink")
	}

	viper.SetEnvPrefix("PUGLINK")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing config file is fine, everything can come from flags.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// bindFlags binds each flag name to a viper key so flags override the file
// and environment.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for flag, key := range keys {
		if f := flags.Lookup(flag); f != nil {
			_ = viper.BindPFlag(key, f)
		}
	}
}

// newLogger builds the process logger from the log section of cfg.
func newLogger(cfg *config.Config, out io.Writer) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	loggerConfig := logging.DefaultConfig()
	loggerConfig.Level = level
	loggerConfig.Format = cfg.Log.Format
	loggerConfig.Output = out
	loggerConfig.FilePath = cfg.Log.File
	loggerConfig.Component = "puglink"
	return logging.NewLogger(loggerConfig), nil
}
