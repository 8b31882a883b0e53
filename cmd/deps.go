package cmd

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/conneroisu/puglink/internal/config"
	lerrors "github.com/conneroisu/puglink/internal/errors"
	"github.com/conneroisu/puglink/internal/pugdeps"
)

var depsCmd = &cobra.Command{
	Use:   "deps [template]",
	Short: "List the templates a template includes or extends",
	Long: `Print every file the template reaches through include and extends
directives, transitively, in discovery order.

Examples:
  puglink deps                         # Template from .puglink.yml
  puglink deps src/views/index.pug     # Explicit template
  puglink deps --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDeps,
}

var depsJSON bool

func init() {
	rootCmd.AddCommand(depsCmd)

	depsCmd.Flags().BoolVar(&depsJSON, "json", false, "Print the list as JSON")
}

func runDeps(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil && len(args) == 0 {
		return lerrors.NewConfigError(lerrors.ErrCodeConfigInvalid, "failed to load configuration", err)
	}

	template, basedir := "", "."
	if cfg != nil {
		template, basedir = cfg.Template, cfg.Context
	}
	if len(args) == 1 {
		template = args[0]
	}

	return listDeps(cmd.OutOrStdout(), afero.NewOsFs(), template, basedir, depsJSON)
}

func listDeps(w io.Writer, fs afero.Fs, template, basedir string, asJSON bool) error {
	deps, err := pugdeps.NewTracker(fs, basedir).Dependencies(template)
	if err != nil {
		return err
	}

	if asJSON {
		if deps == nil {
			deps = []string{}
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]interface{}{
			"template":     template,
			"dependencies": deps,
		})
	}

	for _, dep := range deps {
		fmt.Fprintln(w, dep)
	}
	return nil
}
