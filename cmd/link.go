package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/conneroisu/puglink/internal/assets"
	"github.com/conneroisu/puglink/internal/chunks"
	"github.com/conneroisu/puglink/internal/config"
	lerrors "github.com/conneroisu/puglink/internal/errors"
	"github.com/conneroisu/puglink/internal/link"
	"github.com/conneroisu/puglink/internal/logging"
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link a template against a build's output bundles",
	Long: `Run one linking pass over the configured template.

The template gets one block listing the build's script bundles and one
listing its stylesheets. Every require('...') reference embedded in it is
built on its own and replaced by the quoted URL (or data URI) of the result.
The linked template is written under the output directory at its path
relative to the context directory.

Examples:
  puglink link                                      # Use .puglink.yml
  puglink link -t src/views/index.pug -o build      # Override template and output
  puglink link --manifest build/stats.json          # Inject the bundles listed in a stats file
  puglink link --public-path https://cdn.example/ --json`,
	RunE: runLink,
}

var linkJSON bool

func init() {
	rootCmd.AddCommand(linkCmd)

	linkCmd.Flags().StringP("template", "t", "", "Template to link")
	linkCmd.Flags().StringP("context", "C", "", "Directory the template's output path is relative to")
	linkCmd.Flags().StringP("output", "o", "", "Output directory")
	linkCmd.Flags().String("public-path", "", "Prefix for emitted URLs")
	linkCmd.Flags().StringP("manifest", "m", "", "Stats manifest listing the build's chunks")
	linkCmd.Flags().Bool("copy-dependencies", true, "Copy included and extended templates to the output directory")
	linkCmd.Flags().BoolVar(&linkJSON, "json", false, "Print the result as JSON")
	bindFlags(linkCmd.Flags(), map[string]string{
		"template":          "template",
		"context":           "context",
		"output":            "output_path",
		"public-path":       "public_path",
		"manifest":          "manifest",
		"copy-dependencies": "copy_dependencies",
	})
}

func runLink(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return lerrors.NewConfigError(lerrors.ErrCodeConfigInvalid, "invalid log level", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	result, err := linkOnce(ctx, afero.NewOsFs(), cfg, logger)
	if err != nil {
		return err
	}
	return printLinkResult(cmd.OutOrStdout(), result, linkJSON)
}

// linkOnce runs a single pass for cfg and waits for its after-emit hooks.
func linkOnce(ctx context.Context, fs afero.Fs, cfg *config.Config, logger logging.Logger) (*link.Result, error) {
	opts := link.OptionsFromConfig(cfg)

	var bundles []chunks.Chunk
	if cfg.Manifest != "" {
		stats, err := chunks.LoadManifest(fs, cfg.Manifest)
		if err != nil {
			return nil, err
		}
		bundles = stats.Chunks
		if !cfg.PublicPathSet && stats.PublicPath != "" {
			opts.PublicPath = stats.PublicPath
		}
	}

	hooks := link.NewHooks()
	for _, command := range cfg.Hooks.AfterEmit {
		hooks.TapAfterEmit(link.CommandHook(command))
	}

	builder := assets.NewBuilder(fs, assets.OptionsFromConfig(cfg), logger)
	linker := link.New(opts, builder, fs, logger, hooks)

	perf := logging.StartOperation(logger, "link")
	result, err := linker.Run(ctx, bundles)
	linker.Wait()
	if err != nil {
		perf.EndWithError(ctx, err)
		return nil, err
	}
	perf.End(ctx, "output", result.OutputPath)

	if cache := builder.Cache(); cache != nil {
		stats := cache.Stats()
		logger.Debug(ctx, "Asset cache",
			"entries", stats.Entries,
			"hits", stats.Hits,
			"misses", stats.Misses,
			"hit_rate", stats.HitRate())
	}
	return result, nil
}

type linkReport struct {
	Output             string   `json:"output"`
	SubBuilds          int      `json:"sub_builds"`
	FileDependencies   []string `json:"file_dependencies"`
	Assets             []string `json:"assets,omitempty"`
	CopiedDependencies []string `json:"copied_dependencies,omitempty"`
	DurationMS         int64    `json:"duration_ms"`
}

func printLinkResult(w io.Writer, result *link.Result, asJSON bool) error {
	if asJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(linkReport{
			Output:             result.OutputPath,
			SubBuilds:          result.SubBuilds,
			FileDependencies:   result.FileDependencies,
			Assets:             result.Assets,
			CopiedDependencies: result.CopiedDependencies,
			DurationMS:         result.Duration.Milliseconds(),
		})
	}

	fmt.Fprintf(w, "Linked %s (%d sub-builds, %d dependencies) in %s\n",
		result.OutputPath, result.SubBuilds, len(result.FileDependencies), result.Duration)
	for _, asset := range result.Assets {
		fmt.Fprintf(w, "  asset  %s\n", asset)
	}
	for _, dep := range result.CopiedDependencies {
		fmt.Fprintf(w, "  copied %s\n", dep)
	}
	return nil
}
