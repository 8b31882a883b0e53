package cmd

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/conneroisu/puglink/internal/version"
)

var (
	versionFormat string
	versionShort  bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for puglink including:

- Semantic version number
- Git commit hash
- Build timestamp
- Go version and target platform

Examples:
  puglink version              # Show version
  puglink version --short      # Show version only
  puglink version --format json`,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "Output format (text, json)")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
}

func runVersionCommand(cmd *cobra.Command, args []string) error {
	return writeVersion(cmd.OutOrStdout(), version.GetBuildInfo(), versionFormat, versionShort)
}

func writeVersion(w io.Writer, info *version.BuildInfo, format string, short bool) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(info)
	case "text":
		if short {
			_, err := fmt.Fprintln(w, info.Short())
			return err
		}
		_, err := fmt.Fprintln(w, info.Detailed())
		return err
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json)", format)
	}
}
