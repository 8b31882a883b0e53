// Package version reports build information for the puglink binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// Name is the binary name printed in version output.
const Name = "puglink"

// BuildInfo contains version and build information
type BuildInfo struct {
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit"`
	BuildTime time.Time `json:"build_time"`
	GoVersion string    `json:"go_version"`
	Platform  string    `json:"platform"`
	Dirty     bool      `json:"dirty"`
}

// Set at build time using -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	// BuildTime is RFC3339.
	BuildTime = "unknown"
)

// GetBuildInfo returns the build information of the running binary.
func GetBuildInfo() *BuildInfo {
	settings := vcsSettings()
	return &BuildInfo{
		Name:      Name,
		Version:   resolveVersion(settings),
		GitCommit: resolveCommit(settings),
		BuildTime: parseBuildTime(BuildTime),
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		Dirty:     settings["vcs.modified"] == "true",
	}
}

// Short returns "<version>" or "<version> (<commit>)".
func (b *BuildInfo) Short() string {
	if len(b.GitCommit) >= 7 && b.GitCommit != "unknown" && !strings.HasSuffix(b.Version, b.GitCommit[:7]) {
		return fmt.Sprintf("%s (%s)", b.Version, b.GitCommit[:7])
	}
	return b.Version
}

// Detailed returns one "Key: value" line per known field.
func (b *BuildInfo) Detailed() string {
	parts := []string{fmt.Sprintf("%s %s", b.Name, b.Version)}
	if b.GitCommit != "unknown" {
		parts = append(parts, "Commit: "+b.GitCommit)
	}
	if !b.BuildTime.IsZero() {
		parts = append(parts, "Built: "+b.BuildTime.Format(time.RFC3339))
	}
	parts = append(parts, "Go: "+b.GoVersion, "Platform: "+b.Platform)
	if b.IsRelease() {
		parts = append(parts, "Build type: release")
	} else {
		parts = append(parts, "Build type: development")
	}
	if b.Dirty {
		parts = append(parts, "Working directory: dirty")
	}
	return strings.Join(parts, "\n")
}

// IsRelease reports whether the version was stamped by a release build.
func (b *BuildInfo) IsRelease() bool {
	return b.Version != "dev" && !strings.HasPrefix(b.Version, "dev-")
}

func vcsSettings() map[string]string {
	settings := map[string]string{}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return settings
	}
	settings["main.version"] = info.Main.Version
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	return settings
}

func resolveVersion(settings map[string]string) string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if v := settings["main.version"]; v != "" && v != "(devel)" {
		return v
	}
	if rev := settings["vcs.revision"]; len(rev) >= 7 {
		return "dev-" + rev[:7]
	}
	return "dev"
}

func resolveCommit(settings map[string]string) string {
	if GitCommit != "" && GitCommit != "unknown" {
		return GitCommit
	}
	if rev := settings["vcs.revision"]; rev != "" {
		return rev
	}
	return "unknown"
}

// parseBuildTime returns the zero time for anything it cannot parse.
func parseBuildTime(value string) time.Time {
	if value == "" || value == "unknown" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
