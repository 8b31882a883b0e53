package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseBuildTime(t *testing.T) {
	assert.True(t, parseBuildTime("unknown").IsZero())
	assert.True(t, parseBuildTime("not a time").IsZero())
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), parseBuildTime("2024-05-01T12:00:00Z"))
	assert.Equal(t, 2024, parseBuildTime("2024-05-01 12:00:00").Year())
}

func TestStampedVersion(t *testing.T) {
	oldVersion, oldCommit := Version, GitCommit
	t.Cleanup(func() { Version, GitCommit = oldVersion, oldCommit })

	Version, GitCommit = "v1.2.3", "0123456789abcdef"
	info := GetBuildInfo()

	assert.Equal(t, Name, info.Name)
	assert.Equal(t, "v1.2.3", info.Version)
	assert.Equal(t, "v1.2.3 (0123456)", info.Short())
	assert.True(t, info.IsRelease())
	assert.Contains(t, info.Detailed(), "Commit: 0123456789abcdef")
	assert.Contains(t, info.Detailed(), "Build type: release")
}

func TestDevShort(t *testing.T) {
	info := &BuildInfo{Version: "dev-0123456", GitCommit: "0123456789"}
	assert.Equal(t, "dev-0123456", info.Short())
	assert.False(t, info.IsRelease())
	assert.Contains(t, info.Detailed(), "Build type: development")
}
