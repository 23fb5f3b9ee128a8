package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func setVersion(t *testing.T, version, buildTime, commit string, bi *debug.BuildInfo) {
	t.Helper()
	origVersion, origBuildTime, origCommit, origRead := Version, BuildTime, Commit, readBuildInfo
	t.Cleanup(func() {
		Version, BuildTime, Commit, readBuildInfo = origVersion, origBuildTime, origCommit, origRead
	})
	Version, BuildTime, Commit = version, buildTime, commit
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
}

func TestInfo(t *testing.T) {
	setVersion(t, "1.0.0", "2024-01-01", "abcdef0123456789", nil)

	info := Info()
	assert.Equal(t, "podprobe 1.0.0 (abcdef01) - 2024-01-01 "+runtime.GOOS+"/"+runtime.GOARCH, info)

	Commit = "abc123"
	assert.Contains(t, Info(), "(abc123)")
}

func TestGet_LdflagsWin(t *testing.T) {
	setVersion(t, "1.0.0", "2024-01-01", "abcdef0123456789", &debug.BuildInfo{
		Main: debug.Module{Version: "v9.9.9"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0000000000"},
			{Key: "vcs.time", Value: "2030-01-01T00:00:00Z"},
		},
	})

	info := Get()
	assert.Equal(t, "1.0.0", info.Version)
	assert.Equal(t, "abcdef0123456789", info.Commit)
	assert.Equal(t, "2024-01-01", info.BuildTime)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	assert.True(t, strings.HasPrefix(info.GoVersion, "go1."))
}

func TestGet_EmbeddedBuildInfo(t *testing.T) {
	setVersion(t, "dev", "unknown", "unknown", &debug.BuildInfo{
		Main: debug.Module{Path: "github.com/rzbill/podprobe", Version: "v0.3.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "1234567890abcdef"},
			{Key: "vcs.time", Value: "2024-06-01T10:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
		Deps: []*debug.Module{
			{Path: "k8s.io/apimachinery", Version: "v0.31.2"},
			{Path: "k8s.io/api", Version: "v0.31.0", Replace: &debug.Module{Path: "k8s.io/api", Version: "v0.31.2"}},
		},
	})

	info := Get()
	assert.Equal(t, BuildInfo{
		Version:       "v0.3.0",
		Commit:        "1234567890abcdef",
		Dirty:         true,
		BuildTime:     "2024-06-01T10:00:00Z",
		GoVersion:     runtime.Version(),
		Platform:      runtime.GOOS + "/" + runtime.GOARCH,
		KubernetesAPI: "v0.31.2",
	}, info)

	assert.Equal(t,
		"podprobe v0.3.0 (12345678-dirty) - 2024-06-01T10:00:00Z "+runtime.GOOS+"/"+runtime.GOARCH+" k8s.io/api v0.31.2",
		Info())
}

func TestGet_DevelBuild(t *testing.T) {
	setVersion(t, "dev", "unknown", "unknown", &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})

	info := Get()
	assert.Equal(t, "dev", info.Version)
	assert.Equal(t, "unknown", info.Commit)
	assert.False(t, info.Dirty)
	assert.Empty(t, info.KubernetesAPI)
}
