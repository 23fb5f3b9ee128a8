// Package version reports how the podprobe binary was built.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	// Version is the release version, set at build time via ldflags.
	Version = "dev"

	// BuildTime is the build timestamp, set at build time via ldflags.
	BuildTime = "unknown"

	// Commit is the git commit SHA, set at build time via ldflags.
	Commit = "unknown"
)

// kubernetesAPIModule is the module whose version decides which probe and
// container fields podprobe emits.
const kubernetesAPIModule = "k8s.io/api"

var readBuildInfo = debug.ReadBuildInfo

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version       string `json:"version"`
	Commit        string `json:"commit"`
	Dirty         bool   `json:"dirty,omitempty"`
	BuildTime     string `json:"buildTime"`
	GoVersion     string `json:"goVersion"`
	Platform      string `json:"platform"`
	KubernetesAPI string `json:"kubernetesAPI,omitempty"`
}

// Get returns the build information. Values not injected via ldflags are taken
// from the build info embedded by the Go toolchain, e.g. for go install builds.
func Get() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := readBuildInfo()
	if !ok || bi == nil {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "unknown" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	for _, dep := range bi.Deps {
		if dep.Path != kubernetesAPIModule {
			continue
		}
		info.KubernetesAPI = dep.Version
		if dep.Replace != nil {
			info.KubernetesAPI = dep.Replace.Version
		}
	}
	return info
}

// Info returns version information as a single line, e.g.
//
//	podprobe v0.3.0 (abcdef01) - 2024-01-01 linux/amd64 k8s.io/api v0.31.2
func Info() string {
	info := Get()

	commitID := info.Commit
	if len(commitID) > 8 {
		commitID = commitID[:8]
	}
	if info.Dirty {
		commitID += "-dirty"
	}

	line := fmt.Sprintf("podprobe %s (%s) - %s %s", info.Version, commitID, info.BuildTime, info.Platform)
	if info.KubernetesAPI != "" {
		line += " " + kubernetesAPIModule + " " + info.KubernetesAPI
	}
	return line
}
