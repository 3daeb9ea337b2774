// Package version provides build information for nescore
package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"slices"
	"strings"
	"time"
)

var (
	// These will be set at build time via -ldflags
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// BuildInfo contains detailed build information
type BuildInfo struct {
	Version    string
	GitCommit  string
	BuildTime  string
	GoVersion  string
	Platform   string
	Arch       string
	CGOEnabled bool
	Headless   bool // built with the headless tag, no Ebitengine monitor
}

// GetBuildInfo returns detailed build information
func GetBuildInfo() BuildInfo {
	buildInfo := BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		applySettings(&buildInfo, info.Settings)
	}

	return buildInfo
}

// applySettings fills in what -ldflags left unset from the module's build
// settings
func applySettings(buildInfo *BuildInfo, settings []debug.BuildSetting) {
	for _, setting := range settings {
		switch setting.Key {
		case "vcs.revision":
			if buildInfo.GitCommit == "unknown" {
				buildInfo.GitCommit = setting.Value
			}
		case "vcs.time":
			if buildInfo.BuildTime == "unknown" {
				buildInfo.BuildTime = setting.Value
			}
		case "CGO_ENABLED":
			buildInfo.CGOEnabled = setting.Value == "1"
		case "-tags":
			buildInfo.Headless = slices.Contains(strings.Split(setting.Value, ","), "headless")
		}
	}
}

func shortCommit(commit string) string {
	if len(commit) >= 7 {
		return commit[:7]
	}
	return commit
}

// GetVersion returns a simple version string
func GetVersion() string {
	if Version == "dev" {
		buildInfo := GetBuildInfo()
		if buildInfo.GitCommit != "unknown" && len(buildInfo.GitCommit) >= 7 {
			return fmt.Sprintf("dev-%s", shortCommit(buildInfo.GitCommit))
		}
	}
	return Version
}

// detailedVersion returns the one line summary printed by WriteBuildInfo
func detailedVersion(buildInfo BuildInfo) string {
	versionStr := fmt.Sprintf("nescore version %s", buildInfo.Version)

	if buildInfo.GitCommit != "unknown" {
		versionStr += fmt.Sprintf(" (commit %s)", shortCommit(buildInfo.GitCommit))
	}

	if buildInfo.BuildTime != "unknown" {
		if parsedTime, err := time.Parse(time.RFC3339, buildInfo.BuildTime); err == nil {
			versionStr += fmt.Sprintf(" built on %s", parsedTime.Format("2006-01-02 15:04:05"))
		} else {
			versionStr += fmt.Sprintf(" built on %s", buildInfo.BuildTime)
		}
	}

	versionStr += fmt.Sprintf(" with %s for %s/%s", buildInfo.GoVersion, buildInfo.Platform, buildInfo.Arch)

	return versionStr
}

// WriteBuildInfo prints formatted build information
func WriteBuildInfo(w io.Writer) {
	buildInfo := GetBuildInfo()

	fmt.Fprintln(w, detailedVersion(buildInfo))
	fmt.Fprintf(w, "Version:     %s\n", buildInfo.Version)
	fmt.Fprintf(w, "Git Commit:  %s\n", buildInfo.GitCommit)
	fmt.Fprintf(w, "Build Time:  %s\n", buildInfo.BuildTime)
	fmt.Fprintf(w, "Go Version:  %s\n", buildInfo.GoVersion)
	fmt.Fprintf(w, "Platform:    %s/%s\n", buildInfo.Platform, buildInfo.Arch)
	fmt.Fprintf(w, "CGO Enabled: %t\n", buildInfo.CGOEnabled)
	fmt.Fprintf(w, "Headless:    %t\n", buildInfo.Headless)
}
