package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Build metadata, overridden with -ldflags "-X github.com/smith-xyz/golang-stackdepth/pkg/version.Version=..."
var (
	Version   = "v0.3.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// BuildInfo describes the running binary
type BuildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetBuildInfo returns the build information of the running binary
func GetBuildInfo() *BuildInfo {
	return &BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// GetVersionWithCommit returns the version followed by the short commit hash when known
func GetVersionWithCommit() string {
	if GitCommit != "unknown" && len(GitCommit) >= 7 {
		return fmt.Sprintf("%s (%s)", Version, GitCommit[:7])
	}
	return Version
}

// GetFullVersionString returns the multi-line version banner printed by -version -v
func GetFullVersionString() string {
	info := GetBuildInfo()
	return fmt.Sprintf("stackdepth %s\nBuilt: %s\nCommit: %s\nGo: %s\nPlatform: %s",
		info.Version,
		info.BuildTime,
		info.GitCommit,
		info.GoVersion,
		info.Platform,
	)
}

// IsPrerelease reports whether Version carries a prerelease suffix
func IsPrerelease() bool {
	_, suffix, ok := strings.Cut(Version, "-")
	return ok && suffix != ""
}
