// Package version provides application version and build info.
//
//nolint:revive
package version

import (
	"fmt"
	"runtime/debug"
	"sync"
)

var (
	// Version is the current version of the gateway, overridden by ldflags at build time.
	Version = "dev"
	// CommitHash is the git commit hash, overridden by ldflags at build time.
	CommitHash = ""
	// BuildTime is the build timestamp, overridden by ldflags at build time.
	BuildTime = ""

	buildInfoOnce sync.Once
)

// GetInfo returns "<version> (<short hash>)", reading VCS data from the binary when ldflags left it empty.
func GetInfo() string {
	buildInfoOnce.Do(fillFromBuildInfo)
	return format(Version, CommitHash)
}

func fillFromBuildInfo() {
	if CommitHash != "" {
		return
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			CommitHash = setting.Value
		case "vcs.time":
			BuildTime = setting.Value
		}
	}
}

func format(version, commit string) string {
	if commit == "" {
		return version
	}
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return fmt.Sprintf("%s (%s)", version, commit)
}
