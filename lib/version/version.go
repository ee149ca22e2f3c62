// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are set via -ldflags at build time.
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// GitDirty indicates whether there were uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version. This is set manually for releases.
	Version = "0.1.0-dev"
)

// build is the commit information Info reports.
type build struct {
	commit string
	dirty  bool
	time   string
}

// current resolves the build stamp: ldflags values first, then the
// go command's vcs.* build settings.
func current() build {
	info := build{commit: GitCommit, dirty: GitDirty == "true", time: BuildTime}
	if info.commit != "unknown" {
		return info
	}
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	return fromSettings(info, buildInfo.Settings)
}

func fromSettings(info build, settings []debug.BuildSetting) build {
	for _, setting := range settings {
		switch setting.Key {
		case "vcs.revision":
			info.commit = setting.Value
			if len(info.commit) > 7 {
				info.commit = info.commit[:7]
			}
		case "vcs.modified":
			info.dirty = setting.Value == "true"
		case "vcs.time":
			if info.time == "unknown" {
				info.time = setting.Value
			}
		}
	}
	return info
}

// Info returns a formatted version string suitable for --version output.
func Info() string {
	return current().format()
}

func (b build) format() string {
	dirty := ""
	if b.dirty {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, b.commit, dirty, b.time)
}

// Full returns detailed version information including Go version.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Short returns just the version number.
func Short() string {
	return Version
}
