// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the tabkeeper
// binaries.
//
// Four package-level variables are injected at build time via
// -ldflags -X:
//
//   - [GitCommit] -- short git SHA of the build
//   - [GitDirty] -- "true" if there were uncommitted changes
//   - [BuildTime] -- UTC timestamp of the build
//   - [Version] -- semantic version string (set manually for releases)
//
// When GitCommit is not injected, the VCS stamp the go command records
// in the binary is used instead, so `go install` builds still report
// their commit.
//
//	go build -ldflags "-X github.com/tabkeeper/tabkeeper/lib/version.GitCommit=$(git rev-parse --short HEAD)"
package version
