// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the tabkeeper
// daemon.
//
// Configuration comes from at most one file, named by either the
// TABKEEPER_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). When neither is given, [Load] returns [Default].
//
// The file may contain environment-specific sections (development,
// staging, production) that override base values when
// [Config].Environment matches. Production without an explicit section
// forces JSON logs at info level or above.
//
// ${VAR} and ${VAR:-default} references in menu.file and
// menu.postgres_url are expanded from the process environment after
// loading, so database credentials can stay out of the file.
//
// Key exports:
//
//   - [Config] -- master struct with Server, Menu, Log
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [Config.Validate] -- rejects values the daemon cannot run with
//
// This package depends on no other tabkeeper packages.
package config
