// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package menu loads the house menu once at startup and serves it as an
// immutable [Snapshot].
//
// A [Source] produces the ordered list of items. [FileSource] reads a
// local file, either the semicolon format the terminals have always
// used ("id;name;price" per line) or a JSON array when the file name
// ends in .json or .jsonc (comments and trailing commas allowed). When
// the file does not exist, FileSource writes the built-in house menu to
// that path and reads it back, so every later start sees the same
// items. [PostgresSource] reads the menu_items table and seeds it with
// the same house menu when it is empty.
//
// Malformed entries are skipped with a warning rather than failing the
// load: a typo on one line must not take the restaurant offline.
//
// A Snapshot never changes after construction, so any number of
// goroutines may call [Snapshot.Lookup] without synchronization.
// [Snapshot.Fingerprint] identifies the exact menu contents; the daemon
// logs it at startup so an operator can confirm which menu is live.
package menu
