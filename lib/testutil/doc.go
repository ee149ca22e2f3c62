// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for tabkeeper packages.
//
// [RequireReceive] and [RequireClosed] encapsulate the timeout safety
// valve pattern (select with time.After fallback) so that individual
// tests do not need direct time.After calls. [RequireEventually] polls
// a condition with the same kind of bound.
//
// [Listen] opens a loopback TCP listener on an ephemeral port that is
// closed when the test completes, and [RequireConnClosed] asserts that
// the far end of a TCP connection has hung up without sending data.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no tabkeeper-internal dependencies.
package testutil
