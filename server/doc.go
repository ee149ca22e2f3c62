// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package server accepts terminal connections and runs the request loop
// for each one.
//
// [Server.Serve] accepts connections from a listener and starts one
// goroutine per connection. That goroutine reads one request frame,
// dispatches it to the menu snapshot or the order ledger, writes one
// response frame, and repeats. Requests on a connection are handled
// strictly in order; there is no pipelining.
//
// A connection ends when the client sends a quit request (nothing is
// written back), closes its end between frames, sends a malformed
// frame, sits idle past the configured idle timeout, fails a read or
// write, or the server shuts down. None of these affect other
// connections or the listener.
//
// Business failures (an unknown menu item, a non-positive quantity,
// paying a table with no open tab) are answered with a normal response
// whose OK flag is false and whose message explains the problem. The
// connection stays open.
//
// Every connection is tagged with a random UUID in the logs so that the
// connect, request and disconnect records of one terminal can be
// correlated.
package server
