// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"errors"
	"net"
	"testing"
	"time"
)

// Listen opens a TCP listener on 127.0.0.1 with a kernel-chosen port.
// The listener is closed when the test completes; closing it earlier
// is harmless.
func Listen(t *testing.T) net.Listener {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listening on loopback: %v", err)
	}
	t.Cleanup(func() { listener.Close() })
	return listener
}

// RequireConnClosed reads from conn and fails the test unless the peer
// has closed the connection without sending anything. The read is
// bounded by timeout; timing out means the connection is still open.
func RequireConnClosed(t *testing.T, conn net.Conn, timeout time.Duration) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(timeout))
	var buffer [64]byte
	count, err := conn.Read(buffer[:])
	if count != 0 {
		t.Fatalf("read %d bytes from a connection that should be closed", count)
	}
	if err == nil {
		t.Fatal("read returned no error on a connection that should be closed")
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		t.Fatalf("connection still open after %v", timeout)
	}
}
