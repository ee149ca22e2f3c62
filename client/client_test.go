// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tabkeeper/tabkeeper/lib/ledger"
	"github.com/tabkeeper/tabkeeper/lib/menu"
	"github.com/tabkeeper/tabkeeper/lib/protocol"
	"github.com/tabkeeper/tabkeeper/lib/testutil"
	"github.com/tabkeeper/tabkeeper/server"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// startServer runs a real server on a loopback port for the duration of
// the test and returns its address.
func startServer(t *testing.T) string {
	t.Helper()

	listener := testutil.Listen(t)
	snapshot := menu.NewSnapshot(menu.HouseMenu())
	srv := server.New(server.Config{}, snapshot, ledger.New(snapshot), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.Serve(ctx, listener)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return listener.Addr().String()
}

// listenRaw accepts one connection and hands it to handle, for tests
// that need a misbehaving server.
func listenRaw(t *testing.T, handle func(net.Conn)) string {
	t.Helper()

	listener := testutil.Listen(t)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn)
	}()
	return listener.Addr().String()
}

func dial(t *testing.T, address string) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Dial(ctx, address)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClientAgainstServer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	waiter := dial(t, startServer(t))

	items, err := waiter.Menu(ctx)
	if err != nil {
		t.Fatalf("Menu: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("Menu returned %d items, want 5", len(items))
	}
	if items[3].Name != "Trà Đá" || !items[3].Price.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("item 4 = %+v", items[3])
	}

	if err := waiter.Order(ctx, 3, 4, 2); err != nil {
		t.Fatalf("Order: %v", err)
	}
	if err := waiter.Order(ctx, 3, 2, 1); err != nil {
		t.Fatalf("Order: %v", err)
	}

	rows, err := waiter.Orders(ctx)
	if err != nil {
		t.Fatalf("Orders: %v", err)
	}
	if len(rows) != 2 || rows[0].Quantity != 2 || !rows[0].Total.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("Orders = %+v", rows)
	}

	total, err := waiter.Pay(ctx, 3)
	if err != nil {
		t.Fatalf("Pay: %v", err)
	}
	if !total.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("Pay total = %s, want 50000", total)
	}
}

func TestClientRejections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := dial(t, startServer(t))

	tests := []struct {
		name    string
		call    func() error
		message string
	}{
		{
			name:    "unknown item",
			call:    func() error { return c.Order(ctx, 1, 42, 1) },
			message: "menu item 42 does not exist",
		},
		{
			name:    "zero quantity",
			call:    func() error { return c.Order(ctx, 1, 1, 0) },
			message: "quantity must be between 1 and 1000",
		},
		{
			name: "empty table",
			call: func() error {
				_, err := c.Pay(ctx, 8)
				return err
			},
			message: "table 8 has no open tab",
		},
	}
	for _, test := range tests {
		err := test.call()
		var rejected *RejectedError
		if !errors.As(err, &rejected) {
			t.Fatalf("%s: error = %v, want *RejectedError", test.name, err)
		}
		if rejected.Message != test.message {
			t.Errorf("%s: message = %q, want %q", test.name, rejected.Message, test.message)
		}
	}

	// Rejections leave the connection usable.
	if _, err := c.Menu(ctx); err != nil {
		t.Fatalf("Menu after rejections: %v", err)
	}
}

func TestClientCloseSendsQuit(t *testing.T) {
	t.Parallel()

	received := make(chan protocol.Request, 1)
	address := listenRaw(t, func(conn net.Conn) {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		request, err := protocol.ReadRequest(conn, 0)
		if err != nil {
			t.Errorf("ReadRequest: %v", err)
			close(received)
			return
		}
		received <- request
	})

	c := dial(t, address)
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if request := testutil.RequireReceive(t, received, 5*time.Second, "quit request"); request != (protocol.QuitRequest{}) {
		t.Errorf("server received %#v, want QuitRequest", request)
	}
	if _, err := c.Menu(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Menu after Close = %v, want ErrClosed", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestClientServerHangsUp(t *testing.T) {
	t.Parallel()

	address := listenRaw(t, func(conn net.Conn) {
		protocol.ReadFrame(conn, 0)
	})
	c := dial(t, address)

	if _, err := c.Menu(context.Background()); err == nil {
		t.Fatal("Menu succeeded against a server that hung up")
	}
	if err := c.Order(context.Background(), 1, 1, 1); !errors.Is(err, ErrClosed) {
		t.Errorf("Order after hang-up = %v, want ErrClosed", err)
	}
}

func TestClientContextDeadline(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	address := listenRaw(t, func(conn net.Conn) {
		<-release
	})
	c := dial(t, address)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.Orders(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Orders = %v, want context.DeadlineExceeded", err)
	}
}

func TestClientContextCancel(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	address := listenRaw(t, func(conn net.Conn) {
		<-release
	})
	c := dial(t, address)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	if _, err := c.Pay(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("Pay = %v, want context.Canceled", err)
	}
}
