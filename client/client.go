// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package client is the terminal side of the order protocol: it holds
// one connection to a tabkeeper server and issues requests over it one
// at a time.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tabkeeper/tabkeeper/lib/protocol"
)

// defaultRequestTimeout bounds one request/response exchange when the
// caller's context carries no deadline.
const defaultRequestTimeout = 30 * time.Second

// ErrClosed is returned by requests on a client that was closed, or
// whose connection failed during an earlier request. A failed client
// must be replaced by dialing again; there is no session to resume.
var ErrClosed = errors.New("client connection closed")

// RejectedError is returned when the server answered a request with a
// failure flag. The connection is still usable.
type RejectedError struct {
	Operation string
	Message   string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Operation, e.Message)
}

// Client is a connection to a tabkeeper server. It is safe for
// concurrent use; requests are serialized.
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	// failure is set once the connection is unusable.
	failure error
}

// Dial connects to the server at address.
func Dial(ctx context.Context, address string) (*Client, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", address, err)
	}
	return newClient(conn), nil
}

func newClient(conn net.Conn) *Client {
	return &Client{conn: conn, reader: bufio.NewReader(conn)}
}

// Menu returns the server's menu.
func (c *Client) Menu(ctx context.Context) ([]protocol.MenuEntry, error) {
	payload, err := c.exchange(ctx, protocol.GetMenuRequest{})
	if err != nil {
		return nil, err
	}
	response, err := protocol.DecodeMenuResponse(payload)
	if err != nil {
		return nil, c.fail(err)
	}
	if !response.OK {
		return nil, &RejectedError{Operation: "menu", Message: "server refused the menu request"}
	}
	return response.Items, nil
}

// Order adds quantity units of menu item itemID to table's tab. A
// refusal (unknown item, bad quantity) is returned as *RejectedError.
func (c *Client) Order(ctx context.Context, table, itemID, quantity int32) error {
	payload, err := c.exchange(ctx, protocol.OrderRequest{Table: table, ItemID: itemID, Quantity: quantity})
	if err != nil {
		return err
	}
	response, err := protocol.DecodeOrderResponse(payload)
	if err != nil {
		return c.fail(err)
	}
	if !response.OK {
		return &RejectedError{Operation: "order", Message: response.Message}
	}
	return nil
}

// Orders returns every open tab, grouped by table and menu item.
func (c *Client) Orders(ctx context.Context) ([]protocol.OrderRow, error) {
	payload, err := c.exchange(ctx, protocol.GetOrdersRequest{})
	if err != nil {
		return nil, err
	}
	response, err := protocol.DecodeOrdersResponse(payload)
	if err != nil {
		return nil, c.fail(err)
	}
	if !response.OK {
		return nil, &RejectedError{Operation: "orders", Message: "server refused the orders request"}
	}
	return response.Rows, nil
}

// Pay settles table's tab and returns the amount paid. A table with
// nothing owed yields a *RejectedError.
func (c *Client) Pay(ctx context.Context, table int32) (decimal.Decimal, error) {
	payload, err := c.exchange(ctx, protocol.PayRequest{Table: table})
	if err != nil {
		return decimal.Zero, err
	}
	response, err := protocol.DecodePayResponse(payload)
	if err != nil {
		return decimal.Zero, c.fail(err)
	}
	if !response.OK {
		return decimal.Zero, &RejectedError{Operation: "pay", Message: response.Message}
	}
	return response.Total, nil
}

// Close sends a quit request, if the connection is still healthy, and
// closes the connection. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failure != nil {
		return nil
	}
	c.failure = ErrClosed

	c.conn.SetWriteDeadline(time.Now().Add(time.Second))
	quitErr := protocol.WriteRequest(c.conn, protocol.QuitRequest{})
	closeErr := c.conn.Close()
	if quitErr != nil {
		return fmt.Errorf("sending quit: %w", quitErr)
	}
	return closeErr
}

// exchange writes request and reads one reply frame. Any transport or
// framing failure closes the connection.
func (c *Client) exchange(ctx context.Context, request protocol.Request) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failure != nil {
		return nil, c.failure
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultRequestTimeout)
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, c.failLocked(err)
	}
	// Cancellation forces the blocked read or write to return.
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if err := protocol.WriteRequest(c.conn, request); err != nil {
		return nil, c.failLocked(contextError(ctx, fmt.Errorf("sending %s: %w", request.Type(), err)))
	}
	payload, err := protocol.ReadFrame(c.reader, 0)
	if err != nil {
		return nil, c.failLocked(contextError(ctx, fmt.Errorf("reading %s reply: %w", request.Type(), err)))
	}
	return payload, nil
}

func (c *Client) fail(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failLocked(err)
}

// failLocked closes the connection and records err for later requests.
func (c *Client) failLocked(err error) error {
	if c.failure == nil {
		c.failure = fmt.Errorf("%w: %w", ErrClosed, err)
		c.conn.Close()
	}
	return err
}

// contextError prefers the context's error when the exchange was cut
// short by cancellation.
func contextError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w (%w)", ctxErr, err)
	}
	// The connection deadline can fire before the context's own timer.
	if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
		return fmt.Errorf("%w (%w)", context.DeadlineExceeded, err)
	}
	return err
}
