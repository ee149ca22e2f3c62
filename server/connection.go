// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tabkeeper/tabkeeper/lib/ledger"
	"github.com/tabkeeper/tabkeeper/lib/money"
	"github.com/tabkeeper/tabkeeper/lib/protocol"
)

// connection is the per-terminal state of one accepted socket.
type connection struct {
	server *Server
	conn   net.Conn
	reader *bufio.Reader
	logger *slog.Logger
}

// handleConnection runs the request loop for conn until the terminal
// quits, the stream fails or ctx is cancelled. It always closes conn.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	c := &connection{
		server: s,
		conn:   conn,
		reader: bufio.NewReader(conn),
		logger: s.logger.With(
			"connection", uuid.NewString(),
			"remote", conn.RemoteAddr().String(),
		),
	}
	c.logger.Info("terminal connected")

	reason, err := c.serve()
	switch {
	case ctx.Err() != nil:
		c.logger.Info("terminal disconnected", "reason", "shutdown")
	case err == nil:
		c.logger.Info("terminal disconnected", "reason", reason)
	case errors.Is(err, protocol.ErrMalformedFrame):
		c.logger.Warn("terminal disconnected", "reason", "malformed frame", "error", err)
	case isTimeout(err):
		c.logger.Info("terminal disconnected", "reason", "idle timeout")
	case isExpectedCloseError(err):
		c.logger.Info("terminal disconnected", "reason", "connection closed", "error", err)
	default:
		c.logger.Warn("terminal disconnected", "reason", "network failure", "error", err)
	}
}

// serve reads and answers requests in order. It returns a reason when
// the connection ended normally (quit or a clean close between frames)
// and an error otherwise.
func (c *connection) serve() (string, error) {
	for {
		if err := c.setDeadline(c.conn.SetReadDeadline, c.server.config.IdleTimeout); err != nil {
			return "", err
		}
		request, err := protocol.ReadRequest(c.reader, c.server.config.MaxFrameSize)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "peer closed", nil
			}
			return "", err
		}
		c.logger.Debug("request received", "type", request.Type().String())

		response := c.dispatch(request)
		if response == nil {
			return "quit", nil
		}

		if err := c.setDeadline(c.conn.SetWriteDeadline, c.server.config.WriteTimeout); err != nil {
			return "", err
		}
		if err := protocol.WriteResponse(c.conn, response); err != nil {
			return "", fmt.Errorf("writing %s response: %w", request.Type(), err)
		}
	}
}

// setDeadline arms one of the connection's deadlines timeout from now,
// or clears it when timeout is zero.
func (c *connection) setDeadline(set func(time.Time) error, timeout time.Duration) error {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	return set(deadline)
}

// dispatch answers one request. It returns nil for QuitRequest, which
// gets no reply.
func (c *connection) dispatch(request protocol.Request) protocol.Response {
	switch request := request.(type) {
	case protocol.GetMenuRequest:
		return protocol.MenuResponse{OK: true, Items: c.server.menuEntries}

	case protocol.OrderRequest:
		return c.placeOrder(request)

	case protocol.GetOrdersRequest:
		summaries := c.server.ledger.Summarize()
		rows := make([]protocol.OrderRow, len(summaries))
		for index, summary := range summaries {
			rows[index] = protocol.OrderRow{
				Table:    summary.Table,
				ItemID:   summary.ItemID,
				ItemName: summary.ItemName,
				Quantity: summary.Quantity,
				Total:    summary.Total,
			}
		}
		return protocol.OrdersResponse{OK: true, Rows: rows}

	case protocol.PayRequest:
		return c.settle(request)

	case protocol.QuitRequest:
		return nil

	default:
		// DecodeRequest only produces the types above.
		panic(fmt.Sprintf("server: unhandled request type %T", request))
	}
}

func (c *connection) placeOrder(request protocol.OrderRequest) protocol.OrderResponse {
	item, err := c.server.ledger.PlaceOrder(request.Table, request.ItemID, request.Quantity)
	switch {
	case errors.Is(err, ledger.ErrUnknownItem):
		return protocol.OrderResponse{Message: fmt.Sprintf("menu item %d does not exist", request.ItemID)}
	case errors.Is(err, ledger.ErrInvalidQuantity):
		return protocol.OrderResponse{Message: fmt.Sprintf("quantity must be between 1 and %d", ledger.MaxQuantity)}
	case err != nil:
		c.logger.Error("placing order", "error", err)
		return protocol.OrderResponse{Message: "order failed"}
	}

	c.logger.Info("order placed",
		"table", request.Table,
		"item_id", item.ID,
		"item_name", item.Name,
		"quantity", request.Quantity,
	)
	return protocol.OrderResponse{OK: true, Message: "OK"}
}

func (c *connection) settle(request protocol.PayRequest) protocol.PayResponse {
	settlement, err := c.server.ledger.Settle(request.Table)
	if errors.Is(err, ledger.ErrNoOpenTab) {
		return protocol.PayResponse{
			Message: fmt.Sprintf("table %d has no open tab", request.Table),
			Total:   decimal.Zero,
		}
	}
	if err != nil {
		c.logger.Error("settling table", "table", request.Table, "error", err)
		return protocol.PayResponse{Message: "payment failed", Total: decimal.Zero}
	}

	c.logger.Info("payment settled",
		"table", settlement.Table,
		"total", money.Format(settlement.Total),
		"lines", len(settlement.Lines),
	)
	if c.server.config.OnSettle != nil {
		c.server.config.OnSettle(settlement)
	}
	return protocol.PayResponse{OK: true, Message: "paid", Total: settlement.Total}
}
