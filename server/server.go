// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/tabkeeper/tabkeeper/lib/ledger"
	"github.com/tabkeeper/tabkeeper/lib/menu"
	"github.com/tabkeeper/tabkeeper/lib/protocol"
)

// ErrStartup wraps failures that prevent the server from listening at
// all, such as the address already being in use.
var ErrStartup = errors.New("server startup failed")

// Config controls listener and per-connection behavior.
type Config struct {
	// Address is the TCP address ListenAndServe binds, e.g. ":8888".
	Address string

	// IdleTimeout closes a connection that sends no complete request
	// for this long. Zero disables the timeout.
	IdleTimeout time.Duration

	// WriteTimeout bounds writing one response. Zero disables it.
	WriteTimeout time.Duration

	// MaxConnections caps simultaneous connections. Connections beyond
	// the cap are closed as soon as they are accepted. Zero means no
	// cap.
	MaxConnections int

	// MaxFrameSize bounds the declared length of a request frame. Zero
	// means protocol.DefaultMaxFrameSize.
	MaxFrameSize int

	// OnSettle, if set, is called after each successful payment with
	// the paid lines. It runs on the paying connection's goroutine
	// after the ledger lock is released; it should hand the settlement
	// off (to a receipt printer, say) rather than block.
	OnSettle func(ledger.Settlement)
}

// Server serves the terminal protocol for one menu and one ledger.
type Server struct {
	config Config
	menu   *menu.Snapshot
	ledger *ledger.Ledger
	logger *slog.Logger

	// menuEntries is the menu in wire form, built once: the snapshot
	// never changes.
	menuEntries []protocol.MenuEntry

	// activeConnections tracks running handlers so Serve can wait for
	// all of them before returning.
	activeConnections sync.WaitGroup

	mu          sync.Mutex
	connections map[net.Conn]struct{}
	// closing is set once shutdown has begun; track refuses new
	// connections from then on.
	closing bool
}

// New creates a server. The ledger must have been created from the same
// snapshot.
func New(config Config, snapshot *menu.Snapshot, orders *ledger.Ledger, logger *slog.Logger) *Server {
	items := snapshot.Items()
	entries := make([]protocol.MenuEntry, len(items))
	for index, item := range items {
		entries[index] = protocol.MenuEntry{ID: item.ID, Name: item.Name, Price: item.Price}
	}
	return &Server{
		config:      config,
		menu:        snapshot,
		ledger:      orders,
		logger:      logger,
		menuEntries: entries,
		connections: make(map[net.Conn]struct{}),
	}
}

// ListenAndServe binds the configured address and calls Serve. A bind
// failure is returned wrapped in ErrStartup.
func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("%w: listening on %s: %w", ErrStartup, s.config.Address, err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is cancelled, then
// closes the listener and every open connection and waits for their
// handlers to finish. Serve owns listener and closes it on return.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	defer listener.Close()

	// Unblock Accept and every blocked connection read on cancellation.
	stopAfterCancel := context.AfterFunc(ctx, func() {
		listener.Close()
		s.closeConnections()
	})
	defer stopAfterCancel()

	s.logger.Info("listening",
		"address", listener.Addr().String(),
		"menu_items", s.menu.Len(),
		"menu_fingerprint", s.menu.Fingerprint(),
	)

	var acceptDelay time.Duration
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			// Typically EMFILE. Back off so a persistent failure does
			// not spin.
			if acceptDelay == 0 {
				acceptDelay = 5 * time.Millisecond
			} else if acceptDelay < time.Second {
				acceptDelay *= 2
			}
			s.logger.Error("accept failed", "error", err, "retry_in", acceptDelay)
			time.Sleep(acceptDelay)
			continue
		}
		acceptDelay = 0

		if !s.track(conn) {
			if ctx.Err() != nil {
				conn.Close()
				break
			}
			s.logger.Warn("rejecting connection: at capacity",
				"remote", conn.RemoteAddr().String(),
				"max_connections", s.config.MaxConnections,
			)
			conn.Close()
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			defer s.untrack(conn)
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	s.logger.Info("listener stopped", "open_tables", s.ledger.OpenTables())
	return nil
}

// track registers conn unless the connection cap is reached or the
// server is shutting down. Returns false if conn must be rejected.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	if s.config.MaxConnections > 0 && len(s.connections) >= s.config.MaxConnections {
		return false
	}
	s.connections[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.connections, conn)
	s.mu.Unlock()
}

func (s *Server) closeConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closing = true
	for conn := range s.connections {
		conn.Close()
	}
}

// ActiveConnections returns the number of connections being served.
func (s *Server) ActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.connections)
}
