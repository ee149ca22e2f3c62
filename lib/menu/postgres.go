// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menu

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tabkeeper/tabkeeper/lib/money"
)

// Querier is the subset of *pgxpool.Pool and *pgx.Conn used by
// PostgresSource.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error)
}

// PostgresSource reads the menu from the menu_items table.
type PostgresSource struct {
	Database Querier

	// Logger receives warnings for skipped rows. Nil discards them.
	Logger *slog.Logger
}

const createMenuTable = `
CREATE TABLE IF NOT EXISTS menu_items (
	id    INTEGER PRIMARY KEY CHECK (id > 0),
	name  TEXT NOT NULL,
	price NUMERIC(14, 2) NOT NULL CHECK (price >= 0)
)`

const seedMenuItem = `
INSERT INTO menu_items (id, name, price) VALUES ($1, $2, $3::numeric)
ON CONFLICT (id) DO NOTHING`

const selectMenu = `SELECT id, name, price::text FROM menu_items ORDER BY id`

// Load ensures the table exists, seeds it with the house menu when it
// has no rows, and returns every row ordered by id.
func (s *PostgresSource) Load(ctx context.Context) ([]Item, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if _, err := s.Database.Exec(ctx, createMenuTable); err != nil {
		return nil, fmt.Errorf("creating menu_items: %w", err)
	}

	items, err := s.readItems(ctx, logger)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		return items, nil
	}

	for _, item := range HouseMenu() {
		if _, err := s.Database.Exec(ctx, seedMenuItem, item.ID, item.Name, item.Price.String()); err != nil {
			return nil, fmt.Errorf("seeding menu item %d: %w", item.ID, err)
		}
	}
	logger.Warn("menu_items was empty, seeded house menu")
	return s.readItems(ctx, logger)
}

func (s *PostgresSource) readItems(ctx context.Context, logger *slog.Logger) ([]Item, error) {
	rows, err := s.Database.Query(ctx, selectMenu)
	if err != nil {
		return nil, fmt.Errorf("querying menu_items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			id        int32
			name      string
			priceText string
		)
		if err := rows.Scan(&id, &name, &priceText); err != nil {
			logger.Warn("skipping menu row", "error", err)
			continue
		}
		price, err := money.Parse(priceText)
		if err != nil {
			logger.Warn("skipping menu row: bad price", "id", id, "error", err)
			continue
		}
		items = append(items, Item{ID: id, Name: name, Price: price})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading menu_items: %w", err)
	}
	return items, nil
}
