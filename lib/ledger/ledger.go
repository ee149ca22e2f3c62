// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/tabkeeper/tabkeeper/lib/menu"
	"github.com/tabkeeper/tabkeeper/lib/money"
)

var (
	// ErrUnknownItem means an order referenced a menu id that is not on
	// the menu.
	ErrUnknownItem = errors.New("unknown menu item")

	// ErrInvalidQuantity means an order asked for fewer than one or
	// more than MaxQuantity units.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrNoOpenTab means a table with nothing owed was asked to pay.
	ErrNoOpenTab = errors.New("no open tab")
)

// MaxQuantity bounds the units accepted in one order. Each unit is a
// separate line item, so the bound also bounds the memory and the time
// spent under the lock for one request.
const MaxQuantity = 1000

// Summary is one grouped line of a table's tab: Quantity units of the
// item, costing Total.
type Summary struct {
	Table    int32
	ItemID   int32
	ItemName string
	Quantity int32
	Total    decimal.Decimal
}

// Settlement is the result of paying a table's tab.
type Settlement struct {
	Table int32
	Total decimal.Decimal
	// Lines are the paid line items grouped by menu item, in the order
	// each item was first ordered.
	Lines []Summary
}

// Ledger is the set of open tabs. Use New to create one.
type Ledger struct {
	menu *menu.Snapshot

	mu   sync.Mutex
	tabs map[int32][]menu.Item
}

// New creates an empty ledger that resolves orders against snapshot.
func New(snapshot *menu.Snapshot) *Ledger {
	return &Ledger{
		menu: snapshot,
		tabs: make(map[int32][]menu.Item),
	}
}

// PlaceOrder appends quantity units of the menu item itemID to table's
// tab, opening the tab if the table has none. Returns ErrUnknownItem or
// ErrInvalidQuantity without changing the ledger.
func (l *Ledger) PlaceOrder(table, itemID, quantity int32) (menu.Item, error) {
	item, ok := l.menu.Lookup(itemID)
	if !ok {
		return menu.Item{}, fmt.Errorf("%w: %d", ErrUnknownItem, itemID)
	}
	if quantity <= 0 || quantity > MaxQuantity {
		return menu.Item{}, fmt.Errorf("%w (1 to %d): got %d", ErrInvalidQuantity, MaxQuantity, quantity)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	lines := l.tabs[table]
	for range quantity {
		lines = append(lines, item)
	}
	l.tabs[table] = lines
	return item, nil
}

// Summarize returns every open tab grouped by menu item. Rows are
// ordered by table number, and within a table by the order in which
// each item was first ordered.
func (l *Ledger) Summarize() []Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	tables := make([]int32, 0, len(l.tabs))
	for table := range l.tabs {
		tables = append(tables, table)
	}
	slices.Sort(tables)

	var rows []Summary
	for _, table := range tables {
		rows = append(rows, group(table, l.tabs[table])...)
	}
	return rows
}

// Settle computes table's total, removes its tab and returns both the
// total and the paid lines. Returns ErrNoOpenTab, with a zero total,
// when the table owes nothing.
func (l *Ledger) Settle(table int32) (Settlement, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lines, ok := l.tabs[table]
	if !ok {
		return Settlement{Table: table, Total: decimal.Zero}, fmt.Errorf("%w for table %d", ErrNoOpenTab, table)
	}
	delete(l.tabs, table)

	grouped := group(table, lines)
	totals := make([]decimal.Decimal, len(grouped))
	for index, row := range grouped {
		totals[index] = row.Total
	}
	return Settlement{Table: table, Total: money.Sum(totals...), Lines: grouped}, nil
}

// OpenTables returns the number of tables with an open tab.
func (l *Ledger) OpenTables() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tabs)
}

// group collapses a table's line items into one Summary per menu item,
// in first-ordered order.
func group(table int32, lines []menu.Item) []Summary {
	var rows []Summary
	position := make(map[int32]int)
	for _, line := range lines {
		index, seen := position[line.ID]
		if !seen {
			position[line.ID] = len(rows)
			rows = append(rows, Summary{
				Table:    table,
				ItemID:   line.ID,
				ItemName: line.Name,
				Total:    decimal.Zero,
			})
			index = len(rows) - 1
		}
		rows[index].Quantity++
		rows[index].Total = rows[index].Total.Add(line.Price)
	}
	return rows
}
