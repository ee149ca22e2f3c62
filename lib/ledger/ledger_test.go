// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tabkeeper/tabkeeper/lib/menu"
)

const (
	tea  int32 = 1
	rice int32 = 2
	pho  int32 = 3
)

func testMenu() *menu.Snapshot {
	return menu.NewSnapshot([]menu.Item{
		{ID: tea, Name: "Tea", Price: decimal.NewFromInt(5000)},
		{ID: rice, Name: "Rice", Price: decimal.NewFromInt(40000)},
		{ID: pho, Name: "Pho", Price: decimal.RequireFromString("50000.25")},
	})
}

func mustOrder(t *testing.T, ledger *Ledger, table, itemID, quantity int32) {
	t.Helper()
	if _, err := ledger.PlaceOrder(table, itemID, quantity); err != nil {
		t.Fatalf("PlaceOrder(%d, %d, %d): %v", table, itemID, quantity, err)
	}
}

func TestSettleTotalsAllOrders(t *testing.T) {
	t.Parallel()
	ledger := New(testMenu())
	mustOrder(t, ledger, 3, tea, 2)
	mustOrder(t, ledger, 3, rice, 1)
	mustOrder(t, ledger, 3, tea, 1)
	mustOrder(t, ledger, 4, pho, 1)

	settlement, err := ledger.Settle(3)
	if err != nil {
		t.Fatalf("Settle(3): %v", err)
	}
	if !settlement.Total.Equal(decimal.NewFromInt(55000)) {
		t.Errorf("total = %s, want 55000", settlement.Total)
	}
	want := []Summary{
		{Table: 3, ItemID: tea, ItemName: "Tea", Quantity: 3, Total: decimal.NewFromInt(15000)},
		{Table: 3, ItemID: rice, ItemName: "Rice", Quantity: 1, Total: decimal.NewFromInt(40000)},
	}
	assertSummaries(t, settlement.Lines, want)

	// Table 4 is untouched.
	if ledger.OpenTables() != 1 {
		t.Errorf("OpenTables() = %d, want 1", ledger.OpenTables())
	}
}

func TestSettleWithoutTab(t *testing.T) {
	t.Parallel()
	ledger := New(testMenu())
	mustOrder(t, ledger, 1, tea, 1)
	before := ledger.Summarize()

	settlement, err := ledger.Settle(9)
	if !errors.Is(err, ErrNoOpenTab) {
		t.Fatalf("Settle(9): got %v, want ErrNoOpenTab", err)
	}
	if !settlement.Total.IsZero() {
		t.Errorf("total = %s, want 0", settlement.Total)
	}
	assertSummaries(t, ledger.Summarize(), before)
}

func TestSettleTwice(t *testing.T) {
	t.Parallel()
	ledger := New(testMenu())
	mustOrder(t, ledger, 2, rice, 1)

	if _, err := ledger.Settle(2); err != nil {
		t.Fatalf("first Settle: %v", err)
	}
	if _, err := ledger.Settle(2); !errors.Is(err, ErrNoOpenTab) {
		t.Fatalf("second Settle: got %v, want ErrNoOpenTab", err)
	}
}

func TestSettleStartsFreshTab(t *testing.T) {
	t.Parallel()
	ledger := New(testMenu())
	mustOrder(t, ledger, 5, rice, 2)
	if _, err := ledger.Settle(5); err != nil {
		t.Fatalf("Settle: %v", err)
	}

	for _, row := range ledger.Summarize() {
		if row.Table == 5 {
			t.Fatalf("settled table still summarized: %+v", row)
		}
	}
	if ledger.OpenTables() != 0 {
		t.Errorf("OpenTables() = %d after settling the only tab", ledger.OpenTables())
	}

	mustOrder(t, ledger, 5, tea, 1)
	settlement, err := ledger.Settle(5)
	if err != nil {
		t.Fatalf("Settle fresh tab: %v", err)
	}
	if !settlement.Total.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("fresh tab total = %s, want 5000", settlement.Total)
	}
}

func TestPlaceOrderRejections(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		itemID   int32
		quantity int32
		want     error
	}{
		{name: "unknown item", itemID: 42, quantity: 1, want: ErrUnknownItem},
		{name: "zero quantity", itemID: tea, quantity: 0, want: ErrInvalidQuantity},
		{name: "negative quantity", itemID: tea, quantity: -3, want: ErrInvalidQuantity},
		{name: "quantity above maximum", itemID: tea, quantity: MaxQuantity + 1, want: ErrInvalidQuantity},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			ledger := New(testMenu())
			mustOrder(t, ledger, 7, rice, 2)
			before := ledger.Summarize()

			if _, err := ledger.PlaceOrder(7, test.itemID, test.quantity); !errors.Is(err, test.want) {
				t.Fatalf("PlaceOrder: got %v, want %v", err, test.want)
			}
			assertSummaries(t, ledger.Summarize(), before)

			if _, err := ledger.PlaceOrder(8, test.itemID, test.quantity); !errors.Is(err, test.want) {
				t.Fatalf("PlaceOrder on empty table: got %v, want %v", err, test.want)
			}
			if ledger.OpenTables() != 1 {
				t.Errorf("rejected order opened a tab: OpenTables() = %d", ledger.OpenTables())
			}
		})
	}
}

func TestPlaceOrderReturnsItem(t *testing.T) {
	t.Parallel()
	ledger := New(testMenu())
	item, err := ledger.PlaceOrder(1, pho, 1)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if item.Name != "Pho" {
		t.Errorf("item = %+v", item)
	}
}

func TestSummarizeOrdering(t *testing.T) {
	t.Parallel()
	ledger := New(testMenu())
	mustOrder(t, ledger, 9, rice, 1)
	mustOrder(t, ledger, 2, pho, 1)
	mustOrder(t, ledger, 9, tea, 2)
	mustOrder(t, ledger, 2, tea, 1)
	mustOrder(t, ledger, 9, rice, 1)

	want := []Summary{
		{Table: 2, ItemID: pho, ItemName: "Pho", Quantity: 1, Total: decimal.RequireFromString("50000.25")},
		{Table: 2, ItemID: tea, ItemName: "Tea", Quantity: 1, Total: decimal.NewFromInt(5000)},
		{Table: 9, ItemID: rice, ItemName: "Rice", Quantity: 2, Total: decimal.NewFromInt(80000)},
		{Table: 9, ItemID: tea, ItemName: "Tea", Quantity: 2, Total: decimal.NewFromInt(10000)},
	}
	assertSummaries(t, ledger.Summarize(), want)
}

func TestSummarizeEmpty(t *testing.T) {
	t.Parallel()
	if rows := New(testMenu()).Summarize(); len(rows) != 0 {
		t.Errorf("empty ledger summarized %d rows", len(rows))
	}
}

func TestRandomOrderSequencesSettleToSum(t *testing.T) {
	t.Parallel()
	snapshot := testMenu()
	items := snapshot.Items()
	random := rand.New(rand.NewPCG(1, 2))

	for round := range 20 {
		ledger := New(snapshot)
		expected := map[int32]decimal.Decimal{}
		for range 50 {
			table := random.Int32N(5) + 1
			item := items[random.IntN(len(items))]
			quantity := random.Int32N(4) + 1
			mustOrder(t, ledger, table, item.ID, quantity)
			current, ok := expected[table]
			if !ok {
				current = decimal.Zero
			}
			expected[table] = current.Add(item.Price.Mul(decimal.NewFromInt32(quantity)))
		}
		for table, want := range expected {
			settlement, err := ledger.Settle(table)
			if err != nil {
				t.Fatalf("round %d Settle(%d): %v", round, table, err)
			}
			if !settlement.Total.Equal(want) {
				t.Errorf("round %d table %d: total %s, want %s", round, table, settlement.Total, want)
			}
		}
	}
}

func TestConcurrentOrdersSameTable(t *testing.T) {
	t.Parallel()
	ledger := New(testMenu())

	const workers = 32
	const ordersPerWorker = 50
	var wg sync.WaitGroup
	for worker := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			itemID := []int32{tea, rice, pho}[worker%3]
			for range ordersPerWorker {
				if _, err := ledger.PlaceOrder(1, itemID, 2); err != nil {
					t.Errorf("worker %d PlaceOrder: %v", worker, err)
					return
				}
			}
		}()
	}

	// Summaries run alongside the orders and must always see whole
	// orders: every row's quantity is a multiple of the 2 units each
	// PlaceOrder adds.
	done := make(chan struct{})
	summarizeErrors := make(chan error, 1)
	go func() {
		defer close(summarizeErrors)
		for {
			select {
			case <-done:
				return
			default:
			}
			for _, row := range ledger.Summarize() {
				if row.Quantity%2 != 0 {
					summarizeErrors <- fmt.Errorf("torn summary row: %+v", row)
					return
				}
			}
		}
	}()

	wg.Wait()
	close(done)
	if err := <-summarizeErrors; err != nil {
		t.Error(err)
	}

	want := decimal.Zero
	for worker := range workers {
		item, _ := testMenu().Lookup([]int32{tea, rice, pho}[worker%3])
		want = want.Add(item.Price.Mul(decimal.NewFromInt(2 * ordersPerWorker)))
	}
	settlement, err := ledger.Settle(1)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if !settlement.Total.Equal(want) {
		t.Errorf("total = %s, want %s", settlement.Total, want)
	}
}

func TestConcurrentSettleAndOrder(t *testing.T) {
	t.Parallel()
	ledger := New(testMenu())

	// Every unit ordered must be paid exactly once across all
	// settlements plus the final remainder.
	const orders = 500
	var wg sync.WaitGroup
	var paidMu sync.Mutex
	paid := decimal.Zero

	wg.Add(2)
	go func() {
		defer wg.Done()
		for range orders {
			if _, err := ledger.PlaceOrder(6, tea, 1); err != nil {
				t.Errorf("PlaceOrder: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for range orders {
			settlement, err := ledger.Settle(6)
			if err != nil {
				continue
			}
			paidMu.Lock()
			paid = paid.Add(settlement.Total)
			paidMu.Unlock()
		}
	}()
	wg.Wait()

	if settlement, err := ledger.Settle(6); err == nil {
		paid = paid.Add(settlement.Total)
	}
	want := decimal.NewFromInt(5000 * orders)
	if !paid.Equal(want) {
		t.Errorf("paid %s in total, want %s", paid, want)
	}
}

func assertSummaries(t *testing.T, got, want []Summary) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d rows, want %d:\n got  %+v\n want %+v", len(got), len(want), got, want)
	}
	for index := range want {
		g, w := got[index], want[index]
		if !g.Total.Equal(w.Total) {
			t.Errorf("row %d total: got %s, want %s", index, g.Total, w.Total)
		}
		g.Total, w.Total = decimal.Zero, decimal.Zero
		if !reflect.DeepEqual(g, w) {
			t.Errorf("row %d: got %+v, want %+v", index, got[index], want[index])
		}
	}
}
