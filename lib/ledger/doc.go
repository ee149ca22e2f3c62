// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ledger holds the open tabs of every table.
//
// A [Ledger] maps a table number to the line items ordered for it since
// the table was last settled. Each unit ordered is one line item, so
// ordering three teas appends three entries. A table appears in the
// ledger only while it owes something: [Ledger.Settle] removes it, and
// the next [Ledger.PlaceOrder] for that table starts a fresh tab.
//
// Every operation holds one mutex covering the whole map for its full
// duration, so operations are linearizable: a summary never sees half
// of an order, and an order that arrives after a settlement opens a new
// tab. Nothing blocks or performs I/O while the lock is held.
//
// Menu lookups happen before the lock is taken: the [menu.Snapshot] is
// immutable and safe for concurrent reads.
package ledger
