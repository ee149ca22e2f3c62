// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menu

import (
	"encoding/hex"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/zeebo/blake3"

	"github.com/tabkeeper/tabkeeper/lib/codec"
	"github.com/tabkeeper/tabkeeper/lib/money"
)

// Item is one dish or drink on the menu.
type Item struct {
	ID    int32
	Name  string
	Price decimal.Decimal
}

// Snapshot is the loaded menu. The zero value is an empty menu.
type Snapshot struct {
	items       []Item
	index       map[int32]int
	fingerprint string
}

// NewSnapshot builds a snapshot from items, preserving their order.
// Items with a non-positive id, an empty name or a negative price are
// dropped, as are prices too large for the wire and later items that
// repeat an earlier id. Prices are rounded to money.Scale fractional
// digits.
func NewSnapshot(items []Item) *Snapshot {
	snapshot := &Snapshot{
		items: make([]Item, 0, len(items)),
		index: make(map[int32]int, len(items)),
	}
	for _, item := range items {
		item.Name = strings.TrimSpace(item.Name)
		if item.ID <= 0 || item.Name == "" || item.Price.IsNegative() {
			continue
		}
		if _, exists := snapshot.index[item.ID]; exists {
			continue
		}
		item.Price = money.Normalize(item.Price)
		if _, err := money.ToMinor(item.Price); err != nil {
			continue
		}
		snapshot.index[item.ID] = len(snapshot.items)
		snapshot.items = append(snapshot.items, item)
	}
	snapshot.fingerprint = fingerprint(snapshot.items)
	return snapshot
}

// Lookup returns the item with the given id.
func (s *Snapshot) Lookup(id int32) (Item, bool) {
	position, ok := s.index[id]
	if !ok {
		return Item{}, false
	}
	return s.items[position], true
}

// Items returns the menu in load order. The slice is a copy.
func (s *Snapshot) Items() []Item {
	result := make([]Item, len(s.items))
	copy(result, s.items)
	return result
}

// Len returns the number of items.
func (s *Snapshot) Len() int {
	return len(s.items)
}

// Fingerprint returns a hex BLAKE3 digest of the menu contents. Two
// snapshots with the same items in the same order have the same
// fingerprint.
func (s *Snapshot) Fingerprint() string {
	if s.fingerprint == "" {
		return fingerprint(nil)
	}
	return s.fingerprint
}

// fingerprintEntry is the canonical form hashed for Fingerprint.
type fingerprintEntry struct {
	ID         int32  `cbor:"1,keyasint"`
	Name       string `cbor:"2,keyasint"`
	PriceMinor int64  `cbor:"3,keyasint"`
}

func fingerprint(items []Item) string {
	entries := make([]fingerprintEntry, len(items))
	for index, item := range items {
		// NewSnapshot already dropped prices ToMinor rejects.
		minor, _ := money.ToMinor(item.Price)
		entries[index] = fingerprintEntry{ID: item.ID, Name: item.Name, PriceMinor: minor}
	}
	data, err := codec.Marshal(entries)
	if err != nil {
		panic("menu: encoding fingerprint entries: " + err.Error())
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:16])
}
