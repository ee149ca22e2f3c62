// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menu

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Source produces the menu in display order. Load is called once at
// startup.
type Source interface {
	Load(ctx context.Context) ([]Item, error)
}

// Load reads items from source and builds a Snapshot.
func Load(ctx context.Context, source Source) (*Snapshot, error) {
	items, err := source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading menu: %w", err)
	}
	return NewSnapshot(items), nil
}

// HouseMenu returns the built-in menu written when no menu exists yet.
// The contents never change between releases so that a fresh install
// always starts from the same ids.
func HouseMenu() []Item {
	return []Item{
		{ID: 1, Name: "Phở Bò Tái", Price: decimal.NewFromInt(50000)},
		{ID: 2, Name: "Cơm Tấm Sườn", Price: decimal.NewFromInt(40000)},
		{ID: 3, Name: "Bún Chả Hà Nội", Price: decimal.NewFromInt(45000)},
		{ID: 4, Name: "Trà Đá", Price: decimal.NewFromInt(5000)},
		{ID: 5, Name: "Bánh Mì Pate", Price: decimal.NewFromInt(20000)},
	}
}

// StaticSource serves a fixed list of items. Useful for tests and for
// embedding a menu in another program.
type StaticSource []Item

// Load returns a copy of the items.
func (s StaticSource) Load(context.Context) ([]Item, error) {
	items := make([]Item, len(s))
	copy(items, s)
	return items, nil
}
