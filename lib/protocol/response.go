// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/tabkeeper/tabkeeper/lib/codec"
	"github.com/tabkeeper/tabkeeper/lib/money"
)

// Response is one encodable server reply. The concrete types are
// [MenuResponse], [OrderResponse], [OrdersResponse] and [PayResponse].
type Response interface {
	encodePayload(encoder *payloadEncoder) error
}

// MenuEntry is one row of the menu as seen by a terminal.
type MenuEntry struct {
	ID    int32
	Name  string
	Price decimal.Decimal
}

// OrderRow is one grouped line of an open tab: Quantity units of one
// menu item ordered by Table, costing Total in all.
type OrderRow struct {
	Table    int32
	ItemID   int32
	ItemName string
	Quantity int32
	Total    decimal.Decimal
}

// MenuResponse answers GetMenuRequest.
type MenuResponse struct {
	OK    bool
	Items []MenuEntry
}

// OrderResponse answers OrderRequest. Message explains a failure, or
// acknowledges success.
type OrderResponse struct {
	OK      bool
	Message string
}

// OrdersResponse answers GetOrdersRequest.
type OrdersResponse struct {
	OK   bool
	Rows []OrderRow
}

// PayResponse answers PayRequest. Total is zero when OK is false.
type PayResponse struct {
	OK      bool
	Message string
	Total   decimal.Decimal
}

// menuEntryWire and orderRowWire are the CBOR shapes of the list
// payloads. Money is carried as integer minor units.
type menuEntryWire struct {
	ID         int32  `cbor:"id"`
	Name       string `cbor:"name"`
	PriceMinor int64  `cbor:"price_minor"`
}

type orderRowWire struct {
	Table      int32  `cbor:"table"`
	ItemID     int32  `cbor:"item_id"`
	ItemName   string `cbor:"item_name"`
	Quantity   int32  `cbor:"quantity"`
	TotalMinor int64  `cbor:"total_minor"`
}

func (r MenuResponse) encodePayload(encoder *payloadEncoder) error {
	entries := make([]menuEntryWire, len(r.Items))
	for index, item := range r.Items {
		minor, err := money.ToMinor(item.Price)
		if err != nil {
			return fmt.Errorf("menu item %d: %w", item.ID, err)
		}
		entries[index] = menuEntryWire{ID: item.ID, Name: item.Name, PriceMinor: minor}
	}
	list, err := codec.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding menu list: %w", err)
	}
	encoder.bool(r.OK)
	encoder.bytes(list)
	return nil
}

func (r OrderResponse) encodePayload(encoder *payloadEncoder) error {
	encoder.bool(r.OK)
	encoder.string(r.Message)
	return nil
}

func (r OrdersResponse) encodePayload(encoder *payloadEncoder) error {
	rows := make([]orderRowWire, len(r.Rows))
	for index, row := range r.Rows {
		minor, err := money.ToMinor(row.Total)
		if err != nil {
			return fmt.Errorf("table %d item %d: %w", row.Table, row.ItemID, err)
		}
		rows[index] = orderRowWire{
			Table:      row.Table,
			ItemID:     row.ItemID,
			ItemName:   row.ItemName,
			Quantity:   row.Quantity,
			TotalMinor: minor,
		}
	}
	list, err := codec.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encoding order list: %w", err)
	}
	encoder.bool(r.OK)
	encoder.bytes(list)
	return nil
}

func (r PayResponse) encodePayload(encoder *payloadEncoder) error {
	minor, err := money.ToMinor(r.Total)
	if err != nil {
		return fmt.Errorf("pay total: %w", err)
	}
	encoder.bool(r.OK)
	encoder.string(r.Message)
	encoder.int64(minor)
	return nil
}

// EncodeResponse returns the payload for response.
func EncodeResponse(response Response) ([]byte, error) {
	encoder := &payloadEncoder{}
	if err := response.encodePayload(encoder); err != nil {
		return nil, err
	}
	return encoder.buffer, nil
}

// WriteResponse encodes response and writes it to w as one frame.
// Nothing is written if encoding fails.
func WriteResponse(w io.Writer, response Response) error {
	payload, err := EncodeResponse(response)
	if err != nil {
		return err
	}
	return WriteFrame(w, payload)
}

// DecodeMenuResponse parses the payload of a reply to GetMenuRequest.
func DecodeMenuResponse(payload []byte) (MenuResponse, error) {
	decoder := newPayloadDecoder(payload)
	ok := decoder.bool()
	list := decoder.bytes()
	if err := decoder.finish(); err != nil {
		return MenuResponse{}, fmt.Errorf("%w: menu response: %v", ErrMalformedFrame, err)
	}

	var entries []menuEntryWire
	if err := codec.Unmarshal(list, &entries); err != nil {
		return MenuResponse{}, fmt.Errorf("%w: menu list: %v", ErrMalformedFrame, err)
	}
	response := MenuResponse{OK: ok, Items: make([]MenuEntry, len(entries))}
	for index, entry := range entries {
		response.Items[index] = MenuEntry{
			ID:    entry.ID,
			Name:  entry.Name,
			Price: money.FromMinor(entry.PriceMinor),
		}
	}
	return response, nil
}

// DecodeOrderResponse parses the payload of a reply to OrderRequest.
func DecodeOrderResponse(payload []byte) (OrderResponse, error) {
	decoder := newPayloadDecoder(payload)
	response := OrderResponse{OK: decoder.bool(), Message: decoder.string()}
	if err := decoder.finish(); err != nil {
		return OrderResponse{}, fmt.Errorf("%w: order response: %v", ErrMalformedFrame, err)
	}
	return response, nil
}

// DecodeOrdersResponse parses the payload of a reply to
// GetOrdersRequest.
func DecodeOrdersResponse(payload []byte) (OrdersResponse, error) {
	decoder := newPayloadDecoder(payload)
	ok := decoder.bool()
	list := decoder.bytes()
	if err := decoder.finish(); err != nil {
		return OrdersResponse{}, fmt.Errorf("%w: orders response: %v", ErrMalformedFrame, err)
	}

	var rows []orderRowWire
	if err := codec.Unmarshal(list, &rows); err != nil {
		return OrdersResponse{}, fmt.Errorf("%w: order list: %v", ErrMalformedFrame, err)
	}
	response := OrdersResponse{OK: ok, Rows: make([]OrderRow, len(rows))}
	for index, row := range rows {
		response.Rows[index] = OrderRow{
			Table:    row.Table,
			ItemID:   row.ItemID,
			ItemName: row.ItemName,
			Quantity: row.Quantity,
			Total:    money.FromMinor(row.TotalMinor),
		}
	}
	return response, nil
}

// DecodePayResponse parses the payload of a reply to PayRequest.
func DecodePayResponse(payload []byte) (PayResponse, error) {
	decoder := newPayloadDecoder(payload)
	ok := decoder.bool()
	message := decoder.string()
	totalMinor := decoder.int64()
	if err := decoder.finish(); err != nil {
		return PayResponse{}, fmt.Errorf("%w: pay response: %v", ErrMalformedFrame, err)
	}
	return PayResponse{OK: ok, Message: message, Total: money.FromMinor(totalMinor)}, nil
}
