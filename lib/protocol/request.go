// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"
	"io"
)

// Request is one decoded client request. The concrete types are
// [GetMenuRequest], [OrderRequest], [GetOrdersRequest], [PayRequest]
// and [QuitRequest]; the interface cannot be implemented outside this
// package.
type Request interface {
	// Type returns the packet tag written ahead of the fields.
	Type() PacketType

	encodeFields(encoder *payloadEncoder)
}

// GetMenuRequest asks for the menu. No fields.
type GetMenuRequest struct{}

// OrderRequest adds Quantity units of menu item ItemID to Table's tab.
type OrderRequest struct {
	Table    int32
	ItemID   int32
	Quantity int32
}

// GetOrdersRequest asks for a summary of every open tab. No fields.
type GetOrdersRequest struct{}

// PayRequest settles Table's tab.
type PayRequest struct {
	Table int32
}

// QuitRequest ends the session. The server sends nothing back.
type QuitRequest struct{}

func (GetMenuRequest) Type() PacketType   { return PacketGetMenu }
func (OrderRequest) Type() PacketType     { return PacketOrder }
func (GetOrdersRequest) Type() PacketType { return PacketGetOrders }
func (PayRequest) Type() PacketType       { return PacketPay }
func (QuitRequest) Type() PacketType      { return PacketQuit }

func (GetMenuRequest) encodeFields(*payloadEncoder)   {}
func (GetOrdersRequest) encodeFields(*payloadEncoder) {}
func (QuitRequest) encodeFields(*payloadEncoder)      {}

func (r OrderRequest) encodeFields(encoder *payloadEncoder) {
	encoder.int32(r.Table)
	encoder.int32(r.ItemID)
	encoder.int32(r.Quantity)
}

func (r PayRequest) encodeFields(encoder *payloadEncoder) {
	encoder.int32(r.Table)
}

// EncodeRequest returns the payload for request: the packet tag
// followed by the request's fields.
func EncodeRequest(request Request) []byte {
	encoder := &payloadEncoder{}
	encoder.int32(int32(request.Type()))
	request.encodeFields(encoder)
	return encoder.buffer
}

// DecodeRequest parses a request payload. Every failure wraps
// ErrMalformedFrame.
func DecodeRequest(payload []byte) (Request, error) {
	decoder := newPayloadDecoder(payload)
	packetType := PacketType(decoder.int32())
	if decoder.err != nil {
		return nil, fmt.Errorf("%w: missing packet type: %v", ErrMalformedFrame, decoder.err)
	}

	var request Request
	switch packetType {
	case PacketGetMenu:
		request = GetMenuRequest{}
	case PacketOrder:
		table := decoder.int32()
		itemID := decoder.int32()
		quantity := decoder.int32()
		request = OrderRequest{Table: table, ItemID: itemID, Quantity: quantity}
	case PacketGetOrders:
		request = GetOrdersRequest{}
	case PacketPay:
		request = PayRequest{Table: decoder.int32()}
	case PacketQuit:
		request = QuitRequest{}
	default:
		return nil, fmt.Errorf("%w: unknown packet type %d", ErrMalformedFrame, int32(packetType))
	}

	if err := decoder.finish(); err != nil {
		return nil, fmt.Errorf("%w: %s request: %v", ErrMalformedFrame, packetType, err)
	}
	return request, nil
}

// ReadRequest reads one frame from r and decodes it as a request. See
// ReadFrame for the meaning of maxSize and the io.EOF convention.
func ReadRequest(r io.Reader, maxSize int) (Request, error) {
	payload, err := ReadFrame(r, maxSize)
	if err != nil {
		return nil, err
	}
	return DecodeRequest(payload)
}

// WriteRequest encodes request and writes it to w as one frame.
func WriteRequest(w io.Writer, request Request) error {
	return WriteFrame(w, EncodeRequest(request))
}
