// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package protocol implements the terminal wire format: the framing
// layer, the fixed-layout request payloads, and the response payloads.
//
// Every message is a frame:
//
//	[int32 length L, little-endian] [L bytes of payload]
//
// A request payload starts with an int32 [PacketType] tag followed by
// the fields of that request kind. Responses carry no tag: a connection
// is strictly request/response, so the client already knows which
// response shape to expect. A [QuitRequest] has no response.
//
// Field encodings inside a payload:
//
//   - int32 and int64: little-endian two's complement.
//   - bool: one byte, zero is false.
//   - string and bytes: unsigned LEB128 length followed by the bytes.
//     This is the 7-bit length encoding produced by .NET BinaryWriter,
//     so existing terminals interoperate. Strings must be valid UTF-8.
//   - amount: int64 count of minor units (see lib/money).
//
// The menu and the open-tab summary are variable-length lists. They
// travel as a CBOR item (lib/codec) inside a bytes field, with money as
// integer minor units.
//
// [DecodeRequest] returns one concrete type per request kind behind the
// sealed [Request] interface, so the server dispatches with a type
// switch rather than re-reading fields by tag. Every decode failure
// (truncated frame, oversized length, unknown tag, short or overlong
// fixed layout) wraps [ErrMalformedFrame]. A clean end of stream before
// the first byte of a frame is reported as io.EOF.
package protocol
