// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"
)

// payloadEncoder appends payload fields to a growing buffer.
type payloadEncoder struct {
	buffer []byte
}

func (e *payloadEncoder) int32(value int32) {
	e.buffer = binary.LittleEndian.AppendUint32(e.buffer, uint32(value))
}

func (e *payloadEncoder) int64(value int64) {
	e.buffer = binary.LittleEndian.AppendUint64(e.buffer, uint64(value))
}

func (e *payloadEncoder) bool(value bool) {
	if value {
		e.buffer = append(e.buffer, 1)
		return
	}
	e.buffer = append(e.buffer, 0)
}

func (e *payloadEncoder) bytes(value []byte) {
	e.buffer = binary.AppendUvarint(e.buffer, uint64(len(value)))
	e.buffer = append(e.buffer, value...)
}

func (e *payloadEncoder) string(value string) {
	e.buffer = binary.AppendUvarint(e.buffer, uint64(len(value)))
	e.buffer = append(e.buffer, value...)
}

var errShortPayload = errors.New("payload too short")

// payloadDecoder reads payload fields in order. The first failure is
// sticky: later reads return zero values and err keeps the original
// cause, so callers check once after reading a whole layout.
type payloadDecoder struct {
	data   []byte
	offset int
	err    error
}

func newPayloadDecoder(data []byte) *payloadDecoder {
	return &payloadDecoder{data: data}
}

func (d *payloadDecoder) take(count int) []byte {
	if d.err != nil {
		return nil
	}
	if count < 0 || len(d.data)-d.offset < count {
		d.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			errShortPayload, count, d.offset, len(d.data)-d.offset)
		return nil
	}
	chunk := d.data[d.offset : d.offset+count]
	d.offset += count
	return chunk
}

func (d *payloadDecoder) int32() int32 {
	chunk := d.take(4)
	if chunk == nil {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(chunk))
}

func (d *payloadDecoder) int64() int64 {
	chunk := d.take(8)
	if chunk == nil {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(chunk))
}

func (d *payloadDecoder) bool() bool {
	chunk := d.take(1)
	if chunk == nil {
		return false
	}
	return chunk[0] != 0
}

func (d *payloadDecoder) bytes() []byte {
	if d.err != nil {
		return nil
	}
	length, width := binary.Uvarint(d.data[d.offset:])
	if width <= 0 {
		d.err = fmt.Errorf("invalid length prefix at offset %d", d.offset)
		return nil
	}
	if length > uint64(len(d.data)-d.offset-width) {
		d.err = fmt.Errorf("%w: declared field length %d past end of payload", errShortPayload, length)
		return nil
	}
	d.offset += width
	chunk := d.take(int(length))
	if chunk == nil {
		return nil
	}
	return append([]byte(nil), chunk...)
}

func (d *payloadDecoder) string() string {
	raw := d.bytes()
	if d.err != nil {
		return ""
	}
	if !utf8.Valid(raw) {
		d.err = fmt.Errorf("string field at offset %d is not valid UTF-8", d.offset-len(raw))
		return ""
	}
	return string(raw)
}

// finish returns the first decode error, or an error if bytes remain
// after the expected layout.
func (d *payloadDecoder) finish() error {
	if d.err != nil {
		return d.err
	}
	if remaining := len(d.data) - d.offset; remaining != 0 {
		return fmt.Errorf("%d unexpected trailing bytes", remaining)
	}
	return nil
}
