// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrMalformedFrame is wrapped by every error caused by bytes that do
// not form a valid frame or payload. The connection carrying such a
// frame cannot be resynchronized and must be closed.
var ErrMalformedFrame = errors.New("malformed frame")

// frameHeaderLength is the size of the length prefix.
const frameHeaderLength = 4

// DefaultMaxFrameSize bounds a frame's payload when the caller does not
// configure a limit. A full menu of a few hundred items is under 32 KB.
const DefaultMaxFrameSize = 1024 * 1024

// ReadFrame reads one frame from r and returns its payload. maxSize
// bounds the declared length; zero or negative means
// DefaultMaxFrameSize.
//
// Returns io.EOF, unwrapped, when r ends cleanly before the first byte
// of the length prefix. A stream that ends anywhere inside a frame
// yields an error wrapping ErrMalformedFrame. Transport errors from r
// are returned wrapped but otherwise unchanged.
func ReadFrame(r io.Reader, maxSize int) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFrameSize
	}

	var header [frameHeaderLength]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: stream closed inside length prefix", ErrMalformedFrame)
		}
		return nil, fmt.Errorf("read frame header: %w", err)
	}

	declared := int32(binary.LittleEndian.Uint32(header[:]))
	if declared < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrMalformedFrame, declared)
	}
	if int64(declared) > int64(maxSize) {
		return nil, fmt.Errorf("%w: length %d exceeds maximum %d", ErrMalformedFrame, declared, maxSize)
	}

	payload := make([]byte, declared)
	if declared > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%w: stream closed inside %d-byte payload", ErrMalformedFrame, declared)
			}
			return nil, fmt.Errorf("read frame payload: %w", err)
		}
	}
	return payload, nil
}

// WriteFrame writes payload to w as one frame. The header and payload
// go out in a single Write so that a frame is never split across
// unrelated writes.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > math.MaxInt32 {
		return fmt.Errorf("payload of %d bytes does not fit in a frame", len(payload))
	}
	frame := make([]byte, frameHeaderLength, frameHeaderLength+len(payload))
	binary.LittleEndian.PutUint32(frame, uint32(len(payload)))
	frame = append(frame, payload...)
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
