// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the structured-data encoding used inside protocol
// frames. The fixed-layout parts of every message are plain binary (see
// lib/protocol); variable-length lists such as the menu and the open tab
// summary travel as one CBOR item so that fields can be added without a
// new frame layout.
//
// Encoding uses Core Deterministic Encoding (RFC 8949 §4.2): identical
// values always produce identical bytes, which the menu fingerprint
// relies on. Decoding ignores unknown map keys so that an older
// terminal keeps working against a newer daemon.
package codec
