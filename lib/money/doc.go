// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package money holds the fixed-point conventions for prices and totals.
//
// Amounts are [decimal.Decimal] values in memory so that summing many
// line items never accumulates binary floating-point error. On the wire
// and in CBOR payloads an amount travels as a signed count of minor
// units at [Scale] fractional digits: 50000.00 travels as 5000000.
// [ToMinor] and [FromMinor] convert between the two representations.
//
// Values with more than [Scale] fractional digits are rounded half away
// from zero by [Normalize]; menu loading applies it once so that every
// amount the ledger sees is already representable on the wire.
package money
