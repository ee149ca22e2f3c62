// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import "fmt"

// PacketType tags the kind of a request payload.
type PacketType int32

const (
	// PacketGetMenu requests the full menu.
	PacketGetMenu PacketType = 1

	// PacketOrder adds units of one menu item to a table's tab.
	PacketOrder PacketType = 2

	// PacketGetOrders requests a summary of every open tab.
	PacketGetOrders PacketType = 3

	// PacketPay settles a table's tab.
	PacketPay PacketType = 4

	// PacketQuit ends the session. The server closes the connection
	// without replying.
	PacketQuit PacketType = 99
)

// String returns the name used in logs.
func (p PacketType) String() string {
	switch p {
	case PacketGetMenu:
		return "get-menu"
	case PacketOrder:
		return "order"
	case PacketGetOrders:
		return "get-orders"
	case PacketPay:
		return "pay"
	case PacketQuit:
		return "quit"
	default:
		return fmt.Sprintf("unknown(%d)", int32(p))
	}
}

// Known reports whether p is one of the defined packet types.
func (p PacketType) Known() bool {
	switch p {
	case PacketGetMenu, PacketOrder, PacketGetOrders, PacketPay, PacketQuit:
		return true
	}
	return false
}
