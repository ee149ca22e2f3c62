// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Tabkeeper is the command-line terminal for a tabkeeperd server. It
// does what the waiter and cashier terminals do: show the menu, place
// orders, list open tabs and take payment.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return newRoot(ctx, os.Stdout).Execute(os.Args[1:])
}
