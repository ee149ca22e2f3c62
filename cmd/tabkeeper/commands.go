// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/tabkeeper/tabkeeper/client"
	"github.com/tabkeeper/tabkeeper/lib/money"
	"github.com/tabkeeper/tabkeeper/lib/version"
)

// serverEnvVar overrides the default --server value.
const serverEnvVar = "TABKEEPER_SERVER"

// connectionOptions are the flags every command that talks to the
// server accepts.
type connectionOptions struct {
	server  string
	timeout time.Duration
}

func (o *connectionOptions) addFlags(flagSet *pflag.FlagSet) {
	defaultServer := os.Getenv(serverEnvVar)
	if defaultServer == "" {
		defaultServer = "127.0.0.1:8888"
	}
	flagSet.StringVarP(&o.server, "server", "s", defaultServer, "tabkeeperd address (env "+serverEnvVar+")")
	flagSet.DurationVar(&o.timeout, "timeout", 10*time.Second, "time allowed for connecting and the request")
}

// withClient connects, runs fn and says goodbye to the server.
func (o *connectionOptions) withClient(ctx context.Context, fn func(context.Context, *client.Client) error) error {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	c, err := client.Dial(ctx, o.server)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(ctx, c)
}

func newRoot(ctx context.Context, out io.Writer) *Command {
	return &Command{
		Name:    "tabkeeper",
		Summary: "Restaurant order terminal for tabkeeperd",
		Description: `Restaurant order terminal for tabkeeperd.

Every command opens its own connection to the server named by --server
(default 127.0.0.1:8888, or $` + serverEnvVar + `).`,
		Subcommands: []*Command{
			menuCommand(ctx, out),
			orderCommand(ctx, out),
			ordersCommand(ctx, out),
			payCommand(ctx, out),
			versionCommand(out),
		},
	}
}

func menuCommand(ctx context.Context, out io.Writer) *Command {
	var connection connectionOptions
	return &Command{
		Name:    "menu",
		Summary: "Show the menu",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("menu", pflag.ContinueOnError)
			connection.addFlags(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if err := noArgs(args); err != nil {
				return err
			}
			return connection.withClient(ctx, func(ctx context.Context, c *client.Client) error {
				items, err := c.Menu(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(out, 2, 0, 3, ' ', 0)
				fmt.Fprintf(tw, "ID\tNAME\tPRICE\n")
				for _, item := range items {
					fmt.Fprintf(tw, "%d\t%s\t%s\n", item.ID, item.Name, money.Format(item.Price))
				}
				return tw.Flush()
			})
		},
	}
}

func orderCommand(ctx context.Context, out io.Writer) *Command {
	var connection connectionOptions
	var table, item, quantity int32
	return &Command{
		Name:    "order",
		Summary: "Add items to a table's tab",
		Usage:   "tabkeeper order --table N --item ID [--quantity Q] [flags]",
		Examples: []Example{
			{Description: "Two iced teas for table 3", Command: "tabkeeper order --table 3 --item 4 --quantity 2"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("order", pflag.ContinueOnError)
			flagSet.Int32VarP(&table, "table", "t", 0, "table number (required)")
			flagSet.Int32VarP(&item, "item", "i", 0, "menu item id (required)")
			flagSet.Int32VarP(&quantity, "quantity", "q", 1, "number of units")
			connection.addFlags(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if err := noArgs(args); err != nil {
				return err
			}
			if table <= 0 {
				return errors.New("--table is required and must be positive")
			}
			if item <= 0 {
				return errors.New("--item is required and must be positive")
			}
			return connection.withClient(ctx, func(ctx context.Context, c *client.Client) error {
				if err := c.Order(ctx, table, item, quantity); err != nil {
					return err
				}
				fmt.Fprintf(out, "table %d: ordered %d x item %d\n", table, quantity, item)
				return nil
			})
		},
	}
}

func ordersCommand(ctx context.Context, out io.Writer) *Command {
	var connection connectionOptions
	return &Command{
		Name:    "orders",
		Summary: "List open tabs",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("orders", pflag.ContinueOnError)
			connection.addFlags(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if err := noArgs(args); err != nil {
				return err
			}
			return connection.withClient(ctx, func(ctx context.Context, c *client.Client) error {
				rows, err := c.Orders(ctx)
				if err != nil {
					return err
				}
				if len(rows) == 0 {
					fmt.Fprintln(out, "no open tabs")
					return nil
				}
				tw := tabwriter.NewWriter(out, 2, 0, 3, ' ', 0)
				fmt.Fprintf(tw, "TABLE\tITEM\tNAME\tQTY\tTOTAL\n")
				for _, row := range rows {
					fmt.Fprintf(tw, "%d\t%d\t%s\t%d\t%s\n",
						row.Table, row.ItemID, row.ItemName, row.Quantity, money.Format(row.Total))
				}
				return tw.Flush()
			})
		},
	}
}

func payCommand(ctx context.Context, out io.Writer) *Command {
	var connection connectionOptions
	var table int32
	return &Command{
		Name:    "pay",
		Summary: "Settle a table's tab",
		Usage:   "tabkeeper pay --table N [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("pay", pflag.ContinueOnError)
			flagSet.Int32VarP(&table, "table", "t", 0, "table number (required)")
			connection.addFlags(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if err := noArgs(args); err != nil {
				return err
			}
			if table <= 0 {
				return errors.New("--table is required and must be positive")
			}
			return connection.withClient(ctx, func(ctx context.Context, c *client.Client) error {
				total, err := c.Pay(ctx, table)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "table %d paid %s\n", table, money.Format(total))
				return nil
			})
		},
	}
}

func versionCommand(out io.Writer) *Command {
	return &Command{
		Name:    "version",
		Summary: "Print version information",
		Run: func(args []string) error {
			fmt.Fprintf(out, "tabkeeper %s\n", version.Full())
			return nil
		},
	}
}

func noArgs(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}
	return nil
}
