// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Tabkeeperd is the order server for a restaurant floor. Waiter and
// cashier terminals connect to it over TCP to read the menu, place
// orders against table numbers, list open tabs, and settle them.
//
// On startup:
//  1. Loads an optional dotenv file (--env-file) into the environment.
//  2. Loads configuration from --config, TABKEEPER_CONFIG, or defaults.
//  3. Reads the menu once, from Postgres when menu.postgres_url is set
//     and from the menu file otherwise.
//  4. Serves terminals until SIGINT or SIGTERM.
//
// Open tabs live only in memory and are lost when the process exits.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/tabkeeper/tabkeeper/lib/config"
	"github.com/tabkeeper/tabkeeper/lib/ledger"
	"github.com/tabkeeper/tabkeeper/lib/menu"
	"github.com/tabkeeper/tabkeeper/lib/money"
	"github.com/tabkeeper/tabkeeper/lib/version"
	"github.com/tabkeeper/tabkeeper/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// options are the command-line flags.
type options struct {
	configPath    string
	envFile       string
	listenAddress string
	menuFile      string
	showVersion   bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	flagSet := pflag.NewFlagSet("tabkeeperd", pflag.ContinueOnError)
	flagSet.StringVar(&opts.configPath, "config", "", "path to the YAML config file (default: $"+config.EnvVar+", then built-in defaults)")
	flagSet.StringVar(&opts.envFile, "env-file", "", "dotenv file to load into the environment before reading config")
	flagSet.StringVar(&opts.listenAddress, "listen", "", "TCP address to listen on (overrides server.listen_address)")
	flagSet.StringVar(&opts.menuFile, "menu", "", "menu file (overrides menu.file)")
	flagSet.BoolVar(&opts.showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}
	if flagSet.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}
	return opts, nil
}

func run() error {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if opts.showVersion {
		fmt.Printf("tabkeeperd %s\n", version.Full())
		return nil
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger := newLogger(cfg, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, closeSource, err := openMenuSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	snapshot, err := menu.Load(ctx, source)
	closeSource()
	if err != nil {
		return err
	}

	orders := ledger.New(snapshot)
	srv := server.New(server.Config{
		Address:        cfg.Server.ListenAddress,
		IdleTimeout:    cfg.IdleTimeout(),
		WriteTimeout:   cfg.WriteTimeout(),
		MaxConnections: cfg.Server.MaxConnections,
		MaxFrameSize:   cfg.Server.MaxFrameSize,
		OnSettle:       receiptLogger(logger),
	}, snapshot, orders, logger)

	logger.Info("tabkeeperd starting",
		"version", version.Info(),
		"environment", cfg.Environment,
	)
	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}
	logger.Info("tabkeeperd stopped")
	return nil
}

// loadConfig applies the env file, reads the config and layers the
// flag overrides on top.
func loadConfig(opts options) (*config.Config, error) {
	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil {
			return nil, fmt.Errorf("loading env file %s: %w", opts.envFile, err)
		}
	}

	var cfg *config.Config
	var err error
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if opts.listenAddress != "" {
		cfg.Server.ListenAddress = opts.listenAddress
	}
	if opts.menuFile != "" {
		cfg.Menu.File = opts.menuFile
		cfg.Menu.PostgresURL = ""
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	handlerOptions := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if cfg.Log.Format == "text" {
		return slog.New(slog.NewTextHandler(w, handlerOptions))
	}
	return slog.New(slog.NewJSONHandler(w, handlerOptions))
}

// openMenuSource returns the configured menu source and a function that
// releases it. The database pool is only needed while the menu is read.
func openMenuSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (menu.Source, func(), error) {
	menuLogger := logger.With("component", "menu")
	if cfg.Menu.PostgresURL == "" {
		logger.Info("reading menu from file", "path", cfg.Menu.File)
		return &menu.FileSource{Path: cfg.Menu.File, Logger: menuLogger}, func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.Menu.PostgresURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to menu database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connecting to menu database: %w", err)
	}
	logger.Info("reading menu from postgres", "host", pool.Config().ConnConfig.Host)
	return &menu.PostgresSource{Database: pool, Logger: menuLogger}, pool.Close, nil
}

// receiptLogger records every paid line, giving operators an audit
// trail of settlements in the process log.
func receiptLogger(logger *slog.Logger) func(ledger.Settlement) {
	receipts := logger.With("component", "receipt")
	return func(settlement ledger.Settlement) {
		for _, line := range settlement.Lines {
			receipts.Info("receipt line",
				"table", settlement.Table,
				"item_id", line.ItemID,
				"item_name", line.ItemName,
				"quantity", line.Quantity,
				"amount", money.Format(line.Total),
			)
		}
		receipts.Info("receipt total",
			"table", settlement.Table,
			"total", money.Format(settlement.Total),
		)
	}
}
