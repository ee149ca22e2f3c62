// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tabkeeper/tabkeeper/lib/config"
	"github.com/tabkeeper/tabkeeper/lib/ledger"
	"github.com/tabkeeper/tabkeeper/lib/menu"
)

func TestParseFlags(t *testing.T) {
	t.Parallel()

	opts, err := parseFlags([]string{"--config", "/etc/tabkeeper.yaml", "--listen", ":9000", "--menu", "house.json"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if opts.configPath != "/etc/tabkeeper.yaml" || opts.listenAddress != ":9000" || opts.menuFile != "house.json" {
		t.Errorf("parseFlags = %+v", opts)
	}

	if _, err := parseFlags([]string{"extra"}); err == nil {
		t.Error("parseFlags accepted a positional argument")
	}
	if _, err := parseFlags([]string{"--no-such-flag"}); err == nil {
		t.Error("parseFlags accepted an unknown flag")
	}
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "tabkeeper.yaml")
	content := `
server:
  listen_address: ":7000"
menu:
  postgres_url: postgres://localhost/pos
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := loadConfig(options{configPath: configPath, listenAddress: ":9001", menuFile: "local.txt"})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Server.ListenAddress != ":9001" {
		t.Errorf("listen address = %s, want the flag value", cfg.Server.ListenAddress)
	}
	if cfg.Menu.File != "local.txt" || cfg.Menu.PostgresURL != "" {
		t.Errorf("menu = %+v, want --menu to select the file source", cfg.Menu)
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "tabkeeper.yaml")
	if err := os.WriteFile(configPath, []byte("server:\n  listen_address: \":7500\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte(config.EnvVar+"="+configPath+"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	// godotenv does not overwrite variables that are already set, and
	// t.Setenv restores the original value afterwards.
	t.Setenv(config.EnvVar, "")
	os.Unsetenv(config.EnvVar)

	cfg, err := loadConfig(options{envFile: envPath})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Server.ListenAddress != ":7500" {
		t.Errorf("listen address = %s, want the value from the env-named config", cfg.Server.ListenAddress)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "tabkeeper.yaml")
	if err := os.WriteFile(configPath, []byte("log:\n  level: loud\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := loadConfig(options{configPath: configPath}); err == nil {
		t.Fatal("loadConfig accepted log.level: loud")
	}
	if _, err := loadConfig(options{envFile: filepath.Join(t.TempDir(), "missing.env")}); err == nil {
		t.Fatal("loadConfig accepted a missing env file")
	}
}

func TestNewLoggerFormat(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	var buffer bytes.Buffer
	newLogger(cfg, &buffer).Info("hello", "table", 3)
	var record map[string]any
	if err := json.Unmarshal(buffer.Bytes(), &record); err != nil {
		t.Fatalf("default format is not JSON: %v (%q)", err, buffer.String())
	}

	cfg.Log.Format = "text"
	cfg.Log.Level = "warn"
	buffer.Reset()
	logger := newLogger(cfg, &buffer)
	logger.Info("dropped")
	logger.Warn("kept", "table", 3)
	if output := buffer.String(); strings.Contains(output, "dropped") || !strings.Contains(output, "table=3") {
		t.Errorf("text logger output = %q", output)
	}
}

func TestOpenMenuSourceFile(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Menu.File = filepath.Join(t.TempDir(), "menu.txt")
	logger := slog.New(slog.DiscardHandler)

	source, release, err := openMenuSource(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("openMenuSource: %v", err)
	}
	defer release()

	snapshot, err := menu.Load(context.Background(), source)
	if err != nil {
		t.Fatalf("menu.Load: %v", err)
	}
	if snapshot.Len() != len(menu.HouseMenu()) {
		t.Errorf("snapshot has %d items, want the house menu", snapshot.Len())
	}
}

func TestReceiptLogger(t *testing.T) {
	t.Parallel()

	var buffer bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buffer, nil))
	receiptLogger(logger)(ledger.Settlement{
		Table: 4,
		Total: decimal.NewFromInt(15000),
		Lines: []ledger.Summary{
			{Table: 4, ItemID: 4, ItemName: "Trà Đá", Quantity: 3, Total: decimal.NewFromInt(15000)},
		},
	})
	output := buffer.String()
	for _, want := range []string{"receipt line", "quantity=3", "amount=15000.00", "receipt total", "total=15000.00"} {
		if !strings.Contains(output, want) {
			t.Errorf("receipt log missing %q:\n%s", want, output)
		}
	}
}
