// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menu

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/tabkeeper/tabkeeper/lib/money"
)

// FileSource reads the menu from a local file.
type FileSource struct {
	// Path is the menu file. The extension selects the format: .json
	// and .jsonc are JSON arrays, anything else is the semicolon
	// line format.
	Path string

	// Logger receives warnings for skipped entries and a notice when
	// the house menu is written. Nil discards them.
	Logger *slog.Logger
}

// jsonEntry is one element of a JSON menu file.
type jsonEntry struct {
	ID    int32       `json:"id"`
	Name  string      `json:"name"`
	Price json.Number `json:"price"`
}

// Load reads the menu file, writing the house menu first if the file
// does not exist.
func (s *FileSource) Load(ctx context.Context) ([]Item, error) {
	logger := s.logger()

	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := s.writeHouseMenu(); err != nil {
			return nil, err
		}
		logger.Warn("menu file not found, wrote house menu", "path", s.Path)
		data, err = os.ReadFile(s.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.Path, err)
	}

	if s.isJSON() {
		return parseJSON(data, logger)
	}
	return parseLines(data, logger), nil
}

func (s *FileSource) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}

func (s *FileSource) isJSON() bool {
	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".json", ".jsonc":
		return true
	}
	return false
}

func (s *FileSource) writeHouseMenu() error {
	var data []byte
	if s.isJSON() {
		encoded, err := FormatJSON(HouseMenu())
		if err != nil {
			return err
		}
		data = encoded
	} else {
		data = FormatLines(HouseMenu())
	}

	if directory := filepath.Dir(s.Path); directory != "." {
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return fmt.Errorf("creating menu directory: %w", err)
		}
	}
	if err := os.WriteFile(s.Path, data, 0o644); err != nil {
		return fmt.Errorf("writing house menu to %s: %w", s.Path, err)
	}
	return nil
}

// parseLines parses the semicolon format. Each non-blank line is
// "id;name;price". Lines with the wrong field count or an unparseable
// id or price are skipped.
func parseLines(data []byte, logger *slog.Logger) []Item {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var items []Item
	for number, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ";")
		if len(fields) != 3 {
			logger.Warn("skipping menu line: want 3 fields", "line", number+1, "fields", len(fields))
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 32)
		if err != nil {
			logger.Warn("skipping menu line: bad id", "line", number+1, "error", err)
			continue
		}
		price, err := money.Parse(fields[2])
		if err != nil {
			logger.Warn("skipping menu line: bad price", "line", number+1, "error", err)
			continue
		}
		items = append(items, Item{ID: int32(id), Name: strings.TrimSpace(fields[1]), Price: price})
	}
	return items
}

// parseJSON parses a JSON (or JSONC) array of entries. A document that
// is not an array fails the load; individual entries that do not decode
// are skipped.
func parseJSON(data []byte, logger *slog.Logger) ([]Item, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
		return nil, fmt.Errorf("parsing menu: %w", err)
	}

	items := make([]Item, 0, len(raw))
	for index, element := range raw {
		decoder := json.NewDecoder(bytes.NewReader(element))
		decoder.UseNumber()
		var entry jsonEntry
		if err := decoder.Decode(&entry); err != nil {
			logger.Warn("skipping menu entry", "index", index, "error", err)
			continue
		}
		price, err := money.Parse(entry.Price.String())
		if err != nil {
			logger.Warn("skipping menu entry: bad price", "index", index, "error", err)
			continue
		}
		items = append(items, Item{ID: entry.ID, Name: entry.Name, Price: price})
	}
	return items, nil
}

// FormatLines renders items in the semicolon format.
func FormatLines(items []Item) []byte {
	var buffer bytes.Buffer
	for index, item := range items {
		if index > 0 {
			buffer.WriteByte('\n')
		}
		fmt.Fprintf(&buffer, "%d;%s;%s", item.ID, item.Name, item.Price.String())
	}
	return buffer.Bytes()
}

// FormatJSON renders items as an indented JSON array.
func FormatJSON(items []Item) ([]byte, error) {
	entries := make([]jsonEntry, len(items))
	for index, item := range items {
		entries[index] = jsonEntry{ID: item.ID, Name: item.Name, Price: json.Number(item.Price.String())}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding menu: %w", err)
	}
	return append(data, '\n'), nil
}
