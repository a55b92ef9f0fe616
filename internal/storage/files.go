// Package storage persists the bookkeeping collections as JSON files and
// mirrors every write into SQLite.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Collection file names inside the JSON directory.
const (
	TransactionsFile       = "transactions.json"
	FundingGroupsFile      = "funding_groups.json"
	TaxSettlementsFile     = "tax_settlements.json"
	CapitalAdjustmentsFile = "capital_adjustments.json"
	FxExchangesFile        = "fx_exchanges.json"
	QuotesFile             = "quotes.json"
)

// AllFiles lists every collection file in mirror dependency order.
var AllFiles = []string{
	FundingGroupsFile,
	TransactionsFile,
	TaxSettlementsFile,
	CapitalAdjustmentsFile,
	FxExchangesFile,
	QuotesFile,
}

// ensureFile creates path containing an empty JSON array when missing.
func ensureFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return writeFileAtomic(path, []byte("[]\n"))
}

// readRaw returns the file content; a missing file reads as nil.
func readRaw(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// decodeCollection parses a JSON array. Empty content decodes to an empty slice.
func decodeCollection[T any](data []byte, name string) ([]T, error) {
	items := []T{}
	if len(bytes.TrimSpace(data)) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func readCollection[T any](path string) ([]T, error) {
	data, err := readRaw(path)
	if err != nil {
		return nil, err
	}
	return decodeCollection[T](data, filepath.Base(path))
}

func encodeCollection[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode collection: %w", err)
	}
	return append(data, '\n'), nil
}

// writeFileAtomic writes data to a temp file in the same directory and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		cleanup()
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
