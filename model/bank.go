package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// ErrIndexOutOfRange reports a bank index with no model file.
var ErrIndexOutOfRange = errors.New("model index out of range")

// Bank resolves model indexes to the *.json files of a directory, in
// lexical order.
type Bank struct {
	dir string

	mu    sync.RWMutex
	paths []string
}

// OpenBank scans dir.
func OpenBank(dir string) (*Bank, error) {
	b := &Bank{dir: dir}
	if err := b.Rescan(); err != nil {
		return nil, err
	}
	return b, nil
}

// Dir returns the scanned directory.
func (b *Bank) Dir() string { return b.dir }

// Rescan re-reads the directory listing.
func (b *Bank) Rescan() error {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return fmt.Errorf("scan model bank: %w", err)
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(b.dir, e.Name()))
	}
	slices.Sort(paths)

	b.mu.Lock()
	b.paths = paths
	b.mu.Unlock()
	return nil
}

// Len returns the number of models.
func (b *Bank) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.paths)
}

// Path returns the file for index.
func (b *Bank) Path(index int) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if index < 0 || index >= len(b.paths) {
		return "", fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(b.paths))
	}
	return b.paths[index], nil
}

// Index returns the position of path in the bank.
func (b *Bank) Index(path string) (int, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	i := slices.Index(b.paths, filepath.Clean(path))
	return i, i >= 0
}

// Paths returns a copy of the model list.
func (b *Bank) Paths() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.paths)
}
