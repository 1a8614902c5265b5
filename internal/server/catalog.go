// catalog.go - The allow-list of downloadable CSV files.
//
// A Catalog is built once at startup and never mutated. Requests are matched
// against its keys; only the mapped path is ever opened on disk.
package server

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
)

// ErrNotFound is returned when a requested key is not in the catalog.
var ErrNotFound = errors.New("file not found")

// Entry maps a logical filename (the URL segment) to a file on disk.
type Entry struct {
	Key  string
	Path string
}

// DefaultEntries returns the built-in allow-list.
func DefaultEntries() []Entry {
	return []Entry{
		{Key: "order.csv", Path: "order.csv"},
		{Key: "order_item.csv", Path: "order_item.csv"},
	}
}

// Catalog is an immutable key -> path lookup table.
type Catalog struct {
	paths map[string]string
	keys  []string
}

// NewCatalog copies entries into a new Catalog. Relative paths are resolved
// against baseDir; an empty baseDir means the working directory.
func NewCatalog(baseDir string, entries []Entry) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, errors.New("catalog: no entries")
	}

	c := &Catalog{
		paths: make(map[string]string, len(entries)),
		keys:  make([]string, 0, len(entries)),
	}

	for i, e := range entries {
		if e.Key == "" {
			return nil, fmt.Errorf("catalog: entry %d has an empty key", i)
		}
		if e.Path == "" {
			return nil, fmt.Errorf("catalog: entry %q has an empty path", e.Key)
		}
		if _, dup := c.paths[e.Key]; dup {
			return nil, fmt.Errorf("catalog: duplicate key %q", e.Key)
		}

		p := e.Path
		if !filepath.IsAbs(p) && baseDir != "" {
			p = filepath.Join(baseDir, p)
		}
		c.paths[e.Key] = filepath.Clean(p)
		c.keys = append(c.keys, e.Key)
	}
	sort.Strings(c.keys)

	return c, nil
}

// Resolve returns the on-disk path for key. The match is exact and
// case-sensitive.
func (c *Catalog) Resolve(key string) (string, error) {
	p, ok := c.paths[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return p, nil
}

// Keys returns the catalog keys in sorted order.
func (c *Catalog) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Entries returns the resolved entries, sorted by key.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, Entry{Key: k, Path: c.paths[k]})
	}
	return out
}

// Len reports the number of entries.
func (c *Catalog) Len() int {
	return len(c.keys)
}
