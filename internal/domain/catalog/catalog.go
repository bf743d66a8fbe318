package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned when a product name is absent from the catalog.
var ErrNotFound = fmt.Errorf("product not found in catalog")

// Entry is one row of the static shelf-life table.
type Entry struct {
	Name          string // Display form, as written in the source table
	ShelfLifeDays int
	Category      string // Selects the reminder tip pool
}

// Catalog is an immutable lookup from a normalized product name to its Entry.
// It is safe for concurrent use since nothing mutates it after New.
type Catalog struct {
	entries map[string]Entry
}

// New builds a catalog from entries. Duplicate names (after normalization)
// and non-positive shelf lives are rejected.
func New(entries []Entry) (*Catalog, error) {
	c := &Catalog{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		key := Normalize(e.Name)
		if key == "" {
			return nil, fmt.Errorf("catalog entry with empty name")
		}
		if e.ShelfLifeDays <= 0 {
			return nil, fmt.Errorf("catalog entry %q: shelf life must be positive, got %d", e.Name, e.ShelfLifeDays)
		}
		if _, dup := c.entries[key]; dup {
			return nil, fmt.Errorf("duplicate catalog entry %q", e.Name)
		}
		e.Name = strings.TrimSpace(e.Name)
		c.entries[key] = e
	}
	return c, nil
}

// Empty returns a catalog in which every lookup misses.
func Empty() *Catalog {
	return &Catalog{entries: map[string]Entry{}}
}

// Normalize lower-cases a product name, trims it and collapses inner whitespace.
func Normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Lookup returns the entry for name.
func (c *Catalog) Lookup(name string) (Entry, error) {
	e, ok := c.entries[Normalize(name)]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

// ShelfLifeDays returns the static shelf life for a known product name.
func (c *Catalog) ShelfLifeDays(name string) (int, error) {
	e, err := c.Lookup(name)
	if err != nil {
		return 0, err
	}
	return e.ShelfLifeDays, nil
}

// Category returns the category tag for a known product name.
func (c *Catalog) Category(name string) (string, error) {
	e, err := c.Lookup(name)
	if err != nil {
		return "", err
	}
	return e.Category, nil
}

// Names returns the display names of all entries, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}
