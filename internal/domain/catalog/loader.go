package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
)

// fileEntry mirrors one value of products.json:
// {"Молоко": {"shelf_life": 7, "category": "dairy"}}
type fileEntry struct {
	ShelfLife int    `json:"shelf_life"`
	Category  string `json:"category"`
}

// Load reads the catalog from a JSON file. A missing file yields an empty
// catalog (every lookup misses) and a warning; a malformed file is an error.
func Load(path string, log *logrus.Entry) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.WithField("path", path).Warn("Catalog file not found, product catalog will be empty")
			return Empty(), nil
		}
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}

	var parsed map[string]fileEntry
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}

	entries := make([]Entry, 0, len(parsed))
	for name, fe := range parsed {
		entries = append(entries, Entry{Name: name, ShelfLifeDays: fe.ShelfLife, Category: fe.Category})
	}

	c, err := New(entries)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog file %s: %w", path, err)
	}
	log.WithFields(logrus.Fields{"path": path, "entries": c.Len()}).Info("Product catalog loaded")
	return c, nil
}
