package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) *Catalog {
	c, err := New([]Entry{
		{Name: "Молоко", ShelfLifeDays: 7, Category: "dairy"},
		{Name: "Куриное филе", ShelfLifeDays: 3, Category: "meat"},
		{Name: "Bread", ShelfLifeDays: 4, Category: "bakery"},
	})
	require.NoError(t, err)
	return c
}

func TestCatalog_Lookup(t *testing.T) {
	c := testCatalog(t)

	tests := []struct {
		name     string
		query    string
		wantDays int
		wantCat  string
		wantErr  error
	}{
		{name: "exact", query: "Молоко", wantDays: 7, wantCat: "dairy"},
		{name: "case insensitive cyrillic", query: "МОЛОКО", wantDays: 7, wantCat: "dairy"},
		{name: "trimmed", query: "  bread \t", wantDays: 4, wantCat: "bakery"},
		{name: "inner whitespace collapsed", query: "куриное   филе", wantDays: 3, wantCat: "meat"},
		{name: "unknown", query: "unknown-product-xyz", wantErr: ErrNotFound},
		{name: "empty", query: "   ", wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days, err := c.ShelfLifeDays(tt.query)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				_, catErr := c.Category(tt.query)
				assert.ErrorIs(t, catErr, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDays, days)

			cat, err := c.Category(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCat, cat)
		})
	}
}

func TestNew_RejectsInvalidEntries(t *testing.T) {
	_, err := New([]Entry{{Name: "Milk", ShelfLifeDays: 7}, {Name: " milk ", ShelfLifeDays: 5}})
	assert.Error(t, err)

	_, err = New([]Entry{{Name: "Milk", ShelfLifeDays: 0}})
	assert.Error(t, err)

	_, err = New([]Entry{{Name: "  ", ShelfLifeDays: 2}})
	assert.Error(t, err)
}

func TestCatalog_Names(t *testing.T) {
	c := testCatalog(t)
	assert.Equal(t, []string{"Bread", "Куриное филе", "Молоко"}, c.Names())
	assert.Equal(t, 3, c.Len())
}

func TestLoad_MissingFileYieldsEmptyCatalog(t *testing.T) {
	logger, hook := logtest.NewNullLogger()

	c, err := Load(filepath.Join(t.TempDir(), "nope.json"), logrus.NewEntry(logger))
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())

	_, err = c.ShelfLifeDays("Молоко")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestLoad_ParsesProductsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	content := `{"Молоко": {"shelf_life": 7, "category": "dairy"}, "Сыр": {"shelf_life": 30, "category": "dairy"}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	logger, _ := logtest.NewNullLogger()
	c, err := Load(path, logrus.NewEntry(logger))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	days, err := c.ShelfLifeDays("сыр")
	require.NoError(t, err)
	assert.Equal(t, 30, days)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Молоко": `), 0o600))

	logger, _ := logtest.NewNullLogger()
	_, err := Load(path, logrus.NewEntry(logger))
	assert.Error(t, err)
}
