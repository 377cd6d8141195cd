package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadIdentifiers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	content := `[
		{"productIdentifier": "app.tiptop.abc"},
		{"productIdentifier": "app.tiptop.def"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	ids, err := LoadIdentifiers(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.tiptop.abc", "app.tiptop.def"}, ids)
}

func TestLoadIdentifiersMissingFile(t *testing.T) {
	_, err := LoadIdentifiers(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadIdentifiersCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o600))

	_, err := LoadIdentifiers(path)
	require.Error(t, err)
}

func TestFilterKeepsRequestedOnly(t *testing.T) {
	products := []Product{
		{ID: "abc"},
		{ID: "def"},
		{ID: "ghi"},
	}

	got := filter(products, []string{"abc", "ghi"})
	require.Len(t, got, 2)
	assert.Equal(t, "abc", got[0].ID)
	assert.Equal(t, "ghi", got[1].ID)
}

func TestUnknownError(t *testing.T) {
	products := []Product{{ID: "abc"}}

	err := unknownError(products, []string{"abc"})
	assert.NoError(t, err)

	err = unknownError(products, []string{"abc", "xyz"})
	var unknown *ErrUnknownProduct
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "xyz", unknown.ProductID)
}
