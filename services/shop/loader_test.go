package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseShopFile(t *testing.T) {
	input := strings.Join([]string{
		"centro,127.0.0.1:9101,4",
		"---",
		"keyboard,10",
		"mouse,5",
		"---",
		"keyboard,4",
		"mouse,1",
	}, "\n")

	info, stock, orders, err := parseShopFile(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, ShopInfo{Name: "centro", Address: "127.0.0.1:9101", ZoneID: 4}, info)

	require.Len(t, stock, 2)
	assert.Equal(t, Product{ID: "keyboard", Available: 10}, stock[0])
	assert.Equal(t, Product{ID: "mouse", Available: 5}, stock[1])

	require.Len(t, orders, 2)
	assert.Equal(t, "keyboard", orders[0].ProductID)
	assert.Equal(t, uint32(4), orders[0].Quantity)
	assert.Equal(t, LocalStatusCreated, orders[0].Status)
	assert.Equal(t, "mouse", orders[1].ProductID)
}

func TestParseShopFileWithoutLocalOrders(t *testing.T) {
	input := "norte,127.0.0.1:9102,8\n---\nkeyboard,3\n"

	info, stock, orders, err := parseShopFile(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, int32(8), info.ZoneID)
	assert.Len(t, stock, 1)
	assert.Empty(t, orders)
}

func TestParseShopFileRejectsMalformed(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"short header", "centro,4\n---\n"},
		{"bad zone", "centro,127.0.0.1:9101,west\n---\n"},
		{"missing separator", "centro,127.0.0.1:9101,4\nkeyboard,10\n"},
		{"bad stock line", "centro,127.0.0.1:9101,4\n---\nkeyboard\n"},
		{"bad stock quantity", "centro,127.0.0.1:9101,4\n---\nkeyboard,many\n"},
		{"bad order line", "centro,127.0.0.1:9101,4\n---\nkeyboard,10\n---\nkeyboard,two\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, _, err := parseShopFile(strings.NewReader(tc.input))
			assert.ErrorIs(t, err, ErrWrongFormat)
		})
	}
}

func TestLoadShopFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "centro.txt")
	content := "centro,127.0.0.1:9101,4\n---\nkeyboard,10\n---\nkeyboard,2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	info, stock, orders, err := LoadShopFile(path)
	require.NoError(t, err)
	assert.Equal(t, "centro", info.Name)
	assert.Len(t, stock, 1)
	assert.Len(t, orders, 1)
}

func TestLoadShopFileNotFound(t *testing.T) {
	_, _, _, err := LoadShopFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, ErrNotFound)
}
