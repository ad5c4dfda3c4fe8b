package cart

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/pkg/models"
)

func TestDecodeLines_Lenient(t *testing.T) {
	blob := `[
		{"id":"runner","title":"Runner","price":"49.5","quantity":"2","stock":4,"color":"Red","size":"M"},
		{"id":"cap","title":"Cap","price":12,"quantity":1},
		{"title":"no id","price":5,"quantity":3,"stock":3},
		{"id":"bad","price":5,"quantity":"many","stock":3},
		"not an object",
		{"id":"free","price":1,"quantity":1,"stock":1,"deliveryFee":"000","noDeliveryCharge":true}
	]`

	lines, problems := DecodeLines([]byte(blob))

	require.Len(t, lines, 5)
	assert.Equal(t, 49.5, lines[0].Price)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 4, lines[0].Stock)

	// missing stock is reported but the quantity survives
	assert.Equal(t, 1, lines[1].Quantity)
	assert.Equal(t, 0, lines[1].Stock)

	// missing id or quantity zeroes the line
	assert.Equal(t, 0, lines[2].Quantity)
	assert.Equal(t, 0, lines[2].Stock)
	assert.Equal(t, 0, lines[3].Quantity)

	assert.True(t, lines[4].NoDeliveryCharge)
	assert.True(t, lines[4].DeliveryFee.IsZero())

	require.Len(t, problems, 4)
	for _, p := range problems {
		assert.True(t, errors.Is(p, ErrMalformedLine))
	}
}

func TestDecodeLines_Unreadable(t *testing.T) {
	for _, blob := range []string{"", "null", "{", `{"id":"a"}`} {
		lines, _ := DecodeLines([]byte(blob))
		assert.NotNil(t, lines, "blob %q", blob)
		assert.Empty(t, lines, "blob %q", blob)
	}
}

func TestDecodeLines_HugeQuantityClampsToStock(t *testing.T) {
	blob := `[{"id":"runner","title":"Runner","price":50,"color":"Red","size":"M","quantity":1e30,"stock":3}]`

	lines, problems := DecodeLines([]byte(blob))
	require.Empty(t, problems)
	require.Len(t, lines, 1)
	assert.Equal(t, math.MaxInt32, lines[0].Quantity)

	rec := Reconcile(lines, testCatalog())
	require.Len(t, rec.Lines, 1)
	assert.Equal(t, 3, rec.Lines[0].Quantity)
	assert.Equal(t, 3, rec.Lines[0].Stock)
	assert.True(t, rec.Dirty)
}

func TestDecodeLines_HugeStockStaysPositive(t *testing.T) {
	blob := `[{"id":"loose","title":"Loose","price":5,"quantity":2,"stock":1e19}]`

	lines, problems := DecodeLines([]byte(blob))
	require.Empty(t, problems)
	require.Len(t, lines, 1)
	assert.Equal(t, math.MaxInt32, lines[0].Stock)

	rec := Reconcile(lines, testCatalog())
	require.Len(t, rec.Lines, 1)
	assert.Equal(t, 2, rec.Lines[0].Quantity)
}

func TestReconcile_HugeCatalogStock(t *testing.T) {
	var stock models.FlexInt
	require.NoError(t, json.Unmarshal([]byte(`1e19`), &stock))
	catalog := NewCatalog([]models.Product{
		{ID: "bulk", Title: "Bulk", Price: 1, Variants: []models.Variant{{ColorName: "Grey", Stock: &stock}}},
	})

	rec := Reconcile([]models.CartLine{line("bulk", "Grey", "", 7, 0)}, catalog)
	require.Len(t, rec.Lines, 1)
	assert.Equal(t, 7, rec.Lines[0].Quantity)
	assert.Equal(t, math.MaxInt32, rec.Lines[0].Stock)
}
