package cart

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payload(t *testing.T, raw string) Payload {
	t.Helper()
	var p Payload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return p
}

func TestNormalizeFlatShape(t *testing.T) {
	lines := Normalize(payload(t, `{"cartItems":[{"productId":"P1","unitPrice":"12.5","title":"  Hoodie ","quantity":"2.9","size":" M ","color":""}]}`))
	require.Len(t, lines, 1)
	assert.Equal(t, "P1", lines[0].ProductID)
	assert.Equal(t, "Hoodie", lines[0].Title)
	assert.Equal(t, "12.5", lines[0].Price.String())
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, "M", lines[0].Size)
	assert.Empty(t, lines[0].Color)
}

func TestNormalizeLegacyShape(t *testing.T) {
	lines := Normalize(payload(t, `{"items":[{"item":{"_id":"64f0c2","title":"Cap","price":15},"quantity":1,"color":"Black"}]}`))
	require.Len(t, lines, 1)
	assert.Equal(t, "64f0c2", lines[0].ProductID)
	assert.Equal(t, "Cap", lines[0].Title)
	assert.Equal(t, "15", lines[0].Price.String())
	assert.Equal(t, "Black", lines[0].Color)
}

func TestNormalizeFallsThroughEmptyCandidates(t *testing.T) {
	lines := Normalize(payload(t, `{"cartItems":"nope","items":[],"lines":[{"id":"P9","price":3}]}`))
	require.Len(t, lines, 1)
	assert.Equal(t, "P9", lines[0].ProductID)
}

func TestNormalizeDefaults(t *testing.T) {
	lines := Normalize(payload(t, `{"cartItems":[{"price":"abc","quantity":-3},{"price":-4,"quantity":"x","title":"`+strings.Repeat("é", 200)+`"}, 7]}`))
	require.Len(t, lines, 2)

	assert.Equal(t, DefaultTitle, lines[0].Title)
	assert.True(t, lines[0].Price.IsZero())
	assert.Equal(t, 1, lines[0].Quantity)

	assert.True(t, lines[1].Price.IsZero())
	assert.Equal(t, 1, lines[1].Quantity)
	assert.Equal(t, MaxTitleLength, len([]rune(lines[1].Title)))
}

func TestNormalizeNothingUsable(t *testing.T) {
	assert.Empty(t, Normalize(payload(t, `{"cartItems":[1,"a",null]}`)))
	assert.Empty(t, Normalize(Payload{}))
}

func TestMergeKeepsMaxQuantity(t *testing.T) {
	merged := Merge([]Line{
		{ProductID: "P1", Title: "Tee", Quantity: 2, Size: "M"},
		{ProductID: "p1", Title: "Tee", Quantity: 5, Size: "m"},
		{ProductID: "P1", Title: "Tee", Quantity: 1, Size: "L"},
	})
	require.Len(t, merged, 2)
	assert.Equal(t, 5, merged[0].Quantity)
	assert.Equal(t, "L", merged[1].Size)
}

func TestMergeUsesTitleWithoutProductID(t *testing.T) {
	merged := Merge([]Line{
		{Title: "Gift Card", Quantity: 1},
		{Title: "gift card", Quantity: 3},
	})
	require.Len(t, merged, 1)
	assert.Equal(t, 3, merged[0].Quantity)
}

func TestMergeCanonicalizesUUIDs(t *testing.T) {
	id := uuid.New()
	merged := Merge([]Line{
		{ProductID: strings.ToUpper(id.String()), Quantity: 1},
		{ProductID: id.String(), Quantity: 2},
	})
	require.Len(t, merged, 1)
	assert.Equal(t, 2, merged[0].Quantity)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	first := NormalizeAndMerge(payload(t, `{"cartItems":[
		{"productId":"P1","unitPrice":10,"quantity":2,"title":"Tee","size":"M"},
		{"productId":"P1","unitPrice":10,"quantity":5,"title":"Tee","size":"M"},
		{"item":{"_id":"L1","title":"Cap","price":"7.25"},"quantity":1}
	]}`))

	encoded, err := json.Marshal(map[string]any{"cartItems": first})
	require.NoError(t, err)
	second := NormalizeAndMerge(payload(t, string(encoded)))

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ProductID, second[i].ProductID)
		assert.Equal(t, first[i].Title, second[i].Title)
		assert.Equal(t, first[i].Quantity, second[i].Quantity)
		assert.True(t, first[i].Price.Equal(second[i].Price))
		assert.Equal(t, first[i].Size, second[i].Size)
	}
}

func TestOrderLinesSplitsCatalogAndLegacyIDs(t *testing.T) {
	id := uuid.New()
	lines := OrderLines([]Line{
		{ProductID: id.String(), Title: "Tee", Quantity: 2},
		{ProductID: "64f0c2", Title: "Cap", Quantity: 1},
		{Title: "Gift", Quantity: 1},
	})
	require.Len(t, lines, 3)
	require.NotNil(t, lines[0].ProductID)
	assert.Equal(t, id, *lines[0].ProductID)
	assert.Equal(t, "64f0c2", lines[1].LegacyProductID)
	assert.Nil(t, lines[2].ProductID)
	assert.Empty(t, lines[2].LegacyProductID)
}

func TestPricingItems(t *testing.T) {
	items := PricingItems(Normalize(payload(t, `{"cartItems":[{"productId":"P1","price":10,"quantity":2}]}`)))
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}
