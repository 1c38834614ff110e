// Package cart turns the cart shapes sent by storefront clients into a
// canonical, deduplicated list of lines.
package cart

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/milosbg/mbg-admin-backend/internal/pricing"
	"github.com/milosbg/mbg-admin-backend/pkg/types"
)

const (
	// MaxTitleLength is the provider limit on item names.
	MaxTitleLength = 127
	DefaultTitle   = "Article"
)

// Line is a normalized cart line. Price is never negative and Quantity is
// always at least one.
type Line struct {
	ProductID string          `json:"productId,omitempty"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
}

// Payload carries every field name clients have used for the cart array.
type Payload struct {
	CartItems json.RawMessage `json:"cartItems,omitempty"`
	Items     json.RawMessage `json:"items,omitempty"`
	Lines     json.RawMessage `json:"lines,omitempty"`
}

// Normalize parses the first candidate array (cartItems, items, lines) that
// yields at least one usable line.
func Normalize(p Payload) []Line {
	for _, candidate := range []json.RawMessage{p.CartItems, p.Items, p.Lines} {
		var entries []json.RawMessage
		if len(bytes.TrimSpace(candidate)) == 0 || json.Unmarshal(candidate, &entries) != nil {
			continue
		}
		lines := make([]Line, 0, len(entries))
		for _, entry := range entries {
			if line, ok := normalizeLine(entry); ok {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			return lines
		}
	}
	return nil
}

type rawFields map[string]json.RawMessage

func normalizeLine(entry json.RawMessage) (Line, bool) {
	var fields rawFields
	if err := json.Unmarshal(entry, &fields); err != nil || fields == nil {
		return Line{}, false
	}

	line := Line{
		Quantity: asQuantity(fields["quantity"]),
		Size:     asString(fields["size"]),
		Color:    asString(fields["color"]),
	}

	var title string
	var legacy rawFields
	if raw, ok := fields["item"]; ok && json.Unmarshal(raw, &legacy) == nil && legacy != nil {
		line.ProductID = firstString(legacy["_id"], fields["productId"])
		title = firstString(legacy["title"], fields["title"])
		line.Price = asDecimal(legacy["price"], asDecimal(firstPresent(fields["unitPrice"], fields["price"]), decimal.Zero))
	} else {
		line.ProductID = firstString(fields["productId"], fields["id"])
		title = asString(fields["title"])
		line.Price = asDecimal(firstPresent(fields["unitPrice"], fields["price"]), decimal.Zero)
	}

	if line.Price.IsNegative() {
		line.Price = decimal.Zero
	}
	line.Title = normalizeTitle(title)
	return line, true
}

func normalizeTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		title = string([]rune(title)[:MaxTitleLength])
	}
	return title
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func firstPresent(values ...json.RawMessage) json.RawMessage {
	for _, v := range values {
		if !isNull(v) {
			return v
		}
	}
	return nil
}

// asString accepts strings and numbers; anything else is empty.
func asString(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func firstString(values ...json.RawMessage) string {
	for _, v := range values {
		if s := asString(v); s != "" {
			return s
		}
	}
	return ""
}

func asDecimal(raw json.RawMessage, fallback decimal.Decimal) decimal.Decimal {
	if isNull(raw) {
		return fallback
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if d, err := decimal.NewFromString(n.String()); err == nil {
			return d
		}
		return fallback
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
		if d, err := decimal.NewFromString(strings.TrimSpace(s)); err == nil {
			return d
		}
	}
	return fallback
}

// asQuantity truncates toward zero; missing, invalid or non-positive values become 1.
func asQuantity(raw json.RawMessage) int {
	qty := asDecimal(raw, decimal.NewFromInt(1)).IntPart()
	if qty <= 0 {
		return 1
	}
	return int(qty)
}

// Merge collapses duplicate lines keyed by product (or title), size and
// color. The merged quantity is the largest duplicate, not the sum.
func Merge(lines []Line) []Line {
	index := make(map[string]int, len(lines))
	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		key := lineKey(line)
		if i, ok := index[key]; ok {
			if line.Quantity > out[i].Quantity {
				out[i].Quantity = line.Quantity
			}
			continue
		}
		index[key] = len(out)
		out = append(out, line)
	}

	kept := out[:0]
	for _, line := range out {
		if line.Quantity > 0 {
			kept = append(kept, line)
		}
	}
	return kept
}

// NormalizeAndMerge is the full cart pipeline used by checkout.
func NormalizeAndMerge(p Payload) []Line {
	return Merge(Normalize(p))
}

func lineKey(line Line) string {
	product := normalizeProductID(line.ProductID)
	if product == "" {
		product = strings.ToLower(line.Title)
	}
	return strings.Join([]string{
		product,
		strings.ToLower(strings.TrimSpace(line.Size)),
		strings.ToLower(strings.TrimSpace(line.Color)),
	}, "|")
}

func normalizeProductID(raw string) string {
	if id, err := uuid.Parse(strings.TrimSpace(raw)); err == nil {
		return id.String()
	}
	return strings.ToLower(strings.TrimSpace(raw))
}

// PricingItems adapts lines for the calculator.
func PricingItems(lines []Line) []pricing.Item {
	items := make([]pricing.Item, 0, len(lines))
	for _, line := range lines {
		items = append(items, pricing.Item{UnitPrice: line.Price, Quantity: line.Quantity})
	}
	return items
}

// OrderLines converts cart lines into persisted order lines. Catalog ids
// become ProductID; anything else is kept as a legacy reference.
func OrderLines(lines []Line) types.OrderLines {
	out := make(types.OrderLines, 0, len(lines))
	for _, line := range Merge(lines) {
		ol := types.OrderLine{
			Color:     line.Color,
			Size:      line.Size,
			Quantity:  line.Quantity,
			UnitPrice: line.Price,
			Title:     line.Title,
		}
		if line.ProductID != "" {
			if id, err := uuid.Parse(line.ProductID); err == nil {
				ol.ProductID = &id
			} else {
				ol.LegacyProductID = line.ProductID
			}
		}
		out = append(out, ol)
	}
	return out
}
