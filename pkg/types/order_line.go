package types

import (
	"database/sql/driver"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLine is a persisted line item. ProductID references the catalog;
// LegacyProductID keeps identifiers that predate it.
type OrderLine struct {
	ProductID       *uuid.UUID      `json:"productId,omitempty"`
	LegacyProductID string          `json:"productLegacyId,omitempty"`
	Color           string          `json:"color,omitempty"`
	Size            string          `json:"size,omitempty"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	Title           string          `json:"title"`
}

// ProductRef returns the catalog id as text, falling back to the legacy id.
func (l OrderLine) ProductRef() string {
	if l.ProductID != nil {
		return l.ProductID.String()
	}
	return l.LegacyProductID
}

// OrderLines is stored as a JSONB array.
type OrderLines []OrderLine

// Value serializes the lines to JSON.
func (l OrderLines) Value() (driver.Value, error) {
	if l == nil {
		return jsonValue([]OrderLine{})
	}
	return jsonValue([]OrderLine(l))
}

// Scan decodes a JSONB array into the lines.
func (l *OrderLines) Scan(value interface{}) error {
	*l = OrderLines{}
	if value == nil {
		return nil
	}
	var out []OrderLine
	if err := jsonScan(value, &out); err != nil {
		return err
	}
	*l = out
	return nil
}
