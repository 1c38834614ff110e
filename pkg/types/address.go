package types

import (
	"database/sql/driver"
	"strings"
)

// ShippingAddress is the delivery address captured at checkout or copied
// from the payment provider's payer profile.
type ShippingAddress struct {
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Street     string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// FullName joins first and last name, skipping blanks.
func (a ShippingAddress) FullName() string {
	return strings.TrimSpace(strings.Join(nonEmpty(a.FirstName, a.LastName), " "))
}

// IsZero reports whether no field carries a value.
func (a ShippingAddress) IsZero() bool {
	return a == ShippingAddress{}
}

// Value serializes the address to JSON.
func (a ShippingAddress) Value() (driver.Value, error) {
	return jsonValue(a)
}

// Scan decodes JSONB into the address.
func (a *ShippingAddress) Scan(value interface{}) error {
	*a = ShippingAddress{}
	if value == nil {
		return nil
	}
	return jsonScan(value, a)
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
