package types

import "database/sql/driver"

// Contact is how the merchant reaches the buyer about an order.
type Contact struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Value serializes the contact to JSON.
func (c Contact) Value() (driver.Value, error) {
	return jsonValue(c)
}

// Scan decodes JSONB into the contact.
func (c *Contact) Scan(value interface{}) error {
	*c = Contact{}
	if value == nil {
		return nil
	}
	return jsonScan(value, c)
}
