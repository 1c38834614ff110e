package types

import "database/sql/driver"

// OrderMetadata records where a checkout request came from.
type OrderMetadata struct {
	Origin      string `json:"origin,omitempty"`
	Source      string `json:"source,omitempty"`
	GeneratedAt string `json:"generatedAt,omitempty"`
}

// Value serializes the metadata to JSON.
func (m OrderMetadata) Value() (driver.Value, error) {
	return jsonValue(m)
}

// Scan decodes JSONB into the metadata.
func (m *OrderMetadata) Scan(value interface{}) error {
	*m = OrderMetadata{}
	if value == nil {
		return nil
	}
	return jsonScan(value, m)
}
