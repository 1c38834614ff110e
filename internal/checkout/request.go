package checkout

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/milosbg/mbg-admin-backend/internal/cart"
	"github.com/milosbg/mbg-admin-backend/pkg/types"
)

// Text is a lenient string: JSON strings are trimmed, numbers are kept in
// their literal form and every other value decodes as empty.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*t = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		*t = Text(data)
	default:
		*t = ""
	}
	return nil
}

func (t Text) String() string { return string(t) }

// Request is the storefront checkout body. Every field is optional on the
// wire; the flows decide what is required.
type Request struct {
	cart.Payload
	Customer        CustomerInput  `json:"customer"`
	Contact         ContactInput   `json:"contact"`
	ShippingAddress *ShippingInput `json:"shippingAddress"`
	ShippingOption  Text           `json:"shippingOption"`
	Notes           Text           `json:"notes"`
	Metadata        *MetadataInput `json:"metadata"`
}

type CustomerInput struct {
	ClerkID Text `json:"clerkId"`
	Email   Text `json:"email"`
	Name    Text `json:"name"`
}

type ContactInput struct {
	Email Text `json:"email"`
	Phone Text `json:"phone"`
}

type ShippingInput struct {
	FirstName  Text `json:"firstName"`
	LastName   Text `json:"lastName"`
	Address    Text `json:"address"`
	City       Text `json:"city"`
	State      Text `json:"state"`
	PostalCode Text `json:"postalCode"`
	Country    Text `json:"country"`
	Phone      Text `json:"phone"`
}

type MetadataInput struct {
	Origin      Text `json:"origin"`
	Source      Text `json:"source"`
	GeneratedAt Text `json:"generatedAt"`
}

func (m *MetadataInput) toModel() types.OrderMetadata {
	if m == nil {
		return types.OrderMetadata{}
	}
	meta := types.OrderMetadata{Origin: m.Origin.String(), Source: m.Source.String()}
	if _, err := strconv.ParseFloat(m.GeneratedAt.String(), 64); err == nil {
		meta.GeneratedAt = m.GeneratedAt.String()
	}
	return meta
}

// Result is returned by every checkout flow.
type Result struct {
	ApproveURL     *string `json:"approveUrl"`
	OrderID        string  `json:"orderId"`
	Reference      *string `json:"reference"`
	Currency       string  `json:"currency"`
	Total          float64 `json:"total"`
	ItemTotal      float64 `json:"itemTotal"`
	ShippingAmount float64 `json:"shippingAmount"`
	ShippingRate   string  `json:"shippingRate"`
	Message        *string `json:"message"`
}
