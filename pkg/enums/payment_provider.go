package enums

import (
	"fmt"
	"strings"
)

// PaymentProvider identifies the external processor behind a provider-flow order.
type PaymentProvider string

const (
	PaymentProviderNone   PaymentProvider = ""
	PaymentProviderPayPal PaymentProvider = "paypal"
	PaymentProviderStripe PaymentProvider = "stripe"
)

var validPaymentProviders = []PaymentProvider{
	PaymentProviderPayPal,
	PaymentProviderStripe,
}

// String implements fmt.Stringer.
func (p PaymentProvider) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentProvider.
func (p PaymentProvider) IsValid() bool {
	for _, candidate := range validPaymentProviders {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentProvider converts raw input into a PaymentProvider.
func ParsePaymentProvider(value string) (PaymentProvider, error) {
	normalized := PaymentProvider(strings.ToLower(strings.TrimSpace(value)))
	for _, candidate := range validPaymentProviders {
		if candidate == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment provider %q", value)
}
