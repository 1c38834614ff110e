package enums

import (
	"fmt"
	"strings"
)

// ShippingMethod is the delivery option picked at checkout.
type ShippingMethod string

const (
	ShippingMethodFree    ShippingMethod = "FREE"
	ShippingMethodExpress ShippingMethod = "EXPRESS"
)

var validShippingMethods = []ShippingMethod{
	ShippingMethodFree,
	ShippingMethodExpress,
}

// String implements fmt.Stringer.
func (s ShippingMethod) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShippingMethod.
func (s ShippingMethod) IsValid() bool {
	for _, candidate := range validShippingMethods {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShippingMethod converts raw input into a ShippingMethod.
func ParseShippingMethod(value string) (ShippingMethod, error) {
	normalized := ShippingMethod(strings.ToUpper(strings.TrimSpace(value)))
	for _, candidate := range validShippingMethods {
		if candidate == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipping method %q", value)
}
