package enums

import "fmt"

// PaymentFlow discriminates which checkout path produced an order.
type PaymentFlow string

const (
	PaymentFlowProvider PaymentFlow = "provider"
	PaymentFlowManual   PaymentFlow = "manual"
)

var validPaymentFlows = []PaymentFlow{
	PaymentFlowProvider,
	PaymentFlowManual,
}

// String implements fmt.Stringer.
func (f PaymentFlow) String() string {
	return string(f)
}

// IsValid reports whether the value is a known PaymentFlow.
func (f PaymentFlow) IsValid() bool {
	for _, candidate := range validPaymentFlows {
		if candidate == f {
			return true
		}
	}
	return false
}

// PaymentStatuses returns the payment vocabulary owned by the flow.
func (f PaymentFlow) PaymentStatuses() []PaymentStatus {
	switch f {
	case PaymentFlowProvider:
		return providerPaymentStatuses
	case PaymentFlowManual:
		return manualPaymentStatuses
	default:
		return nil
	}
}

// InitialPaymentStatus is the status a freshly created order carries.
func (f PaymentFlow) InitialPaymentStatus() PaymentStatus {
	if f == PaymentFlowManual {
		return PaymentStatusPending
	}
	return PaymentStatusCreated
}

// ParsePaymentFlow converts raw input into a PaymentFlow.
func ParsePaymentFlow(value string) (PaymentFlow, error) {
	for _, candidate := range validPaymentFlows {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment flow %q", value)
}
