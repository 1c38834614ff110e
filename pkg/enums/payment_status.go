package enums

import (
	"fmt"
	"strings"
)

// PaymentStatus is the payment state stored on an order. Its vocabulary
// depends on the order's PaymentFlow and the two are never mixed.
type PaymentStatus string

// Provider vocabulary mirrors the payment provider's order lifecycle.
const (
	PaymentStatusCreated   PaymentStatus = "CREATED"
	PaymentStatusApproved  PaymentStatus = "APPROVED"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusVoided    PaymentStatus = "VOIDED"
)

// Manual vocabulary is the merchant-facing view for direct checkouts.
const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusNotPaid PaymentStatus = "NOT PAID"
)

var providerPaymentStatuses = []PaymentStatus{
	PaymentStatusCreated,
	PaymentStatusApproved,
	PaymentStatusCompleted,
	PaymentStatusVoided,
}

var manualPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusPaid,
	PaymentStatusNotPaid,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// PaymentStatusFor validates raw against the vocabulary of flow.
func PaymentStatusFor(flow PaymentFlow, raw string) (PaymentStatus, error) {
	value := PaymentStatus(strings.ToUpper(strings.TrimSpace(raw)))
	for _, candidate := range flow.PaymentStatuses() {
		if candidate == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid %s payment status %q", flow, raw)
}

// ProviderPaymentStatus maps a provider-reported status onto the provider
// vocabulary. Unknown values fall back to CREATED.
func ProviderPaymentStatus(raw string) PaymentStatus {
	value, err := PaymentStatusFor(PaymentFlowProvider, raw)
	if err != nil {
		return PaymentStatusCreated
	}
	return value
}
