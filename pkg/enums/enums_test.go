package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFulfillmentTransitions(t *testing.T) {
	cases := []struct {
		from, to FulfillmentStatus
		ok       bool
	}{
		{FulfillmentStatusPending, FulfillmentStatusProcessing, true},
		{FulfillmentStatusPending, FulfillmentStatusCancelled, true},
		{FulfillmentStatusPending, FulfillmentStatusShipped, false},
		{FulfillmentStatusProcessing, FulfillmentStatusShipped, true},
		{FulfillmentStatusShipped, FulfillmentStatusDelivered, true},
		{FulfillmentStatusShipped, FulfillmentStatusCancelled, true},
		{FulfillmentStatusDelivered, FulfillmentStatusCompleted, true},
		{FulfillmentStatusDelivered, FulfillmentStatusCancelled, false},
		{FulfillmentStatusCompleted, FulfillmentStatusPending, false},
		{FulfillmentStatusCancelled, FulfillmentStatusProcessing, false},
		{FulfillmentStatusCancelled, FulfillmentStatusCancelled, true},
		{FulfillmentStatusPending, FulfillmentStatus("LOST"), false},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.ok, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestAllowedPredecessors(t *testing.T) {
	got := AllowedPredecessors(FulfillmentStatusCancelled)
	assert.ElementsMatch(t, []FulfillmentStatus{
		FulfillmentStatusCancelled,
		FulfillmentStatusPending,
		FulfillmentStatusProcessing,
		FulfillmentStatusShipped,
	}, got)
}

func TestParseFulfillmentStatusNormalizesCase(t *testing.T) {
	status, err := ParseFulfillmentStatus(" shipped ")
	require.NoError(t, err)
	assert.Equal(t, FulfillmentStatusShipped, status)

	_, err = ParseFulfillmentStatus("lost")
	assert.Error(t, err)
}

func TestPaymentStatusForKeepsVocabulariesApart(t *testing.T) {
	status, err := PaymentStatusFor(PaymentFlowManual, "not paid")
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusNotPaid, status)

	_, err = PaymentStatusFor(PaymentFlowManual, "COMPLETED")
	assert.Error(t, err)

	_, err = PaymentStatusFor(PaymentFlowProvider, "PAID")
	assert.Error(t, err)

	assert.Equal(t, PaymentStatusCompleted, ProviderPaymentStatus("completed"))
	assert.Equal(t, PaymentStatusCreated, ProviderPaymentStatus("PAYER_ACTION_REQUIRED"))
}

func TestInitialPaymentStatus(t *testing.T) {
	assert.Equal(t, PaymentStatusPending, PaymentFlowManual.InitialPaymentStatus())
	assert.Equal(t, PaymentStatusCreated, PaymentFlowProvider.InitialPaymentStatus())
}

func TestParseShippingMethod(t *testing.T) {
	method, err := ParseShippingMethod("express")
	require.NoError(t, err)
	assert.Equal(t, ShippingMethodExpress, method)

	_, err = ParseShippingMethod("overnight")
	assert.Error(t, err)
}
