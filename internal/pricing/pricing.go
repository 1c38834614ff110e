// Package pricing computes checkout totals with two-decimal, round-half-up
// monetary discipline shared by checkout, capture and order listing.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/milosbg/mbg-admin-backend/pkg/enums"
	pkgerrors "github.com/milosbg/mbg-admin-backend/pkg/errors"
)

const (
	RateFreeDelivery    = "FREE_DELIVERY"
	RateExpressDelivery = "EXPRESS_DELIVERY"

	ReasonEmptyCart = "EMPTY_CART"
)

// Currency is the settlement currency for every checkout.
const Currency = enums.CurrencyEUR

// ShippingOption is one row of the fixed shipping table.
type ShippingOption struct {
	Method enums.ShippingMethod
	RateID string
	Amount decimal.Decimal
	Label  string
}

var (
	freeShipping = ShippingOption{
		Method: enums.ShippingMethodFree,
		RateID: RateFreeDelivery,
		Amount: decimal.Zero,
		Label:  "Livraison standard",
	}
	expressShipping = ShippingOption{
		Method: enums.ShippingMethodExpress,
		RateID: RateExpressDelivery,
		Amount: decimal.NewFromInt(10),
		Label:  "Livraison express",
	}
)

// ExpressAmount is the flat EXPRESS surcharge.
func ExpressAmount() decimal.Decimal {
	return expressShipping.Amount
}

// ParseShippingOption accepts EXPRESS case-insensitively; anything else is FREE.
func ParseShippingOption(raw string) ShippingOption {
	if strings.EqualFold(strings.TrimSpace(raw), string(enums.ShippingMethodExpress)) {
		return expressShipping
	}
	return freeShipping
}

// OptionFor returns the table row for method.
func OptionFor(method enums.ShippingMethod) ShippingOption {
	if method == enums.ShippingMethodExpress {
		return expressShipping
	}
	return freeShipping
}

// InferMethod recovers the shipping method from a stored rate id or label.
func InferMethod(rate string) enums.ShippingMethod {
	if strings.Contains(strings.ToUpper(rate), string(enums.ShippingMethodExpress)) {
		return enums.ShippingMethodExpress
	}
	return enums.ShippingMethodFree
}

// Item is the priced view of a line.
type Item struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals are rounded to cents.
type Totals struct {
	ItemSubtotal   decimal.Decimal
	ShippingAmount decimal.Decimal
	Total          decimal.Decimal
}

// Compute sums the items unrounded, rounds the subtotal once, and derives
// the total from the rounded subtotal and shipping amount.
func Compute(items []Item, option ShippingOption) (Totals, error) {
	if len(items) == 0 {
		return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty").
			WithReason(ReasonEmptyCart).
			WithDetails(map[string]any{"code": ReasonEmptyCart})
	}
	subtotal := Subtotal(items)
	shipping := Round(option.Amount)
	return Totals{
		ItemSubtotal:   subtotal,
		ShippingAmount: shipping,
		Total:          Round(subtotal.Add(shipping)),
	}, nil
}

// Subtotal returns the rounded sum of unit price times quantity.
func Subtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		sum = sum.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return Round(sum)
}

// Round rounds half away from zero to two decimals, which is half-up for
// the non-negative amounts handled here.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ToMinorUnits converts an amount to integer cents.
func ToMinorUnits(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// Format renders an amount with exactly two decimals, as payment providers expect.
func Format(d decimal.Decimal) string {
	return Round(d).StringFixed(2)
}
