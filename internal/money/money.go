// Package money implements the pricing arithmetic behind invoices: per-line
// totals, the stored Florida sales tax, category pickup fees, the itemized
// aggregation over a line-item set, and the credit-card surcharge policy.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// TaxRate is the Florida sales tax applied to merchandise. The tax amount is
// computed and stored at line-item write time so historical invoices keep
// their original tax even if this constant changes.
var TaxRate = decimal.NewFromFloat(0.065)

// DefaultCCFeePercent is the surcharge applied when an invoice is paid by
// card and no manual override is set.
var DefaultCCFeePercent = decimal.NewFromFloat(3.0)

var (
	ErrNegativeQuantity = errors.New("negative_quantity")
	ErrZeroQuantity     = errors.New("zero_quantity")
	ErrNegativeAmount   = errors.New("negative_amount")
)

// Round2 rounds half away from zero to two decimal places, matching how
// amounts are displayed and stored.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// AutoTax returns the stored tax for a line: Round2(qty × unitPrice × rate).
func AutoTax(quantity int64, unitPrice decimal.Decimal) decimal.Decimal {
	return Round2(decimal.NewFromInt(quantity).Mul(unitPrice).Mul(TaxRate))
}

// LineCharge is the billable content of a single invoice line.
type LineCharge struct {
	Quantity    int64
	UnitPrice   decimal.Decimal
	TaxAmount   decimal.Decimal
	PickupFee   decimal.Decimal
	ShippingFee decimal.Decimal
	CustomFee   decimal.Decimal
}

// Validate rejects quantities and amounts that must never be persisted.
func (l LineCharge) Validate() error {
	if l.Quantity < 0 {
		return ErrNegativeQuantity
	}
	if l.Quantity == 0 {
		return ErrZeroQuantity
	}
	for _, amount := range []decimal.Decimal{l.UnitPrice, l.TaxAmount, l.PickupFee, l.ShippingFee, l.CustomFee} {
		if amount.IsNegative() {
			return ErrNegativeAmount
		}
	}
	return nil
}

// ItemsSubtotal is unitPrice × quantity, before any fees.
func (l LineCharge) ItemsSubtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// LineTotal is the full billable amount of the line.
func (l LineCharge) LineTotal() decimal.Decimal {
	return l.ItemsSubtotal().Add(l.TaxAmount).Add(l.PickupFee).Add(l.ShippingFee).Add(l.CustomFee)
}

// Breakdown is the itemized aggregation over an invoice's line items. Every
// field is exposed because the invoice printout lists each fee category
// separately when its sum is non-zero.
type Breakdown struct {
	ItemsSubtotal decimal.Decimal `json:"items_subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Pickup        decimal.Decimal `json:"pickup"`
	Shipping      decimal.Decimal `json:"shipping"`
	Custom        decimal.Decimal `json:"custom"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

// Aggregate recomputes the breakdown from the full authoritative line set.
// It is idempotent: totals are never adjusted incrementally, so re-running
// it over the same lines always yields identical output.
func Aggregate(lines []LineCharge) (Breakdown, error) {
	var b Breakdown
	for _, line := range lines {
		if err := line.Validate(); err != nil {
			return Breakdown{}, err
		}
		b.ItemsSubtotal = b.ItemsSubtotal.Add(line.ItemsSubtotal())
		b.Tax = b.Tax.Add(line.TaxAmount)
		b.Pickup = b.Pickup.Add(line.PickupFee)
		b.Shipping = b.Shipping.Add(line.ShippingFee)
		b.Custom = b.Custom.Add(line.CustomFee)
	}
	b.Subtotal = b.ItemsSubtotal.Add(b.Tax).Add(b.Pickup).Add(b.Shipping).Add(b.Custom)
	return b, nil
}

// CCFeePolicy controls the credit-card surcharge layered on after
// aggregation. Percentage and ManualAmount are retained while the toggle is
// off so re-enabling restores the prior settings.
type CCFeePolicy struct {
	Enabled      bool
	Percentage   decimal.Decimal
	ManualAmount *decimal.Decimal
}

// Fee returns the surcharge for a given pre-fee subtotal. A manual amount
// always wins over the percentage while the toggle is enabled; a disabled
// toggle forces zero regardless of either value.
func (p CCFeePolicy) Fee(subtotal decimal.Decimal) decimal.Decimal {
	if !p.Enabled {
		return decimal.Zero
	}
	if p.ManualAmount != nil {
		return *p.ManualAmount
	}
	return subtotal.Mul(p.Percentage).Div(decimal.NewFromInt(100))
}

// Validate rejects negative surcharge inputs.
func (p CCFeePolicy) Validate() error {
	if p.Percentage.IsNegative() {
		return ErrNegativeAmount
	}
	if p.ManualAmount != nil && p.ManualAmount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// Totals is the full recompute result persisted onto an invoice.
type Totals struct {
	Breakdown
	CCFee decimal.Decimal `json:"cc_fee"`
	Total decimal.Decimal `json:"total"`
}

// ComputeTotals aggregates the lines and applies the surcharge policy.
func ComputeTotals(lines []LineCharge, policy CCFeePolicy) (Totals, error) {
	if err := policy.Validate(); err != nil {
		return Totals{}, err
	}
	breakdown, err := Aggregate(lines)
	if err != nil {
		return Totals{}, err
	}
	fee := policy.Fee(breakdown.Subtotal)
	return Totals{
		Breakdown: breakdown,
		CCFee:     fee,
		Total:     breakdown.Subtotal.Add(fee),
	}, nil
}

// Pickup fee schedule by item category. Oversized merchandise costs more to
// carry out of the park; everything else gets the flat rate.
var pickupFeeByCategory = map[string]decimal.Decimal{
	"plush":        decimal.NewFromInt(5),
	"apparel":      decimal.NewFromInt(5),
	"pins":         decimal.NewFromInt(3),
	"collectibles": decimal.NewFromInt(8),
	"home":         decimal.NewFromInt(10),
	"oversized":    decimal.NewFromInt(15),
}

var defaultPickupFee = decimal.NewFromInt(5)

// PickupFee returns the fee charged for shopping an item in-park, used only
// when the operator has not set an explicit pickup fee. High-value items
// carry a 2% premium on top of the category rate.
func PickupFee(category string, price decimal.Decimal) decimal.Decimal {
	fee, ok := pickupFeeByCategory[strings.ToLower(strings.TrimSpace(category))]
	if !ok {
		fee = defaultPickupFee
	}
	if price.GreaterThan(decimal.NewFromInt(200)) {
		fee = fee.Add(Round2(price.Mul(decimal.NewFromFloat(0.02))))
	}
	return fee
}
