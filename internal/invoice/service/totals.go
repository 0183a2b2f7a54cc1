package service

import (
	"context"
	"time"

	invoicedomain "github.com/shawnuphold/wishpark/internal/invoice/domain"
	"github.com/shawnuphold/wishpark/internal/money"
	"gorm.io/gorm"
)

// recomputeTotalsTx rewrites every denormalized amount on the invoice from
// the full, authoritative line-item set. It must run inside the same
// transaction as the mutation that triggered it so a crash can never leave a
// saved line item with a stale invoice total.
func recomputeTotalsTx(ctx context.Context, tx *gorm.DB, invoice *invoicedomain.Invoice, now time.Time) error {
	var items []invoicedomain.LineItem
	if err := tx.WithContext(ctx).
		Where("invoice_id = ?", invoice.ID).
		Order("position ASC, id ASC").
		Find(&items).Error; err != nil {
		return err
	}

	lines := make([]money.LineCharge, 0, len(items))
	for _, item := range items {
		lines = append(lines, money.LineCharge{
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TaxAmount:   item.TaxAmount,
			PickupFee:   item.PickupFee,
			ShippingFee: item.ShippingFee,
			CustomFee:   item.CustomFeeAmount,
		})
	}

	totals, err := money.ComputeTotals(lines, money.CCFeePolicy{
		Enabled:      invoice.CCFeeEnabled,
		Percentage:   invoice.CCFeePercentage,
		ManualAmount: invoice.CCFeeManual,
	})
	if err != nil {
		return err
	}

	invoice.ItemsSubtotal = money.Round2(totals.ItemsSubtotal)
	invoice.TaxAmount = money.Round2(totals.Tax)
	invoice.PickupAmount = money.Round2(totals.Pickup)
	invoice.ShippingAmount = money.Round2(totals.Shipping)
	invoice.CustomAmount = money.Round2(totals.Custom)
	invoice.Subtotal = money.Round2(totals.Subtotal)
	invoice.CCFeeAmount = money.Round2(totals.CCFee)
	invoice.Total = money.Round2(totals.Total)
	invoice.Items = items
	invoice.UpdatedAt = now

	return tx.WithContext(ctx).Model(&invoicedomain.Invoice{}).
		Where("id = ?", invoice.ID).
		Updates(map[string]any{
			"items_subtotal":  invoice.ItemsSubtotal,
			"tax_amount":      invoice.TaxAmount,
			"pickup_amount":   invoice.PickupAmount,
			"shipping_amount": invoice.ShippingAmount,
			"custom_amount":   invoice.CustomAmount,
			"subtotal":        invoice.Subtotal,
			"cc_fee_amount":   invoice.CCFeeAmount,
			"total":           invoice.Total,
			"updated_at":      now,
		}).Error
}
