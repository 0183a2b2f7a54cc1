package render

import (
	"time"

	"github.com/shopspring/decimal"
	invoicedomain "github.com/shawnuphold/wishpark/internal/invoice/domain"
)

// RenderInput is the deterministic input used for invoice rendering.
type RenderInput struct {
	Invoice  InvoiceView
	Customer CustomerView
	Items    []LineItemView
}

type InvoiceView struct {
	Number         string
	Status         string
	SentAt         *time.Time
	DueDate        *time.Time
	ItemsSubtotal  decimal.Decimal
	TaxAmount      decimal.Decimal
	PickupAmount   decimal.Decimal
	ShippingAmount decimal.Decimal
	CustomAmount   decimal.Decimal
	Subtotal       decimal.Decimal
	CCFeeAmount    decimal.Decimal
	Total          decimal.Decimal
	Notes          string
}

type CustomerView struct {
	Name  string
	Email string
}

type LineItemView struct {
	Name      string
	Quantity  int64
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// HTMLRenderer renders the printable invoice document.
type HTMLRenderer interface {
	RenderHTML(input RenderInput) (string, error)
}

// PDFRenderer renders the downloadable invoice document.
type PDFRenderer interface {
	RenderPDF(input RenderInput) ([]byte, error)
}

// BuildInput maps an invoice and its customer onto the render views. Fee
// categories with a zero sum are itemized away by the templates.
func BuildInput(invoice *invoicedomain.Invoice, customerName, customerEmail string) RenderInput {
	input := RenderInput{
		Invoice: InvoiceView{
			Number:         invoice.Number,
			Status:         string(invoice.Status),
			SentAt:         invoice.SentAt,
			DueDate:        invoice.DueDate,
			ItemsSubtotal:  invoice.ItemsSubtotal,
			TaxAmount:      invoice.TaxAmount,
			PickupAmount:   invoice.PickupAmount,
			ShippingAmount: invoice.ShippingAmount,
			CustomAmount:   invoice.CustomAmount,
			Subtotal:       invoice.Subtotal,
			CCFeeAmount:    invoice.CCFeeAmount,
			Total:          invoice.Total,
		},
		Customer: CustomerView{Name: customerName, Email: customerEmail},
	}
	if invoice.Notes != nil {
		input.Invoice.Notes = *invoice.Notes
	}
	for _, item := range invoice.Items {
		qty := decimal.NewFromInt(item.Quantity)
		lineTotal := item.UnitPrice.Mul(qty).
			Add(item.TaxAmount).Add(item.PickupFee).Add(item.ShippingFee).Add(item.CustomFeeAmount)
		input.Items = append(input.Items, LineItemView{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: lineTotal,
		})
	}
	return input
}
