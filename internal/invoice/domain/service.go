package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/shawnuphold/wishpark/pkg/db/pagination"
)

// LineItemInput carries operator-entered line fields. Tax is always derived
// from quantity and unit price, never accepted from the caller.
type LineItemInput struct {
	Name            string           `json:"name"`
	Quantity        int64            `json:"quantity"`
	UnitPrice       decimal.Decimal  `json:"unit_price"`
	PickupFee       *decimal.Decimal `json:"pickup_fee,omitempty"`
	ShippingFee     decimal.Decimal  `json:"shipping_fee"`
	CustomFeeLabel  string           `json:"custom_fee_label"`
	CustomFeeAmount decimal.Decimal  `json:"custom_fee_amount"`
}

type CreateInvoiceRequest struct {
	Notes   string          `json:"notes"`
	DueDate *time.Time      `json:"due_date,omitempty"`
	Items   []LineItemInput `json:"items"`
}

type FeeSettingsRequest struct {
	CCFeeEnabled    bool             `json:"cc_fee_enabled"`
	CCFeePercentage *decimal.Decimal `json:"cc_fee_percentage,omitempty"`
	CCFeeManual     *decimal.Decimal `json:"cc_fee_manual_amount,omitempty"`
	ClearManual     bool             `json:"clear_manual"`
}

type RecordPaymentRequest struct {
	Method    PaymentMethod `json:"method"`
	Reference string        `json:"reference"`
}

type ListInvoiceRequest struct {
	pagination.Pagination
	Status InvoiceStatus
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error)
	CreateFromRequest(ctx context.Context, requestID string) (*Invoice, error)
	GetByID(ctx context.Context, id string) (*Invoice, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)

	AddLineItem(ctx context.Context, invoiceID string, input LineItemInput) (*Invoice, error)
	UpdateLineItem(ctx context.Context, invoiceID, itemID string, input LineItemInput) (*Invoice, error)
	DeleteLineItem(ctx context.Context, invoiceID, itemID string) (*Invoice, error)
	UpdateFeeSettings(ctx context.Context, invoiceID string, req FeeSettingsRequest) (*Invoice, error)

	Send(ctx context.Context, invoiceID string) (*Invoice, error)
	RecordPayment(ctx context.Context, invoiceID string, req RecordPaymentRequest) (*Invoice, error)
	Cancel(ctx context.Context, invoiceID string, reason string) (*Invoice, error)
	Refund(ctx context.Context, invoiceID string, reason string) (*Invoice, error)
}

var (
	ErrInvalidID            = errors.New("invalid_invoice_id")
	ErrNotFound             = errors.New("invoice_not_found")
	ErrLineItemNotFound     = errors.New("line_item_not_found")
	ErrInvalidLineItem      = errors.New("invalid_line_item")
	ErrNotDraft             = errors.New("invoice_not_draft")
	ErrInvalidTransition    = errors.New("invalid_invoice_transition")
	ErrInvalidPaymentMethod = errors.New("invalid_payment_method")
	ErrInvalidFeeSettings   = errors.New("invalid_fee_settings")
	ErrRequestNotBillable   = errors.New("request_not_billable")
	ErrNoBillableItems      = errors.New("no_billable_items")
)
