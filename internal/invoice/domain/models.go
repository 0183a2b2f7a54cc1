package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// PaymentMethod records how an invoice was settled.
type PaymentMethod string

const (
	PaymentMethodPaypal PaymentMethod = "paypal"
	PaymentMethodStripe PaymentMethod = "stripe"
	PaymentMethodManual PaymentMethod = "manual"
)

// Valid reports whether the payment method is known.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodPaypal, PaymentMethodStripe, PaymentMethodManual:
		return true
	}
	return false
}

// Invoice is the billing document for a request. The amount columns are
// denormalized caches of the totals engine; every line-item or fee mutation
// rewrites them in the same transaction.
type Invoice struct {
	ID               snowflake.ID     `gorm:"primaryKey" json:"id"`
	Number           string           `gorm:"type:text;uniqueIndex" json:"number"`
	RequestID        *snowflake.ID    `gorm:"index" json:"request_id,omitempty"`
	Status           InvoiceStatus    `gorm:"type:text;not null;default:'draft';index" json:"status"`
	ItemsSubtotal    decimal.Decimal  `gorm:"type:numeric(12,2);not null;default:0" json:"items_subtotal"`
	TaxAmount        decimal.Decimal  `gorm:"type:numeric(12,2);not null;default:0" json:"tax_amount"`
	PickupAmount     decimal.Decimal  `gorm:"type:numeric(12,2);not null;default:0" json:"pickup_amount"`
	ShippingAmount   decimal.Decimal  `gorm:"type:numeric(12,2);not null;default:0" json:"shipping_amount"`
	CustomAmount     decimal.Decimal  `gorm:"type:numeric(12,2);not null;default:0" json:"custom_amount"`
	Subtotal         decimal.Decimal  `gorm:"type:numeric(12,2);not null;default:0" json:"subtotal"`
	CCFeeEnabled     bool             `gorm:"column:cc_fee_enabled;not null;default:false" json:"cc_fee_enabled"`
	CCFeePercentage  decimal.Decimal  `gorm:"column:cc_fee_percentage;type:numeric(6,3);not null;default:3.0" json:"cc_fee_percentage"`
	CCFeeManual      *decimal.Decimal `gorm:"column:cc_fee_manual;type:numeric(12,2)" json:"cc_fee_manual_amount,omitempty"`
	CCFeeAmount      decimal.Decimal  `gorm:"column:cc_fee_amount;type:numeric(12,2);not null;default:0" json:"cc_fee_amount"`
	Total            decimal.Decimal  `gorm:"type:numeric(12,2);not null;default:0" json:"total"`
	PaymentMethod    *PaymentMethod   `gorm:"type:text" json:"payment_method,omitempty"`
	PaymentReference *string          `gorm:"type:text" json:"payment_reference,omitempty"`
	Notes            *string          `gorm:"type:text" json:"notes,omitempty"`
	DueDate          *time.Time       `json:"due_date,omitempty"`
	SentAt           *time.Time       `json:"sent_at,omitempty"`
	PaidAt           *time.Time       `json:"paid_at,omitempty"`
	CreatedAt        time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Items []LineItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// LineItem is one billable line on an invoice. TaxAmount is derived at write
// time and rewritten whenever quantity or unit price change.
type LineItem struct {
	ID              snowflake.ID     `gorm:"primaryKey" json:"id"`
	InvoiceID       snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	Name            string           `gorm:"type:text;not null" json:"name"`
	Quantity        int64            `gorm:"not null;default:1" json:"quantity"`
	UnitPrice       decimal.Decimal  `gorm:"type:numeric(12,2);not null;default:0" json:"unit_price"`
	TaxAmount       decimal.Decimal  `gorm:"type:numeric(12,2);not null;default:0" json:"tax_amount"`
	PickupFee       decimal.Decimal  `gorm:"type:numeric(12,2);not null;default:0" json:"pickup_fee"`
	ShippingFee     decimal.Decimal  `gorm:"type:numeric(12,2);not null;default:0" json:"shipping_fee"`
	CustomFeeLabel  *string          `gorm:"type:text" json:"custom_fee_label,omitempty"`
	CustomFeeAmount decimal.Decimal  `gorm:"type:numeric(12,2);not null;default:0" json:"custom_fee_amount"`
	Position        int              `gorm:"not null;default:0" json:"position"`
	CreatedAt       time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (LineItem) TableName() string { return "invoice_line_items" }
