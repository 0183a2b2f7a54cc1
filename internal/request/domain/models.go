package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Request is a customer's shopping request: the items they want picked up
// in-park, tracked from intake through delivery.
type Request struct {
	ID            snowflake.ID      `gorm:"primaryKey" json:"id"`
	CustomerName  string            `gorm:"type:text;not null" json:"customer_name"`
	CustomerEmail string            `gorm:"type:text;not null;index" json:"customer_email"`
	Park          string            `gorm:"type:text" json:"park"`
	Status        RequestStatus     `gorm:"type:text;not null;default:'pending';index" json:"status"`
	TripID        *snowflake.ID     `gorm:"index" json:"trip_id,omitempty"`
	InvoiceID     *snowflake.ID     `gorm:"index" json:"invoice_id,omitempty"`
	Notes         *string           `gorm:"type:text" json:"notes,omitempty"`
	Metadata      datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	ApprovedAt    *time.Time        `json:"approved_at,omitempty"`
	CreatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Items []RequestItem `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// TableName sets the database table name.
func (Request) TableName() string { return "requests" }

// RequestItem is a single item within a request. Its status is independent
// of the request-level lifecycle.
type RequestItem struct {
	ID          snowflake.ID     `gorm:"primaryKey" json:"id"`
	RequestID   snowflake.ID     `gorm:"not null;index" json:"request_id"`
	Name        string           `gorm:"type:text;not null" json:"name"`
	Category    string           `gorm:"type:text" json:"category"`
	Quantity    int64            `gorm:"not null;default:1" json:"quantity"`
	BudgetPrice decimal.Decimal  `gorm:"type:numeric(12,2);not null;default:0" json:"budget_price"`
	FoundPrice  *decimal.Decimal `gorm:"type:numeric(12,2)" json:"found_price,omitempty"`
	Status      ItemStatus       `gorm:"type:text;not null;default:'pending'" json:"status"`
	Notes       *string          `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt   time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (RequestItem) TableName() string { return "request_items" }
