package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PaymentEvent is the provider-neutral result of parsing a webhook payload.
type PaymentEvent struct {
	Provider        string
	ProviderEventID string
	Type            string
	InvoiceID       string
	Amount          decimal.Decimal
	Currency        string
	Reference       string
}

// EventRecord is the stored copy of a received webhook. The unique index on
// (provider, provider_event_id) is what makes ingestion idempotent under
// provider retries.
type EventRecord struct {
	ID              snowflake.ID   `gorm:"primaryKey" json:"id"`
	Provider        string         `gorm:"type:text;not null;uniqueIndex:idx_payment_events_provider_event" json:"provider"`
	ProviderEventID string         `gorm:"type:text;not null;uniqueIndex:idx_payment_events_provider_event" json:"provider_event_id"`
	EventType       string         `gorm:"type:text;not null" json:"event_type"`
	InvoiceID       *snowflake.ID  `gorm:"index" json:"invoice_id,omitempty"`
	Payload         datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	ReceivedAt      time.Time      `gorm:"not null" json:"received_at"`
	ProcessedAt     *time.Time     `json:"processed_at,omitempty"`
}

// TableName sets the database table name.
func (EventRecord) TableName() string { return "payment_events" }
