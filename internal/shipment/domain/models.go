package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// ShipmentStatus tracks a package from label purchase to the doorstep.
type ShipmentStatus string

const (
	ShipmentStatusLabelPurchased ShipmentStatus = "label_purchased"
	ShipmentStatusInTransit      ShipmentStatus = "in_transit"
	ShipmentStatusDelivered      ShipmentStatus = "delivered"
)

func (s ShipmentStatus) Valid() bool {
	switch s {
	case ShipmentStatusLabelPurchased, ShipmentStatusInTransit, ShipmentStatusDelivered:
		return true
	}
	return false
}

// Shipment is one outbound package for a paid request.
type Shipment struct {
	ID             snowflake.ID    `gorm:"primaryKey" json:"id"`
	RequestID      snowflake.ID    `gorm:"not null;index" json:"request_id"`
	Carrier        string          `gorm:"type:text;not null" json:"carrier"`
	ServiceLevel   string          `gorm:"type:text" json:"service_level"`
	TrackingNumber string          `gorm:"type:text;not null;index" json:"tracking_number"`
	LabelURL       string          `gorm:"type:text" json:"label_url"`
	Cost           decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"cost"`
	Status         ShipmentStatus  `gorm:"type:text;not null;default:'label_purchased'" json:"status"`
	ShippedAt      *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Shipment) TableName() string { return "shipments" }
