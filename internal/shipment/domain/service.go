package domain

import (
	"context"
	"errors"
)

// Address is the destination block sent to the carrier when buying a label.
type Address struct {
	Name    string `json:"name"`
	Street1 string `json:"street1"`
	Street2 string `json:"street2"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

type CreateShipmentRequest struct {
	RequestID    string  `json:"request_id"`
	Carrier      string  `json:"carrier"`
	ServiceLevel string  `json:"service_level"`
	To           Address `json:"to"`
	WeightOunces float64 `json:"weight_ounces"`
}

type Service interface {
	Create(ctx context.Context, req CreateShipmentRequest) (*Shipment, error)
	GetByID(ctx context.Context, id string) (*Shipment, error)
	ListByRequest(ctx context.Context, requestID string) ([]Shipment, error)
	MarkDelivered(ctx context.Context, id string) (*Shipment, error)
}

var (
	ErrInvalidID        = errors.New("invalid_shipment_id")
	ErrNotFound         = errors.New("shipment_not_found")
	ErrInvalidAddress   = errors.New("invalid_address")
	ErrRequestNotPaid   = errors.New("request_not_paid")
	ErrAlreadyDelivered = errors.New("shipment_already_delivered")
	ErrCarrierFailure   = errors.New("carrier_failure")
)
