package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Label is the carrier's response to a label purchase.
type Label struct {
	TrackingNumber string
	LabelURL       string
	Cost           decimal.Decimal
}

// PurchaseLabelRequest is what the carrier needs to rate and print a label.
type PurchaseLabelRequest struct {
	Carrier      string
	ServiceLevel string
	To           Address
	WeightOunces float64
	Reference    string
}

// CarrierClient talks to the external shipping API.
type CarrierClient interface {
	PurchaseLabel(ctx context.Context, req PurchaseLabelRequest) (*Label, error)
}
