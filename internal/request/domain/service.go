package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/shawnuphold/wishpark/pkg/db/pagination"
)

type CreateRequestItem struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Quantity    int64           `json:"quantity"`
	BudgetPrice decimal.Decimal `json:"budget_price"`
	Notes       string          `json:"notes"`
}

type CreateRequest struct {
	CustomerName  string              `json:"customer_name"`
	CustomerEmail string              `json:"customer_email"`
	Park          string              `json:"park"`
	Notes         string              `json:"notes"`
	Items         []CreateRequestItem `json:"items"`
}

type ListRequest struct {
	pagination.Pagination
	Status        RequestStatus
	CustomerEmail string
}

type ListResponse struct {
	pagination.PageInfo
	Requests []Request `json:"requests"`
}

type UpdateItemStatusRequest struct {
	ItemID     string           `json:"item_id"`
	Status     ItemStatus       `json:"status"`
	FoundPrice *decimal.Decimal `json:"found_price,omitempty"`
	Notes      string           `json:"notes"`
}

// StatusStep is one segment of the customer-facing progress bar.
type StatusStep struct {
	Status    RequestStatus `json:"status"`
	Position  int           `json:"position"`
	Completed bool          `json:"completed"`
	Current   bool          `json:"current"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Request, error)
	GetByID(ctx context.Context, id string) (*Request, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Progress(ctx context.Context, id string) ([]StatusStep, error)

	Quote(ctx context.Context, id string) (*Request, error)
	Approve(ctx context.Context, id string) (*Request, error)
	AssignTrip(ctx context.Context, id string, tripID string) (*Request, error)
	UnassignTrip(ctx context.Context, id string) (*Request, error)
	StartShopping(ctx context.Context, id string) (*Request, error)
	UpdateItemStatus(ctx context.Context, id string, req UpdateItemStatusRequest) (*Request, error)
	CompleteShopping(ctx context.Context, id string) (*Request, error)
	MarkDelivered(ctx context.Context, id string) (*Request, error)
}

var (
	ErrInvalidID            = errors.New("invalid_request_id")
	ErrNotFound             = errors.New("request_not_found")
	ErrInvalidCustomerName  = errors.New("invalid_customer_name")
	ErrInvalidCustomerEmail = errors.New("invalid_customer_email")
	ErrNoItems              = errors.New("request_has_no_items")
	ErrInvalidItem          = errors.New("invalid_request_item")
	ErrItemNotFound         = errors.New("request_item_not_found")
	ErrInvalidItemStatus    = errors.New("invalid_item_status")
	ErrInvalidTrip          = errors.New("invalid_trip_id")
	ErrInvalidTransition    = errors.New("invalid_request_transition")
)
