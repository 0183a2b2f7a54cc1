package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/shawnuphold/wishpark/internal/invoice/domain"
	paymentdomain "github.com/shawnuphold/wishpark/internal/payment/domain"
	requestdomain "github.com/shawnuphold/wishpark/internal/request/domain"
	shipmentdomain "github.com/shawnuphold/wishpark/internal/shipment/domain"
)

// APIError is the wire shape of every error response.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *APIError) Error() string { return e.Code + ": " + e.Message }

var (
	ErrUnauthorized = &APIError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "missing or invalid credentials"}
	ErrNotFound     = &APIError{Status: http.StatusNotFound, Code: "not_found", Message: "resource not found"}
	ErrRateLimited  = &APIError{Status: http.StatusTooManyRequests, Code: "rate_limited", Message: "too many requests"}
)

func invalidRequestError() *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: "invalid_request", Message: "request body could not be parsed"}
}

func newValidationError(field, code, message string) *APIError {
	return &APIError{Status: http.StatusUnprocessableEntity, Code: code, Message: message, Field: field}
}

// statusByError maps domain errors onto HTTP statuses. Anything unlisted is a
// 500 and gets logged by the caller.
var statusByError = map[error]int{
	requestdomain.ErrInvalidID:            http.StatusBadRequest,
	requestdomain.ErrNotFound:             http.StatusNotFound,
	requestdomain.ErrInvalidCustomerName:  http.StatusUnprocessableEntity,
	requestdomain.ErrInvalidCustomerEmail: http.StatusUnprocessableEntity,
	requestdomain.ErrNoItems:              http.StatusUnprocessableEntity,
	requestdomain.ErrInvalidItem:          http.StatusUnprocessableEntity,
	requestdomain.ErrItemNotFound:         http.StatusNotFound,
	requestdomain.ErrInvalidItemStatus:    http.StatusUnprocessableEntity,
	requestdomain.ErrInvalidTrip:          http.StatusUnprocessableEntity,
	requestdomain.ErrInvalidTransition:    http.StatusConflict,

	invoicedomain.ErrInvalidID:            http.StatusBadRequest,
	invoicedomain.ErrNotFound:             http.StatusNotFound,
	invoicedomain.ErrLineItemNotFound:     http.StatusNotFound,
	invoicedomain.ErrInvalidLineItem:      http.StatusUnprocessableEntity,
	invoicedomain.ErrNotDraft:             http.StatusConflict,
	invoicedomain.ErrInvalidTransition:    http.StatusConflict,
	invoicedomain.ErrInvalidPaymentMethod: http.StatusUnprocessableEntity,
	invoicedomain.ErrInvalidFeeSettings:   http.StatusUnprocessableEntity,
	invoicedomain.ErrRequestNotBillable:   http.StatusConflict,
	invoicedomain.ErrNoBillableItems:      http.StatusUnprocessableEntity,

	shipmentdomain.ErrInvalidID:        http.StatusBadRequest,
	shipmentdomain.ErrNotFound:         http.StatusNotFound,
	shipmentdomain.ErrInvalidAddress:   http.StatusUnprocessableEntity,
	shipmentdomain.ErrRequestNotPaid:   http.StatusConflict,
	shipmentdomain.ErrAlreadyDelivered: http.StatusConflict,
	shipmentdomain.ErrCarrierFailure:   http.StatusBadGateway,

	paymentdomain.ErrInvalidProvider:       http.StatusBadRequest,
	paymentdomain.ErrProviderNotFound:      http.StatusNotFound,
	paymentdomain.ErrInvalidSignature:      http.StatusUnauthorized,
	paymentdomain.ErrInvalidPayload:        http.StatusBadRequest,
	paymentdomain.ErrInvalidEvent:          http.StatusBadRequest,
	paymentdomain.ErrMissingInvoice:        http.StatusUnprocessableEntity,
	paymentdomain.ErrEventAlreadyProcessed: http.StatusConflict,
}

// AbortWithError writes the error response and stops the handler chain.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr})
		return
	}

	for domainErr, status := range statusByError {
		if errors.Is(err, domainErr) {
			c.AbortWithStatusJSON(status, gin.H{"error": &APIError{
				Status:  status,
				Code:    domainErr.Error(),
				Message: domainErr.Error(),
			}})
			return
		}
	}

	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "internal server error",
	}})
}
