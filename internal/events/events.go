package events

// Concierge event types written to the outbox.
const (
	EventRequestCreated    = "request.created"
	EventRequestApproved   = "request.approved"
	EventRequestScheduled  = "request.scheduled"
	EventRequestFound      = "request.found"
	EventInvoiceCreated    = "invoice.created"
	EventInvoiceSent       = "invoice.sent"
	EventInvoicePaid       = "invoice.paid"
	EventInvoiceCancelled  = "invoice.cancelled"
	EventInvoiceRefunded   = "invoice.refunded"
	EventShipmentCreated   = "shipment.created"
	EventShipmentDelivered = "shipment.delivered"
)

// InvoicePayload is the minimal data carried by invoice events.
type InvoicePayload struct {
	InvoiceID string `json:"invoice_id"`
	RequestID string `json:"request_id,omitempty"`
	Total     string `json:"total,omitempty"`
}

// ToMap converts the payload into an outbox-friendly map.
func (p InvoicePayload) ToMap() map[string]any {
	payload := map[string]any{"invoice_id": p.InvoiceID}
	if p.RequestID != "" {
		payload["request_id"] = p.RequestID
	}
	if p.Total != "" {
		payload["total"] = p.Total
	}
	return payload
}

// RequestPayload is the minimal data carried by request lifecycle events.
type RequestPayload struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status,omitempty"`
}

// ToMap converts the payload into an outbox-friendly map.
func (p RequestPayload) ToMap() map[string]any {
	payload := map[string]any{"request_id": p.RequestID}
	if p.Status != "" {
		payload["status"] = p.Status
	}
	return payload
}
