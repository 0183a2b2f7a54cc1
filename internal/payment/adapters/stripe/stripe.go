package stripe

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/shawnuphold/wishpark/internal/payment/domain"
	"github.com/stripe/stripe-go/v74/webhook"
)

// Adapter handles Stripe webhook deliveries. Signature verification uses
// Stripe's signed-payload scheme via the official SDK.
type Adapter struct {
	secret string
}

func NewAdapter(webhookSecret string) *Adapter {
	return &Adapter{secret: strings.TrimSpace(webhookSecret)}
}

func (a *Adapter) Provider() string { return "stripe" }

func (a *Adapter) Verify(_ context.Context, payload []byte, headers http.Header) error {
	if a.secret == "" {
		return domain.ErrInvalidSignature
	}
	if _, err := webhook.ConstructEvent(payload, headers.Get("Stripe-Signature"), a.secret); err != nil {
		return domain.ErrInvalidSignature
	}
	return nil
}

type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID             string            `json:"id"`
			AmountReceived int64             `json:"amount_received"`
			AmountTotal    int64             `json:"amount_total"`
			Currency       string            `json:"currency"`
			Metadata       map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// Parse accepts the settlement event types and ignores everything else.
// Stripe amounts arrive in cents.
func (a *Adapter) Parse(_ context.Context, payload []byte) (*domain.PaymentEvent, error) {
	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, domain.ErrInvalidPayload
	}

	var amount int64
	switch event.Type {
	case "payment_intent.succeeded":
		amount = event.Data.Object.AmountReceived
	case "checkout.session.completed":
		amount = event.Data.Object.AmountTotal
	default:
		return nil, domain.ErrEventIgnored
	}
	if event.ID == "" || event.Data.Object.ID == "" {
		return nil, domain.ErrInvalidEvent
	}

	invoiceID := event.Data.Object.Metadata["invoice_id"]
	if invoiceID == "" {
		return nil, domain.ErrMissingInvoice
	}

	return &domain.PaymentEvent{
		Provider:        a.Provider(),
		ProviderEventID: event.ID,
		Type:            event.Type,
		InvoiceID:       invoiceID,
		Amount:          decimal.NewFromInt(amount).Div(decimal.NewFromInt(100)),
		Currency:        strings.ToUpper(event.Data.Object.Currency),
		Reference:       event.Data.Object.ID,
	}, nil
}
