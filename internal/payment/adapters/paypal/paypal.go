package paypal

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/shawnuphold/wishpark/internal/payment/domain"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw body, keyed with the
// shared webhook secret configured on both sides.
const SignatureHeader = "Paypal-Transmission-Sig"

// Adapter handles PayPal capture webhooks.
type Adapter struct {
	secret []byte
}

func NewAdapter(webhookSecret string) *Adapter {
	return &Adapter{secret: []byte(strings.TrimSpace(webhookSecret))}
}

func (a *Adapter) Provider() string { return "paypal" }

func (a *Adapter) Verify(_ context.Context, payload []byte, headers http.Header) error {
	if len(a.secret) == 0 {
		return domain.ErrInvalidSignature
	}
	provided, err := hex.DecodeString(strings.TrimSpace(headers.Get(SignatureHeader)))
	if err != nil || len(provided) == 0 {
		return domain.ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, a.secret)
	mac.Write(payload)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return domain.ErrInvalidSignature
	}
	return nil
}

type paypalEvent struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		ID       string `json:"id"`
		CustomID string `json:"custom_id"`
		Amount   struct {
			Value        string `json:"value"`
			CurrencyCode string `json:"currency_code"`
		} `json:"amount"`
	} `json:"resource"`
}

// Parse accepts completed captures; the invoice id travels in custom_id.
func (a *Adapter) Parse(_ context.Context, payload []byte) (*domain.PaymentEvent, error) {
	var event paypalEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if event.EventType != "PAYMENT.CAPTURE.COMPLETED" {
		return nil, domain.ErrEventIgnored
	}
	if event.ID == "" || event.Resource.ID == "" {
		return nil, domain.ErrInvalidEvent
	}
	if event.Resource.CustomID == "" {
		return nil, domain.ErrMissingInvoice
	}

	amount := decimal.Zero
	if raw := strings.TrimSpace(event.Resource.Amount.Value); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, domain.ErrInvalidPayload
		}
		amount = parsed
	}

	return &domain.PaymentEvent{
		Provider:        a.Provider(),
		ProviderEventID: event.ID,
		Type:            event.EventType,
		InvoiceID:       event.Resource.CustomID,
		Amount:          amount,
		Currency:        strings.ToUpper(event.Resource.Amount.CurrencyCode),
		Reference:       event.Resource.ID,
	}, nil
}
