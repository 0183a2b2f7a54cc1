package paypal

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/shawnuphold/wishpark/internal/payment/domain"
)

const captureCompleted = `{
	"id": "WH-58D329510W468432D-8HN650336L201105X",
	"event_type": "PAYMENT.CAPTURE.COMPLETED",
	"resource": {
		"id": "42311647XV020574X",
		"custom_id": "1234567890",
		"amount": {"value": "60.00", "currency_code": "usd"}
	}
}`

func sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerify(t *testing.T) {
	adapter := NewAdapter("whsec_test")
	payload := []byte(captureCompleted)

	headers := http.Header{}
	headers.Set(SignatureHeader, sign("whsec_test", payload))
	if err := adapter.Verify(context.Background(), payload, headers); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	headers.Set(SignatureHeader, sign("wrong_secret", payload))
	if err := adapter.Verify(context.Background(), payload, headers); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}

	headers.Del(SignatureHeader)
	if err := adapter.Verify(context.Background(), payload, headers); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("missing header err = %v, want ErrInvalidSignature", err)
	}
}

func TestParseCaptureCompleted(t *testing.T) {
	adapter := NewAdapter("whsec_test")

	event, err := adapter.Parse(context.Background(), []byte(captureCompleted))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if event.InvoiceID != "1234567890" {
		t.Fatalf("invoice id = %s", event.InvoiceID)
	}
	if event.Reference != "42311647XV020574X" {
		t.Fatalf("reference = %s", event.Reference)
	}
	if !event.Amount.Equal(decimal.RequireFromString("60.00")) {
		t.Fatalf("amount = %s", event.Amount)
	}
	if event.Currency != "USD" {
		t.Fatalf("currency = %s", event.Currency)
	}
}

func TestParseIgnoresOtherEvents(t *testing.T) {
	adapter := NewAdapter("whsec_test")

	_, err := adapter.Parse(context.Background(), []byte(`{"id":"WH-1","event_type":"PAYMENT.CAPTURE.DENIED","resource":{"id":"X"}}`))
	if !errors.Is(err, domain.ErrEventIgnored) {
		t.Fatalf("err = %v, want ErrEventIgnored", err)
	}
}

func TestParseRequiresCustomID(t *testing.T) {
	adapter := NewAdapter("whsec_test")

	_, err := adapter.Parse(context.Background(), []byte(`{"id":"WH-1","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"X"}}`))
	if !errors.Is(err, domain.ErrMissingInvoice) {
		t.Fatalf("err = %v, want ErrMissingInvoice", err)
	}
}
