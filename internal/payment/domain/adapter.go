package domain

import (
	"context"
	"net/http"
)

// Adapter verifies and parses one provider's webhook format. Verify must
// reject anything whose signature cannot be proven against the configured
// secret before Parse ever runs.
type Adapter interface {
	Provider() string
	Verify(ctx context.Context, payload []byte, headers http.Header) error
	Parse(ctx context.Context, payload []byte) (*PaymentEvent, error)
}
