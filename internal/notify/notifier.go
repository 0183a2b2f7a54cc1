// Package notify delivers customer-facing emails for lifecycle milestones.
package notify

import "context"

// Message is a rendered notification ready for delivery.
type Message struct {
	ToEmail string
	ToName  string
	Subject string
	Body    string
}

// Notifier delivers a message through an external provider.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Noop discards every message; used in development and tests.
type Noop struct{}

func (Noop) Send(context.Context, Message) error { return nil }
