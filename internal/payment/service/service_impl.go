package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shawnuphold/wishpark/internal/clock"
	invoicedomain "github.com/shawnuphold/wishpark/internal/invoice/domain"
	"github.com/shawnuphold/wishpark/internal/payment/adapters"
	paymentdomain "github.com/shawnuphold/wishpark/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     paymentdomain.Repository
	Adapters *adapters.Registry
	Invoices invoicedomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     paymentdomain.Repository
	adapters *adapters.Registry
	invoices invoicedomain.Service
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("payment.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		adapters: p.Adapters,
		invoices: p.Invoices,
	}
}

// IngestWebhook verifies, stores, and settles one provider webhook. Provider
// retries are absorbed by the unique event index: a delivery that was already
// processed returns ErrEventAlreadyProcessed without touching the invoice.
func (s *Service) IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return paymentdomain.ErrInvalidProvider
	}
	adapter, ok := s.adapters.Get(provider)
	if !ok {
		return paymentdomain.ErrProviderNotFound
	}
	if !json.Valid(payload) {
		return paymentdomain.ErrInvalidPayload
	}

	if err := adapter.Verify(ctx, payload, headers); err != nil {
		return err
	}
	event, err := adapter.Parse(ctx, payload)
	if err != nil {
		if errors.Is(err, paymentdomain.ErrEventIgnored) {
			s.log.Debug("payment webhook ignored", zap.String("provider", provider))
			return nil
		}
		return err
	}

	now := s.clock.Now()
	record := &paymentdomain.EventRecord{
		ID:              s.genID.Generate(),
		Provider:        provider,
		ProviderEventID: event.ProviderEventID,
		EventType:       event.Type,
		Payload:         datatypes.JSON(payload),
		ReceivedAt:      now,
	}
	if invoiceID, err := snowflake.ParseString(event.InvoiceID); err == nil {
		record.InvoiceID = &invoiceID
	}

	inserted, err := s.repo.InsertEvent(ctx, s.db, record)
	if err != nil {
		return err
	}
	if !inserted {
		stored, err := s.repo.FindEvent(ctx, s.db, provider, event.ProviderEventID)
		if err != nil {
			return err
		}
		if stored == nil {
			return paymentdomain.ErrInvalidEvent
		}
		if stored.ProcessedAt != nil {
			return paymentdomain.ErrEventAlreadyProcessed
		}
		record = stored
	}

	if err := s.settle(ctx, provider, event); err != nil {
		return err
	}

	if err := s.repo.MarkProcessed(ctx, s.db, record.ID, now); err != nil {
		return err
	}

	s.log.Info("payment webhook processed",
		zap.String("provider", provider),
		zap.String("provider_event_id", event.ProviderEventID),
		zap.String("invoice_id", event.InvoiceID),
	)
	return nil
}

// settle marks the referenced invoice paid. An invoice that already left the
// sent state is logged and skipped rather than retried forever.
func (s *Service) settle(ctx context.Context, provider string, event *paymentdomain.PaymentEvent) error {
	method := invoicedomain.PaymentMethodStripe
	if provider == "paypal" {
		method = invoicedomain.PaymentMethodPaypal
	}

	_, err := s.invoices.RecordPayment(ctx, event.InvoiceID, invoicedomain.RecordPaymentRequest{
		Method:    method,
		Reference: event.Reference,
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, invoicedomain.ErrInvalidTransition) {
		s.log.Warn("payment received for non-payable invoice",
			zap.String("provider", provider),
			zap.String("invoice_id", event.InvoiceID),
			zap.String("amount", event.Amount.StringFixed(2)),
		)
		return nil
	}
	return err
}
