package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/shawnuphold/wishpark/internal/clock"
	"github.com/shawnuphold/wishpark/internal/events"
	invoicedomain "github.com/shawnuphold/wishpark/internal/invoice/domain"
	"github.com/shawnuphold/wishpark/internal/money"
	"github.com/shawnuphold/wishpark/internal/notify"
	requestdomain "github.com/shawnuphold/wishpark/internal/request/domain"
	"github.com/shawnuphold/wishpark/pkg/db/pagination"
	"github.com/shawnuphold/wishpark/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Outbox   *events.Outbox
	Notifier notify.Notifier `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	clock    clock.Clock
	outbox   *events.Outbox
	notifier notify.Notifier
	repo     repository.Repository[invoicedomain.Invoice]
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("invoice.service"),

		genID:    p.GenID,
		clock:    p.Clock,
		outbox:   p.Outbox,
		notifier: p.Notifier,
		repo:     repository.ProvideStore[invoicedomain.Invoice](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (*invoicedomain.Invoice, error) {
	now := s.clock.Now()
	invoice := &invoicedomain.Invoice{
		ID:              s.genID.Generate(),
		Status:          invoicedomain.InvoiceStatusDraft,
		CCFeePercentage: money.DefaultCCFeePercent,
		DueDate:         req.DueDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	invoice.Number = invoiceNumber(invoice.ID)
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		invoice.Notes = &notes
	}

	for i, input := range req.Items {
		item, err := s.buildLineItem(invoice.ID, input, i, now)
		if err != nil {
			return nil, err
		}
		invoice.Items = append(invoice.Items, *item)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(invoice).Error; err != nil {
			return err
		}
		if err := recomputeTotalsTx(ctx, tx, invoice, now); err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type:      events.EventInvoiceCreated,
			Payload:   events.InvoicePayload{InvoiceID: invoice.ID.String(), Total: invoice.Total.StringFixed(2)}.ToMap(),
			DedupeKey: "invoice.created:" + invoice.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("number", invoice.Number),
	)
	return invoice, nil
}

// CreateFromRequest builds a draft invoice from a request whose shopping
// trip is complete. Only found and substituted items become line items; the
// request moves to invoiced and keeps a back-reference to the invoice.
func (s *Service) CreateFromRequest(ctx context.Context, requestID string) (*invoicedomain.Invoice, error) {
	reqID, err := parseID(requestID)
	if err != nil {
		return nil, invoicedomain.ErrInvalidID
	}

	now := s.clock.Now()
	var invoice *invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request requestdomain.Request
		if err := tx.Preload("Items").First(&request, "id = ?", reqID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return requestdomain.ErrNotFound
			}
			return err
		}
		if !request.Status.CanTransition(requestdomain.RequestStatusInvoiced) {
			return invoicedomain.ErrRequestNotBillable
		}

		billable := make([]requestdomain.RequestItem, 0, len(request.Items))
		for _, item := range request.Items {
			if item.Status.Billable() {
				billable = append(billable, item)
			}
		}
		if len(billable) == 0 {
			return invoicedomain.ErrNoBillableItems
		}

		invoice = &invoicedomain.Invoice{
			ID:              s.genID.Generate(),
			RequestID:       &request.ID,
			Status:          invoicedomain.InvoiceStatusDraft,
			CCFeePercentage: money.DefaultCCFeePercent,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		invoice.Number = invoiceNumber(invoice.ID)

		for i, item := range billable {
			unitPrice := item.BudgetPrice
			if item.FoundPrice != nil {
				unitPrice = *item.FoundPrice
			}
			invoice.Items = append(invoice.Items, invoicedomain.LineItem{
				ID:        s.genID.Generate(),
				InvoiceID: invoice.ID,
				Name:      item.Name,
				Quantity:  item.Quantity,
				UnitPrice: unitPrice,
				TaxAmount: money.AutoTax(item.Quantity, unitPrice),
				PickupFee: money.PickupFee(item.Category, unitPrice),
				Position:  i,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}

		if err := tx.Create(invoice).Error; err != nil {
			return err
		}
		if err := recomputeTotalsTx(ctx, tx, invoice, now); err != nil {
			return err
		}

		result := tx.Model(&requestdomain.Request{}).
			Where("id = ? AND status = ?", request.ID, request.Status).
			Updates(map[string]any{
				"status":     requestdomain.RequestStatusInvoiced,
				"invoice_id": invoice.ID,
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return invoicedomain.ErrRequestNotBillable
		}

		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventInvoiceCreated,
			Payload: events.InvoicePayload{
				InvoiceID: invoice.ID.String(),
				RequestID: request.ID.String(),
				Total:     invoice.Total.StringFixed(2),
			}.ToMap(),
			DedupeKey: "invoice.created:" + invoice.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("invoice generated from request",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("request_id", requestID),
		zap.Int("line_items", len(invoice.Items)),
	)
	return invoice, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*invoicedomain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return nil, invoicedomain.ErrInvalidID
	}
	record, err := s.repo.FindOne(ctx, map[string]any{"id": invoiceID}, repository.WithPreload("Items"))
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, invoicedomain.ErrNotFound
	}
	return record, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	page := req.Pagination.Normalize()

	filter := map[string]any{}
	if req.Status != "" {
		if !req.Status.Valid() {
			return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidTransition
		}
		filter["status"] = req.Status
	}

	tx := s.db.WithContext(ctx).Where(filter)
	if after := pagination.DecodeToken(page.PageToken); after > 0 {
		tx = tx.Where("id > ?", after)
	}

	var rows []invoicedomain.Invoice
	if err := tx.Order("id ASC").Limit(page.PageSize).Find(&rows).Error; err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	resp := invoicedomain.ListInvoiceResponse{Invoices: rows}
	if len(rows) == page.PageSize {
		resp.NextPageToken = pagination.EncodeToken(int64(rows[len(rows)-1].ID))
	}
	return resp, nil
}

func (s *Service) AddLineItem(ctx context.Context, invoiceID string, input invoicedomain.LineItemInput) (*invoicedomain.Invoice, error) {
	return s.mutateDraft(ctx, invoiceID, func(tx *gorm.DB, invoice *invoicedomain.Invoice) error {
		var count int64
		if err := tx.Model(&invoicedomain.LineItem{}).Where("invoice_id = ?", invoice.ID).Count(&count).Error; err != nil {
			return err
		}
		item, err := s.buildLineItem(invoice.ID, input, int(count), s.clock.Now())
		if err != nil {
			return err
		}
		return tx.Create(item).Error
	})
}

func (s *Service) UpdateLineItem(ctx context.Context, invoiceID, itemID string, input invoicedomain.LineItemInput) (*invoicedomain.Invoice, error) {
	lineID, err := parseID(itemID)
	if err != nil {
		return nil, invoicedomain.ErrLineItemNotFound
	}
	return s.mutateDraft(ctx, invoiceID, func(tx *gorm.DB, invoice *invoicedomain.Invoice) error {
		updated, err := s.buildLineItem(invoice.ID, input, 0, s.clock.Now())
		if err != nil {
			return err
		}

		updates := map[string]any{
			"name":       updated.Name,
			"quantity":   updated.Quantity,
			"unit_price": updated.UnitPrice,
			// Tax is a derived field: it follows every quantity or price
			// edit rather than staying pinned to its original value.
			"tax_amount":        updated.TaxAmount,
			"pickup_fee":        updated.PickupFee,
			"shipping_fee":      updated.ShippingFee,
			"custom_fee_label":  updated.CustomFeeLabel,
			"custom_fee_amount": updated.CustomFeeAmount,
			"updated_at":        updated.UpdatedAt,
		}
		result := tx.Model(&invoicedomain.LineItem{}).
			Where("id = ? AND invoice_id = ?", lineID, invoice.ID).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return invoicedomain.ErrLineItemNotFound
		}
		return nil
	})
}

func (s *Service) DeleteLineItem(ctx context.Context, invoiceID, itemID string) (*invoicedomain.Invoice, error) {
	lineID, err := parseID(itemID)
	if err != nil {
		return nil, invoicedomain.ErrLineItemNotFound
	}
	return s.mutateDraft(ctx, invoiceID, func(tx *gorm.DB, invoice *invoicedomain.Invoice) error {
		result := tx.Where("id = ? AND invoice_id = ?", lineID, invoice.ID).Delete(&invoicedomain.LineItem{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return invoicedomain.ErrLineItemNotFound
		}
		return nil
	})
}

func (s *Service) UpdateFeeSettings(ctx context.Context, invoiceID string, req invoicedomain.FeeSettingsRequest) (*invoicedomain.Invoice, error) {
	if req.CCFeePercentage != nil && req.CCFeePercentage.IsNegative() {
		return nil, invoicedomain.ErrInvalidFeeSettings
	}
	if req.CCFeeManual != nil && req.CCFeeManual.IsNegative() {
		return nil, invoicedomain.ErrInvalidFeeSettings
	}

	return s.mutateDraft(ctx, invoiceID, func(tx *gorm.DB, invoice *invoicedomain.Invoice) error {
		invoice.CCFeeEnabled = req.CCFeeEnabled
		if req.CCFeePercentage != nil {
			invoice.CCFeePercentage = *req.CCFeePercentage
		}
		// Manual amounts are kept when the toggle is switched off so that
		// re-enabling restores the prior settings; they only clear on an
		// explicit request.
		if req.ClearManual {
			invoice.CCFeeManual = nil
		} else if req.CCFeeManual != nil {
			invoice.CCFeeManual = req.CCFeeManual
		}

		return tx.Model(&invoicedomain.Invoice{}).
			Where("id = ?", invoice.ID).
			Updates(map[string]any{
				"cc_fee_enabled":    invoice.CCFeeEnabled,
				"cc_fee_percentage": invoice.CCFeePercentage,
				"cc_fee_manual":     invoice.CCFeeManual,
				"updated_at":        s.clock.Now(),
			}).Error
	})
}

func (s *Service) Send(ctx context.Context, invoiceID string) (*invoicedomain.Invoice, error) {
	now := s.clock.Now()
	invoice, err := s.transition(ctx, invoiceID, invoicedomain.InvoiceStatusSent, map[string]any{
		"sent_at": now,
	}, events.EventInvoiceSent, nil)
	if err != nil {
		return nil, err
	}
	s.notifyCustomer(ctx, invoice,
		fmt.Sprintf("Invoice %s from Wishpark Concierge", invoice.Number),
		fmt.Sprintf("Your invoice %s for %s is ready.", invoice.Number, invoice.Total.StringFixed(2)),
	)
	return invoice, nil
}

func (s *Service) RecordPayment(ctx context.Context, invoiceID string, req invoicedomain.RecordPaymentRequest) (*invoicedomain.Invoice, error) {
	if !req.Method.Valid() {
		return nil, invoicedomain.ErrInvalidPaymentMethod
	}

	now := s.clock.Now()
	extra := map[string]any{
		"paid_at":        now,
		"payment_method": req.Method,
	}
	if ref := strings.TrimSpace(req.Reference); ref != "" {
		extra["payment_reference"] = ref
	}

	invoice, err := s.transition(ctx, invoiceID, invoicedomain.InvoiceStatusPaid, extra, events.EventInvoicePaid,
		func(tx *gorm.DB, invoice *invoicedomain.Invoice) error {
			// Payment cascades to the originating request.
			if invoice.RequestID == nil {
				return nil
			}
			return tx.Model(&requestdomain.Request{}).
				Where("id = ? AND status = ?", *invoice.RequestID, requestdomain.RequestStatusInvoiced).
				Updates(map[string]any{
					"status":     requestdomain.RequestStatusPaid,
					"updated_at": now,
				}).Error
		})
	if err != nil {
		return nil, err
	}
	s.notifyCustomer(ctx, invoice,
		fmt.Sprintf("Payment received for invoice %s", invoice.Number),
		fmt.Sprintf("We received your payment of %s. Your order is headed to shipping.", invoice.Total.StringFixed(2)),
	)
	return invoice, nil
}

func (s *Service) Cancel(ctx context.Context, invoiceID string, reason string) (*invoicedomain.Invoice, error) {
	extra := map[string]any{}
	if reason = strings.TrimSpace(reason); reason != "" {
		extra["notes"] = reason
	}
	return s.transition(ctx, invoiceID, invoicedomain.InvoiceStatusCancelled, extra, events.EventInvoiceCancelled, nil)
}

func (s *Service) Refund(ctx context.Context, invoiceID string, reason string) (*invoicedomain.Invoice, error) {
	extra := map[string]any{}
	if reason = strings.TrimSpace(reason); reason != "" {
		extra["notes"] = reason
	}
	return s.transition(ctx, invoiceID, invoicedomain.InvoiceStatusRefunded, extra, events.EventInvoiceRefunded, nil)
}

// mutateDraft runs a line-item or fee mutation plus the totals recompute in
// one transaction, rejecting mutations once the invoice has left draft.
func (s *Service) mutateDraft(ctx context.Context, invoiceID string, mutate func(tx *gorm.DB, invoice *invoicedomain.Invoice) error) (*invoicedomain.Invoice, error) {
	id, err := parseID(invoiceID)
	if err != nil {
		return nil, invoicedomain.ErrInvalidID
	}

	now := s.clock.Now()
	var invoice invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&invoice, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return invoicedomain.ErrNotFound
			}
			return err
		}
		if !invoice.Status.Editable() {
			return invoicedomain.ErrNotDraft
		}
		if err := mutate(tx, &invoice); err != nil {
			return err
		}
		return recomputeTotalsTx(ctx, tx, &invoice, now)
	})
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (s *Service) transition(ctx context.Context, invoiceID string, next invoicedomain.InvoiceStatus, extra map[string]any, eventType string, cascade func(tx *gorm.DB, invoice *invoicedomain.Invoice) error) (*invoicedomain.Invoice, error) {
	id, err := parseID(invoiceID)
	if err != nil {
		return nil, invoicedomain.ErrInvalidID
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invoice invoicedomain.Invoice
		if err := tx.First(&invoice, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return invoicedomain.ErrNotFound
			}
			return err
		}
		if !invoice.Status.CanTransition(next) {
			return invoicedomain.ErrInvalidTransition
		}

		updates := map[string]any{
			"status":     next,
			"updated_at": now,
		}
		for key, value := range extra {
			updates[key] = value
		}

		result := tx.Model(&invoicedomain.Invoice{}).
			Where("id = ? AND status = ?", invoice.ID, invoice.Status).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return invoicedomain.ErrInvalidTransition
		}

		if cascade != nil {
			if err := cascade(tx, &invoice); err != nil {
				return err
			}
		}

		payload := events.InvoicePayload{InvoiceID: invoice.ID.String()}
		if invoice.RequestID != nil {
			payload.RequestID = invoice.RequestID.String()
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type:      eventType,
			Payload:   payload.ToMap(),
			DedupeKey: eventType + ":" + invoice.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("invoice transitioned",
		zap.String("invoice_id", invoiceID),
		zap.String("status", string(next)),
	)
	return s.GetByID(ctx, invoiceID)
}

// buildLineItem validates operator input and derives the stored tax. The
// pickup fee falls back to zero unless explicitly provided; category-based
// fallback only applies when generating lines from a request, where the
// item category is known.
func (s *Service) buildLineItem(invoiceID snowflake.ID, input invoicedomain.LineItemInput, position int, now time.Time) (*invoicedomain.LineItem, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || input.Quantity <= 0 {
		return nil, invoicedomain.ErrInvalidLineItem
	}

	pickup := decimal.Zero
	if input.PickupFee != nil {
		pickup = *input.PickupFee
	}

	item := &invoicedomain.LineItem{
		ID:              s.genID.Generate(),
		InvoiceID:       invoiceID,
		Name:            name,
		Quantity:        input.Quantity,
		UnitPrice:       input.UnitPrice,
		TaxAmount:       money.AutoTax(input.Quantity, input.UnitPrice),
		PickupFee:       pickup,
		ShippingFee:     input.ShippingFee,
		CustomFeeAmount: input.CustomFeeAmount,
		Position:        position,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if label := strings.TrimSpace(input.CustomFeeLabel); label != "" {
		item.CustomFeeLabel = &label
	}

	charge := money.LineCharge{
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		TaxAmount:   item.TaxAmount,
		PickupFee:   item.PickupFee,
		ShippingFee: item.ShippingFee,
		CustomFee:   item.CustomFeeAmount,
	}
	if err := charge.Validate(); err != nil {
		return nil, invoicedomain.ErrInvalidLineItem
	}
	return item, nil
}

func (s *Service) notifyCustomer(ctx context.Context, invoice *invoicedomain.Invoice, subject, body string) {
	if s.notifier == nil || invoice.RequestID == nil {
		return
	}
	var request requestdomain.Request
	if err := s.db.WithContext(ctx).First(&request, "id = ?", *invoice.RequestID).Error; err != nil {
		s.log.Warn("notification skipped, request lookup failed", zap.Error(err))
		return
	}
	if err := s.notifier.Send(ctx, notify.Message{
		ToEmail: request.CustomerEmail,
		ToName:  request.CustomerName,
		Subject: subject,
		Body:    body,
	}); err != nil {
		s.log.Warn("notification delivery failed",
			zap.String("invoice_id", invoice.ID.String()),
			zap.Error(err),
		)
	}
}

func invoiceNumber(id snowflake.ID) string {
	return "INV-" + strings.ToUpper(strconv.FormatInt(int64(id), 36))
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
