package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/shawnuphold/wishpark/internal/clock"
	"github.com/shawnuphold/wishpark/internal/events"
	invoicedomain "github.com/shawnuphold/wishpark/internal/invoice/domain"
	requestdomain "github.com/shawnuphold/wishpark/internal/request/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func setupService(t *testing.T) (*Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "wishpark.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&requestdomain.Request{},
		&requestdomain.RequestItem{},
		&invoicedomain.Invoice{},
		&invoicedomain.LineItem{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Exec(`CREATE TABLE concierge_events (
		id INTEGER PRIMARY KEY,
		event_type TEXT NOT NULL,
		payload TEXT,
		dedupe_key TEXT UNIQUE,
		published BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMP NOT NULL
	)`).Error; err != nil {
		t.Fatalf("create outbox table: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	svc := NewService(ServiceParam{
		DB:     db,
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  clock.Fixed{At: testNow},
		Outbox: events.NewOutbox(db, node),
	}).(*Service)
	return svc, db, node
}

func mustDec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func assertAmount(t *testing.T, field string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s = %s, want %s", field, got.String(), want)
	}
}

func plushLine(t *testing.T) invoicedomain.LineItemInput {
	t.Helper()
	pickup := mustDec(t, "5.00")
	return invoicedomain.LineItemInput{
		Name:      "Castle Plush",
		Quantity:  5,
		UnitPrice: mustDec(t, "10.00"),
		PickupFee: &pickup,
	}
}

func TestCreateComputesTotals(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	invoice, err := svc.Create(ctx, invoicedomain.CreateInvoiceRequest{
		Items: []invoicedomain.LineItemInput{plushLine(t)},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if invoice.Status != invoicedomain.InvoiceStatusDraft {
		t.Fatalf("status = %s, want draft", invoice.Status)
	}
	if invoice.Number == "" {
		t.Fatal("expected invoice number")
	}
	assertAmount(t, "items_subtotal", invoice.ItemsSubtotal, "50.00")
	assertAmount(t, "tax_amount", invoice.TaxAmount, "3.25")
	assertAmount(t, "pickup_amount", invoice.PickupAmount, "5.00")
	assertAmount(t, "subtotal", invoice.Subtotal, "58.25")
	assertAmount(t, "cc_fee_amount", invoice.CCFeeAmount, "0")
	assertAmount(t, "total", invoice.Total, "58.25")
}

func TestCreateRejectsInvalidLine(t *testing.T) {
	svc, _, _ := setupService(t)

	_, err := svc.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		Items: []invoicedomain.LineItemInput{{
			Name:      "Bad Line",
			Quantity:  1,
			UnitPrice: mustDec(t, "-4.00"),
		}},
	})
	if !errors.Is(err, invoicedomain.ErrInvalidLineItem) {
		t.Fatalf("err = %v, want ErrInvalidLineItem", err)
	}
}

func TestAddLineItemRecomputes(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	invoice, err := svc.Create(ctx, invoicedomain.CreateInvoiceRequest{
		Items: []invoicedomain.LineItemInput{plushLine(t)},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.AddLineItem(ctx, invoice.ID.String(), invoicedomain.LineItemInput{
		Name:      "Trading Pin",
		Quantity:  2,
		UnitPrice: mustDec(t, "12.00"),
	})
	if err != nil {
		t.Fatalf("AddLineItem: %v", err)
	}

	// 50.00 + 24.00 items, 3.25 + 1.56 tax, 5.00 pickup.
	assertAmount(t, "items_subtotal", updated.ItemsSubtotal, "74.00")
	assertAmount(t, "tax_amount", updated.TaxAmount, "4.81")
	assertAmount(t, "total", updated.Total, "83.81")
	if len(updated.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(updated.Items))
	}
}

func TestUpdateLineItemRederivesTax(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	invoice, err := svc.Create(ctx, invoicedomain.CreateInvoiceRequest{
		Items: []invoicedomain.LineItemInput{plushLine(t)},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.UpdateLineItem(ctx, invoice.ID.String(), invoice.Items[0].ID.String(), invoicedomain.LineItemInput{
		Name:      "Castle Plush",
		Quantity:  2,
		UnitPrice: mustDec(t, "79.99"),
	})
	if err != nil {
		t.Fatalf("UpdateLineItem: %v", err)
	}

	// Tax follows the edit: Round2(2 × 79.99 × 0.065) = 10.40.
	assertAmount(t, "tax_amount", updated.TaxAmount, "10.40")
	assertAmount(t, "items_subtotal", updated.ItemsSubtotal, "159.98")
	// The operator did not re-enter a pickup fee, so it resets with the edit.
	assertAmount(t, "pickup_amount", updated.PickupAmount, "0")
	assertAmount(t, "total", updated.Total, "170.38")
}

func TestDeleteLineItemLowersTotal(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	invoice, err := svc.Create(ctx, invoicedomain.CreateInvoiceRequest{
		Items: []invoicedomain.LineItemInput{
			plushLine(t),
			{Name: "Spirit Jersey", Quantity: 1, UnitPrice: mustDec(t, "84.99")},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	before := invoice.Total

	updated, err := svc.DeleteLineItem(ctx, invoice.ID.String(), invoice.Items[1].ID.String())
	if err != nil {
		t.Fatalf("DeleteLineItem: %v", err)
	}
	if !updated.Total.LessThan(before) {
		t.Fatalf("total = %s, want less than %s", updated.Total, before)
	}
	assertAmount(t, "total", updated.Total, "58.25")
	if len(updated.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(updated.Items))
	}
}

func TestDeleteUnknownLineItem(t *testing.T) {
	svc, _, node := setupService(t)
	ctx := context.Background()

	invoice, err := svc.Create(ctx, invoicedomain.CreateInvoiceRequest{
		Items: []invoicedomain.LineItemInput{plushLine(t)},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = svc.DeleteLineItem(ctx, invoice.ID.String(), node.Generate().String())
	if !errors.Is(err, invoicedomain.ErrLineItemNotFound) {
		t.Fatalf("err = %v, want ErrLineItemNotFound", err)
	}
}

func TestFeeSettings(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	invoice, err := svc.Create(ctx, invoicedomain.CreateInvoiceRequest{
		Items: []invoicedomain.LineItemInput{plushLine(t)},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Percentage mode: 3% of 58.25 = 1.7475, rounded at persistence.
	updated, err := svc.UpdateFeeSettings(ctx, invoice.ID.String(), invoicedomain.FeeSettingsRequest{
		CCFeeEnabled: true,
	})
	if err != nil {
		t.Fatalf("UpdateFeeSettings: %v", err)
	}
	assertAmount(t, "cc_fee_amount", updated.CCFeeAmount, "1.75")
	assertAmount(t, "total", updated.Total, "60.00")

	// Manual override beats the percentage.
	manual := mustDec(t, "7.25")
	updated, err = svc.UpdateFeeSettings(ctx, invoice.ID.String(), invoicedomain.FeeSettingsRequest{
		CCFeeEnabled: true,
		CCFeeManual:  &manual,
	})
	if err != nil {
		t.Fatalf("UpdateFeeSettings manual: %v", err)
	}
	assertAmount(t, "cc_fee_amount", updated.CCFeeAmount, "7.25")
	assertAmount(t, "total", updated.Total, "65.50")

	// Disabling zeroes the fee but keeps the manual amount on record.
	updated, err = svc.UpdateFeeSettings(ctx, invoice.ID.String(), invoicedomain.FeeSettingsRequest{
		CCFeeEnabled: false,
	})
	if err != nil {
		t.Fatalf("UpdateFeeSettings disable: %v", err)
	}
	assertAmount(t, "cc_fee_amount", updated.CCFeeAmount, "0")
	assertAmount(t, "total", updated.Total, "58.25")
	if updated.CCFeeManual == nil || !updated.CCFeeManual.Equal(manual) {
		t.Fatal("manual amount should survive a disable")
	}

	// Re-enabling restores the manual override.
	updated, err = svc.UpdateFeeSettings(ctx, invoice.ID.String(), invoicedomain.FeeSettingsRequest{
		CCFeeEnabled: true,
	})
	if err != nil {
		t.Fatalf("UpdateFeeSettings re-enable: %v", err)
	}
	assertAmount(t, "cc_fee_amount", updated.CCFeeAmount, "7.25")

	// Clearing drops back to the percentage.
	updated, err = svc.UpdateFeeSettings(ctx, invoice.ID.String(), invoicedomain.FeeSettingsRequest{
		CCFeeEnabled: true,
		ClearManual:  true,
	})
	if err != nil {
		t.Fatalf("UpdateFeeSettings clear: %v", err)
	}
	assertAmount(t, "cc_fee_amount", updated.CCFeeAmount, "1.75")
}

func TestFeeSettingsRejectNegative(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	invoice, err := svc.Create(ctx, invoicedomain.CreateInvoiceRequest{
		Items: []invoicedomain.LineItemInput{plushLine(t)},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	negative := mustDec(t, "-1.00")
	_, err = svc.UpdateFeeSettings(ctx, invoice.ID.String(), invoicedomain.FeeSettingsRequest{
		CCFeeEnabled: true,
		CCFeeManual:  &negative,
	})
	if !errors.Is(err, invoicedomain.ErrInvalidFeeSettings) {
		t.Fatalf("err = %v, want ErrInvalidFeeSettings", err)
	}
}

func TestMutationsRejectedAfterSend(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	invoice, err := svc.Create(ctx, invoicedomain.CreateInvoiceRequest{
		Items: []invoicedomain.LineItemInput{plushLine(t)},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Send(ctx, invoice.ID.String()); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if _, err := svc.AddLineItem(ctx, invoice.ID.String(), plushLine(t)); !errors.Is(err, invoicedomain.ErrNotDraft) {
		t.Fatalf("AddLineItem err = %v, want ErrNotDraft", err)
	}
	if _, err := svc.DeleteLineItem(ctx, invoice.ID.String(), invoice.Items[0].ID.String()); !errors.Is(err, invoicedomain.ErrNotDraft) {
		t.Fatalf("DeleteLineItem err = %v, want ErrNotDraft", err)
	}
	if _, err := svc.UpdateFeeSettings(ctx, invoice.ID.String(), invoicedomain.FeeSettingsRequest{CCFeeEnabled: true}); !errors.Is(err, invoicedomain.ErrNotDraft) {
		t.Fatalf("UpdateFeeSettings err = %v, want ErrNotDraft", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	invoice, err := svc.Create(ctx, invoicedomain.CreateInvoiceRequest{
		Items: []invoicedomain.LineItemInput{plushLine(t)},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// A draft cannot be paid or refunded directly.
	if _, err := svc.RecordPayment(ctx, invoice.ID.String(), invoicedomain.RecordPaymentRequest{Method: invoicedomain.PaymentMethodManual}); !errors.Is(err, invoicedomain.ErrInvalidTransition) {
		t.Fatalf("RecordPayment on draft err = %v, want ErrInvalidTransition", err)
	}
	if _, err := svc.Refund(ctx, invoice.ID.String(), ""); !errors.Is(err, invoicedomain.ErrInvalidTransition) {
		t.Fatalf("Refund on draft err = %v, want ErrInvalidTransition", err)
	}

	sent, err := svc.Send(ctx, invoice.ID.String())
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sent.Status != invoicedomain.InvoiceStatusSent {
		t.Fatalf("status = %s, want sent", sent.Status)
	}
	if sent.SentAt == nil || !sent.SentAt.Equal(testNow) {
		t.Fatalf("sent_at = %v, want %v", sent.SentAt, testNow)
	}

	paid, err := svc.RecordPayment(ctx, invoice.ID.String(), invoicedomain.RecordPaymentRequest{
		Method:    invoicedomain.PaymentMethodStripe,
		Reference: "pi_123",
	})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if paid.Status != invoicedomain.InvoiceStatusPaid {
		t.Fatalf("status = %s, want paid", paid.Status)
	}
	if paid.PaymentMethod == nil || *paid.PaymentMethod != invoicedomain.PaymentMethodStripe {
		t.Fatalf("payment_method = %v, want stripe", paid.PaymentMethod)
	}

	// Paid invoices cannot be cancelled, only refunded.
	if _, err := svc.Cancel(ctx, invoice.ID.String(), "changed my mind"); !errors.Is(err, invoicedomain.ErrInvalidTransition) {
		t.Fatalf("Cancel on paid err = %v, want ErrInvalidTransition", err)
	}
	refunded, err := svc.Refund(ctx, invoice.ID.String(), "park closure")
	if err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if refunded.Status != invoicedomain.InvoiceStatusRefunded {
		t.Fatalf("status = %s, want refunded", refunded.Status)
	}
}

func TestRecordPaymentRejectsUnknownMethod(t *testing.T) {
	svc, _, _ := setupService(t)

	_, err := svc.RecordPayment(context.Background(), "123", invoicedomain.RecordPaymentRequest{Method: "venmo"})
	if !errors.Is(err, invoicedomain.ErrInvalidPaymentMethod) {
		t.Fatalf("err = %v, want ErrInvalidPaymentMethod", err)
	}
}

func seedRequest(t *testing.T, db *gorm.DB, node *snowflake.Node, status requestdomain.RequestStatus, items []requestdomain.RequestItem) *requestdomain.Request {
	t.Helper()
	request := &requestdomain.Request{
		ID:            node.Generate(),
		CustomerName:  "Alex Rivera",
		CustomerEmail: "alex@example.com",
		Park:          "magic_kingdom",
		Status:        status,
		CreatedAt:     testNow,
		UpdatedAt:     testNow,
	}
	for i := range items {
		items[i].ID = node.Generate()
		items[i].RequestID = request.ID
		items[i].CreatedAt = testNow
		items[i].UpdatedAt = testNow
	}
	request.Items = items
	if err := db.Create(request).Error; err != nil {
		t.Fatalf("seed request: %v", err)
	}
	return request
}

func TestCreateFromRequest(t *testing.T) {
	svc, db, node := setupService(t)
	ctx := context.Background()

	found := mustDec(t, "24.99")
	request := seedRequest(t, db, node, requestdomain.RequestStatusFound, []requestdomain.RequestItem{
		{Name: "Castle Plush", Category: "plush", Quantity: 1, BudgetPrice: mustDec(t, "29.99"), FoundPrice: &found, Status: requestdomain.ItemStatusFound},
		{Name: "Rare Pin", Category: "pins", Quantity: 1, BudgetPrice: mustDec(t, "18.00"), Status: requestdomain.ItemStatusNotFound},
		{Name: "Alt Spirit Jersey", Category: "apparel", Quantity: 1, BudgetPrice: mustDec(t, "84.99"), Status: requestdomain.ItemStatusSubstituted},
	})

	invoice, err := svc.CreateFromRequest(ctx, request.ID.String())
	if err != nil {
		t.Fatalf("CreateFromRequest: %v", err)
	}

	// not_found items never bill.
	if len(invoice.Items) != 2 {
		t.Fatalf("line items = %d, want 2", len(invoice.Items))
	}
	// Found price wins over budget; budget is the fallback.
	assertAmount(t, "plush unit price", invoice.Items[0].UnitPrice, "24.99")
	assertAmount(t, "jersey unit price", invoice.Items[1].UnitPrice, "84.99")
	// Category pickup fees: plush 5.00 + apparel 5.00.
	assertAmount(t, "pickup_amount", invoice.PickupAmount, "10.00")

	var stored requestdomain.Request
	if err := db.First(&stored, "id = ?", request.ID).Error; err != nil {
		t.Fatalf("reload request: %v", err)
	}
	if stored.Status != requestdomain.RequestStatusInvoiced {
		t.Fatalf("request status = %s, want invoiced", stored.Status)
	}
	if stored.InvoiceID == nil || *stored.InvoiceID != invoice.ID {
		t.Fatal("request should reference the generated invoice")
	}
}

func TestCreateFromRequestRequiresBillableItems(t *testing.T) {
	svc, db, node := setupService(t)

	request := seedRequest(t, db, node, requestdomain.RequestStatusFound, []requestdomain.RequestItem{
		{Name: "Rare Pin", Category: "pins", Quantity: 1, BudgetPrice: mustDec(t, "18.00"), Status: requestdomain.ItemStatusNotFound},
	})

	_, err := svc.CreateFromRequest(context.Background(), request.ID.String())
	if !errors.Is(err, invoicedomain.ErrNoBillableItems) {
		t.Fatalf("err = %v, want ErrNoBillableItems", err)
	}
}

func TestCreateFromRequestRejectsEarlyStatus(t *testing.T) {
	svc, db, node := setupService(t)

	request := seedRequest(t, db, node, requestdomain.RequestStatusPending, []requestdomain.RequestItem{
		{Name: "Castle Plush", Category: "plush", Quantity: 1, BudgetPrice: mustDec(t, "29.99"), Status: requestdomain.ItemStatusFound},
	})

	_, err := svc.CreateFromRequest(context.Background(), request.ID.String())
	if !errors.Is(err, invoicedomain.ErrRequestNotBillable) {
		t.Fatalf("err = %v, want ErrRequestNotBillable", err)
	}
}

func TestRecordPaymentCascadesToRequest(t *testing.T) {
	svc, db, node := setupService(t)
	ctx := context.Background()

	request := seedRequest(t, db, node, requestdomain.RequestStatusFound, []requestdomain.RequestItem{
		{Name: "Castle Plush", Category: "plush", Quantity: 1, BudgetPrice: mustDec(t, "29.99"), Status: requestdomain.ItemStatusFound},
	})

	invoice, err := svc.CreateFromRequest(ctx, request.ID.String())
	if err != nil {
		t.Fatalf("CreateFromRequest: %v", err)
	}
	if _, err := svc.Send(ctx, invoice.ID.String()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := svc.RecordPayment(ctx, invoice.ID.String(), invoicedomain.RecordPaymentRequest{
		Method: invoicedomain.PaymentMethodPaypal,
	}); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	var stored requestdomain.Request
	if err := db.First(&stored, "id = ?", request.ID).Error; err != nil {
		t.Fatalf("reload request: %v", err)
	}
	if stored.Status != requestdomain.RequestStatusPaid {
		t.Fatalf("request status = %s, want paid", stored.Status)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, invoicedomain.CreateInvoiceRequest{Items: []invoicedomain.LineItemInput{plushLine(t)}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, invoicedomain.CreateInvoiceRequest{Items: []invoicedomain.LineItemInput{plushLine(t)}}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Send(ctx, first.ID.String()); err != nil {
		t.Fatalf("Send: %v", err)
	}

	resp, err := svc.List(ctx, invoicedomain.ListInvoiceRequest{Status: invoicedomain.InvoiceStatusSent})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(resp.Invoices) != 1 {
		t.Fatalf("invoices = %d, want 1", len(resp.Invoices))
	}
	if resp.Invoices[0].ID != first.ID {
		t.Fatal("expected the sent invoice")
	}
}
