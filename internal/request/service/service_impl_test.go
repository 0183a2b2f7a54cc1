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
	requestdomain "github.com/shawnuphold/wishpark/internal/request/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func setupService(t *testing.T) (*Service, *gorm.DB) {
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
	return svc, db
}

func plushRequest() requestdomain.CreateRequest {
	return requestdomain.CreateRequest{
		CustomerName:  "  Dana Ruiz ",
		CustomerEmail: "Dana@Example.COM",
		Park:          "Magic Kingdom",
		Items: []requestdomain.CreateRequestItem{
			{Name: "Figment Plush", Category: "Plush", Quantity: 2, BudgetPrice: decimal.RequireFromString("34.99")},
			{Name: "Spirit Jersey", Category: "apparel", Quantity: 1, BudgetPrice: decimal.RequireFromString("79.99")},
		},
	}
}

func TestCreateNormalizesCustomerFields(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, plushRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.CustomerName != "Dana Ruiz" {
		t.Fatalf("CustomerName = %q", created.CustomerName)
	}
	if created.CustomerEmail != "dana@example.com" {
		t.Fatalf("CustomerEmail = %q", created.CustomerEmail)
	}
	if created.Status != requestdomain.RequestStatusPending {
		t.Fatalf("Status = %s, want pending", created.Status)
	}
	if len(created.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(created.Items))
	}
	if created.Items[0].Category != "plush" {
		t.Fatalf("Category = %q, want plush", created.Items[0].Category)
	}
	for _, item := range created.Items {
		if item.Status != requestdomain.ItemStatusPending {
			t.Fatalf("item %s status = %s, want pending", item.Name, item.Status)
		}
	}

	var eventCount int64
	if err := db.Table("concierge_events").
		Where("event_type = ?", events.EventRequestCreated).
		Count(&eventCount).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if eventCount != 1 {
		t.Fatalf("request.created events = %d, want 1", eventCount)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		mutate  func(*requestdomain.CreateRequest)
		wantErr error
	}{
		{"blank name", func(r *requestdomain.CreateRequest) { r.CustomerName = "  " }, requestdomain.ErrInvalidCustomerName},
		{"bad email", func(r *requestdomain.CreateRequest) { r.CustomerEmail = "not-an-email" }, requestdomain.ErrInvalidCustomerEmail},
		{"no items", func(r *requestdomain.CreateRequest) { r.Items = nil }, requestdomain.ErrNoItems},
		{"zero quantity", func(r *requestdomain.CreateRequest) { r.Items[0].Quantity = 0 }, requestdomain.ErrInvalidItem},
		{"negative budget", func(r *requestdomain.CreateRequest) {
			r.Items[0].BudgetPrice = decimal.RequireFromString("-1")
		}, requestdomain.ErrInvalidItem},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := plushRequest()
			tc.mutate(&req)
			if _, err := svc.Create(ctx, req); !errors.Is(err, tc.wantErr) {
				t.Fatalf("Create err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestLifecycleWalk(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, plushRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := created.ID.String()
	tripID := snowflake.ID(987654).String()

	if _, err := svc.StartShopping(ctx, id); !errors.Is(err, requestdomain.ErrInvalidTransition) {
		t.Fatalf("StartShopping from pending err = %v, want invalid transition", err)
	}

	record, err := svc.Quote(ctx, id)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if record.Status != requestdomain.RequestStatusQuoted {
		t.Fatalf("Status = %s, want quoted", record.Status)
	}

	if record, err = svc.Approve(ctx, id); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if record.ApprovedAt == nil || !record.ApprovedAt.Equal(testNow) {
		t.Fatalf("ApprovedAt = %v, want %v", record.ApprovedAt, testNow)
	}

	if record, err = svc.AssignTrip(ctx, id, tripID); err != nil {
		t.Fatalf("AssignTrip: %v", err)
	}
	if record.Status != requestdomain.RequestStatusScheduled || record.TripID == nil {
		t.Fatalf("after AssignTrip: status=%s trip=%v", record.Status, record.TripID)
	}

	// Unassigning moves the request back to approved and clears the trip.
	if record, err = svc.UnassignTrip(ctx, id); err != nil {
		t.Fatalf("UnassignTrip: %v", err)
	}
	if record.Status != requestdomain.RequestStatusApproved || record.TripID != nil {
		t.Fatalf("after UnassignTrip: status=%s trip=%v", record.Status, record.TripID)
	}

	if _, err = svc.AssignTrip(ctx, id, tripID); err != nil {
		t.Fatalf("AssignTrip again: %v", err)
	}
	if record, err = svc.StartShopping(ctx, id); err != nil {
		t.Fatalf("StartShopping: %v", err)
	}
	if record.Status != requestdomain.RequestStatusShopping {
		t.Fatalf("Status = %s, want shopping", record.Status)
	}

	found := decimal.RequireFromString("32.50")
	record, err = svc.UpdateItemStatus(ctx, id, requestdomain.UpdateItemStatusRequest{
		ItemID:     record.Items[0].ID.String(),
		Status:     requestdomain.ItemStatusFound,
		FoundPrice: &found,
	})
	if err != nil {
		t.Fatalf("UpdateItemStatus: %v", err)
	}
	if record.Items[0].Status != requestdomain.ItemStatusFound {
		t.Fatalf("item status = %s, want found", record.Items[0].Status)
	}
	if record.Items[0].FoundPrice == nil || !record.Items[0].FoundPrice.Equal(found) {
		t.Fatalf("found price = %v, want 32.50", record.Items[0].FoundPrice)
	}

	if record, err = svc.CompleteShopping(ctx, id); err != nil {
		t.Fatalf("CompleteShopping: %v", err)
	}
	if record.Status != requestdomain.RequestStatusFound {
		t.Fatalf("Status = %s, want found", record.Status)
	}
}

func TestUpdateItemStatusGuards(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, plushRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := created.ID.String()
	itemID := created.Items[0].ID.String()

	// Items can only change while the shopper is in the park.
	_, err = svc.UpdateItemStatus(ctx, id, requestdomain.UpdateItemStatusRequest{
		ItemID: itemID,
		Status: requestdomain.ItemStatusFound,
	})
	if !errors.Is(err, requestdomain.ErrInvalidTransition) {
		t.Fatalf("err = %v, want invalid transition", err)
	}

	for _, op := range []func(context.Context, string) (*requestdomain.Request, error){
		svc.Quote, svc.Approve,
	} {
		if _, err := op(ctx, id); err != nil {
			t.Fatalf("transition: %v", err)
		}
	}
	if _, err := svc.AssignTrip(ctx, id, snowflake.ID(42).String()); err != nil {
		t.Fatalf("AssignTrip: %v", err)
	}
	if _, err := svc.StartShopping(ctx, id); err != nil {
		t.Fatalf("StartShopping: %v", err)
	}

	_, err = svc.UpdateItemStatus(ctx, id, requestdomain.UpdateItemStatusRequest{
		ItemID: snowflake.ID(123).String(),
		Status: requestdomain.ItemStatusNotFound,
	})
	if !errors.Is(err, requestdomain.ErrItemNotFound) {
		t.Fatalf("err = %v, want item not found", err)
	}

	_, err = svc.UpdateItemStatus(ctx, id, requestdomain.UpdateItemStatusRequest{
		ItemID: itemID,
		Status: requestdomain.ItemStatus("misplaced"),
	})
	if !errors.Is(err, requestdomain.ErrInvalidItemStatus) {
		t.Fatalf("err = %v, want invalid item status", err)
	}

	negative := decimal.RequireFromString("-5")
	_, err = svc.UpdateItemStatus(ctx, id, requestdomain.UpdateItemStatusRequest{
		ItemID:     itemID,
		Status:     requestdomain.ItemStatusFound,
		FoundPrice: &negative,
	})
	if !errors.Is(err, requestdomain.ErrInvalidItem) {
		t.Fatalf("err = %v, want invalid item", err)
	}
}

func TestProgressMarksCurrentStep(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, plushRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Quote(ctx, created.ID.String()); err != nil {
		t.Fatalf("Quote: %v", err)
	}

	steps, err := svc.Progress(ctx, created.ID.String())
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if len(steps) != 10 {
		t.Fatalf("steps = %d, want 10", len(steps))
	}
	if !steps[0].Completed || steps[0].Current {
		t.Fatalf("pending step = %+v, want completed", steps[0])
	}
	if !steps[1].Current || steps[1].Completed {
		t.Fatalf("quoted step = %+v, want current", steps[1])
	}
	if steps[2].Completed || steps[2].Current {
		t.Fatalf("approved step = %+v, want upcoming", steps[2])
	}
}

func TestListFilters(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, plushRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	other := plushRequest()
	other.CustomerName = "Sam Okafor"
	other.CustomerEmail = "sam@example.com"
	if _, err := svc.Create(ctx, other); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Quote(ctx, first.ID.String()); err != nil {
		t.Fatalf("Quote: %v", err)
	}

	resp, err := svc.List(ctx, requestdomain.ListRequest{Status: requestdomain.RequestStatusQuoted})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(resp.Requests) != 1 || resp.Requests[0].ID != first.ID {
		t.Fatalf("status filter returned %d rows", len(resp.Requests))
	}

	resp, err = svc.List(ctx, requestdomain.ListRequest{CustomerEmail: "SAM@example.com"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(resp.Requests) != 1 || resp.Requests[0].CustomerEmail != "sam@example.com" {
		t.Fatalf("email filter returned %d rows", len(resp.Requests))
	}

	if _, err := svc.List(ctx, requestdomain.ListRequest{Status: requestdomain.RequestStatus("bogus")}); err == nil {
		t.Fatal("List with bogus status should fail")
	}
}
