package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/shawnuphold/wishpark/internal/audit/domain"
	"github.com/shawnuphold/wishpark/internal/audit/repository"
	"github.com/shawnuphold/wishpark/internal/clock"
	obscontext "github.com/shawnuphold/wishpark/internal/observability/context"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func setupService(t *testing.T) (auditdomain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "wishpark.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&auditdomain.AuditLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.Fixed{At: testNow},
		Repo:  repository.Provide(),
	})
	return svc, db
}

func TestRecordCapturesActorFromContext(t *testing.T) {
	svc, db := setupService(t)

	ctx := obscontext.WithActor(context.Background(), string(auditdomain.ActorTypeStaff), "mallory")
	err := svc.Record(ctx, auditdomain.Entry{
		Action:     "invoice.send",
		TargetType: "invoice",
		TargetID:   "1234567890",
		Metadata:   map[string]any{"total": "60.00"},
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	var row auditdomain.AuditLog
	if err := db.First(&row).Error; err != nil {
		t.Fatalf("load audit row: %v", err)
	}
	if row.ActorType != string(auditdomain.ActorTypeStaff) {
		t.Fatalf("actor_type = %s", row.ActorType)
	}
	if row.ActorID == nil || *row.ActorID != "mallory" {
		t.Fatalf("actor_id = %v", row.ActorID)
	}
	if row.Action != "invoice.send" {
		t.Fatalf("action = %s", row.Action)
	}
}

func TestRecordDefaultsToSystemActor(t *testing.T) {
	svc, db := setupService(t)

	if err := svc.Record(context.Background(), auditdomain.Entry{Action: "outbox.flush"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	var row auditdomain.AuditLog
	if err := db.First(&row).Error; err != nil {
		t.Fatalf("load audit row: %v", err)
	}
	if row.ActorType != string(auditdomain.ActorTypeSystem) {
		t.Fatalf("actor_type = %s, want system", row.ActorType)
	}
}

func TestRecordRequiresAction(t *testing.T) {
	svc, _ := setupService(t)

	err := svc.Record(context.Background(), auditdomain.Entry{TargetType: "invoice"})
	if !errors.Is(err, auditdomain.ErrMissingAction) {
		t.Fatalf("err = %v, want ErrMissingAction", err)
	}
}

func TestListFilters(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	for _, action := range []string{"invoice.send", "invoice.send", "request.approve"} {
		if err := svc.Record(ctx, auditdomain.Entry{Action: action, TargetType: "invoice"}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	rows, err := svc.List(ctx, auditdomain.ListFilter{Action: "invoice.send"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
}
