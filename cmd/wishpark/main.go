package main

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shawnuphold/wishpark/internal/audit"
	"github.com/shawnuphold/wishpark/internal/clock"
	"github.com/shawnuphold/wishpark/internal/config"
	"github.com/shawnuphold/wishpark/internal/events"
	"github.com/shawnuphold/wishpark/internal/importer"
	"github.com/shawnuphold/wishpark/internal/invoice"
	"github.com/shawnuphold/wishpark/internal/migration"
	"github.com/shawnuphold/wishpark/internal/notify"
	"github.com/shawnuphold/wishpark/internal/observability"
	"github.com/shawnuphold/wishpark/internal/observability/logger"
	"github.com/shawnuphold/wishpark/internal/payment"
	"github.com/shawnuphold/wishpark/internal/request"
	"github.com/shawnuphold/wishpark/internal/scheduler"
	"github.com/shawnuphold/wishpark/internal/seed"
	"github.com/shawnuphold/wishpark/internal/server"
	"github.com/shawnuphold/wishpark/internal/shipment"
	"github.com/shawnuphold/wishpark/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		observability.Module,
		clock.Module,
		fx.Provide(func(cfg config.Config) (*snowflake.Node, error) {
			return snowflake.NewNode(cfg.NodeID)
		}),
		db.Module,
		fx.Provide(events.NewOutbox),
		notify.Module,

		fx.Invoke(func(conn *gorm.DB, node *snowflake.Node, log *zap.Logger) error {
			if err := migration.Run(context.Background(), conn, log); err != nil {
				return err
			}
			return seed.EnsureDefaultAdmin(conn, node)
		}),

		request.Module,
		invoice.Module,
		payment.Module,
		shipment.Module,
		audit.Module,
		importer.Module,
		scheduler.Module,
		server.Module,
	)
	app.Run()
}
