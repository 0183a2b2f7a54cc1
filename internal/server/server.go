package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/shawnuphold/wishpark/internal/audit/domain"
	"github.com/shawnuphold/wishpark/internal/cache"
	"github.com/shawnuphold/wishpark/internal/config"
	"github.com/shawnuphold/wishpark/internal/importer"
	invoicedomain "github.com/shawnuphold/wishpark/internal/invoice/domain"
	"github.com/shawnuphold/wishpark/internal/invoice/render"
	"github.com/shawnuphold/wishpark/internal/observability/logger"
	"github.com/shawnuphold/wishpark/internal/observability/tracing"
	paymentdomain "github.com/shawnuphold/wishpark/internal/payment/domain"
	requestdomain "github.com/shawnuphold/wishpark/internal/request/domain"
	shipmentdomain "github.com/shawnuphold/wishpark/internal/shipment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Cfg          config.Config
	Log          *zap.Logger
	DB           *gorm.DB
	RequestSvc   requestdomain.Service
	InvoiceSvc   invoicedomain.Service
	ShipmentSvc  shipmentdomain.Service
	PaymentSvc   paymentdomain.Service
	AuditSvc     auditdomain.Service
	Importer     *importer.Importer
	HTMLRenderer render.HTMLRenderer
	PDFRenderer  render.PDFRenderer
}

// Server wires the HTTP surface onto the feature services.
type Server struct {
	cfg config.Config
	log *zap.Logger
	db  *gorm.DB

	requestSvc  requestdomain.Service
	invoiceSvc  invoicedomain.Service
	shipmentSvc shipmentdomain.Service
	paymentSvc  paymentdomain.Service
	auditSvc    auditdomain.Service
	importer    *importer.Importer

	htmlRenderer render.HTMLRenderer
	pdfRenderer  render.PDFRenderer
	// Rendered documents for invoices that left draft; draft renders change
	// too often to be worth caching.
	renderCache *cache.TTLCache[string, string]

	limiter *rateLimiter
}

func NewServer(p Params) *Server {
	return &Server{
		cfg: p.Cfg,
		log: p.Log.Named("server"),
		db:  p.DB,

		requestSvc:  p.RequestSvc,
		invoiceSvc:  p.InvoiceSvc,
		shipmentSvc: p.ShipmentSvc,
		paymentSvc:  p.PaymentSvc,
		auditSvc:    p.AuditSvc,
		importer:    p.Importer,

		htmlRenderer: p.HTMLRenderer,
		pdfRenderer:  p.PDFRenderer,
		renderCache:  cache.NewTTLCache[string, string](5 * time.Minute),

		limiter: newRateLimiter(p.Cfg.RateLimitPerMinute, time.Minute),
	}
}

// NewEngine builds the gin engine with the shared middleware stack.
func NewEngine(cfg config.Config, log *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(tracing.GinMiddleware())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz"},
	}))
	return engine
}

// RegisterRoutes mounts every route. Webhooks authenticate by signature and
// sit outside the API-key group.
func (s *Server) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/healthz", s.Healthz)
	engine.POST("/v1/webhooks/:provider", s.IngestPaymentWebhook)

	v1 := engine.Group("/v1", s.RateLimit(), s.APIKeyRequired())
	{
		v1.POST("/requests", s.CreateRequest)
		v1.GET("/requests", s.ListRequests)
		v1.GET("/requests/:id", s.GetRequestByID)
		v1.GET("/requests/:id/progress", s.GetRequestProgress)
		v1.POST("/requests/:id/quote", s.QuoteRequest)
		v1.POST("/requests/:id/approve", s.ApproveRequest)
		v1.POST("/requests/:id/trip", s.AssignTrip)
		v1.DELETE("/requests/:id/trip", s.UnassignTrip)
		v1.POST("/requests/:id/start-shopping", s.StartShopping)
		v1.PATCH("/requests/:id/items/:itemID", s.UpdateRequestItemStatus)
		v1.POST("/requests/:id/complete-shopping", s.CompleteShopping)
		v1.POST("/requests/:id/deliver", s.MarkRequestDelivered)
		v1.POST("/requests/:id/invoice", s.CreateInvoiceFromRequest)
		v1.GET("/requests/:id/shipments", s.ListRequestShipments)
		v1.POST("/imports/requests", s.ImportRequests)

		v1.POST("/invoices", s.CreateInvoice)
		v1.GET("/invoices", s.ListInvoices)
		v1.GET("/invoices/:id", s.GetInvoiceByID)
		v1.GET("/invoices/:id/html", s.GetInvoiceHTML)
		v1.GET("/invoices/:id/pdf", s.GetInvoicePDF)
		v1.POST("/invoices/:id/items", s.AddInvoiceLineItem)
		v1.PUT("/invoices/:id/items/:itemID", s.UpdateInvoiceLineItem)
		v1.DELETE("/invoices/:id/items/:itemID", s.DeleteInvoiceLineItem)
		v1.PUT("/invoices/:id/fees", s.UpdateInvoiceFeeSettings)
		v1.POST("/invoices/:id/send", s.SendInvoice)
		v1.POST("/invoices/:id/payments", s.RecordInvoicePayment)
		v1.POST("/invoices/:id/cancel", s.CancelInvoice)
		v1.POST("/invoices/:id/refund", s.RefundInvoice)

		v1.POST("/shipments", s.CreateShipment)
		v1.GET("/shipments/:id", s.GetShipmentByID)
		v1.POST("/shipments/:id/deliver", s.MarkShipmentDelivered)

		v1.GET("/audit-logs", s.ListAuditLogs)
	}
}

func (s *Server) Healthz(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunHTTP starts the HTTP listener under the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, engine *gin.Engine, server *Server) {
	server.RegisterRoutes(engine)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(RunHTTP),
)
