package shipment

import (
	"github.com/shawnuphold/wishpark/internal/shipment/carrier"
	"github.com/shawnuphold/wishpark/internal/shipment/domain"
	"github.com/shawnuphold/wishpark/internal/shipment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("shipment.service",
	fx.Provide(func(c *carrier.Client) domain.CarrierClient { return c }),
	fx.Provide(carrier.NewClient),
	fx.Provide(service.NewService),
)
