package payment

import (
	"github.com/shawnuphold/wishpark/internal/config"
	"github.com/shawnuphold/wishpark/internal/payment/adapters"
	"github.com/shawnuphold/wishpark/internal/payment/adapters/paypal"
	"github.com/shawnuphold/wishpark/internal/payment/adapters/stripe"
	"github.com/shawnuphold/wishpark/internal/payment/repository"
	"github.com/shawnuphold/wishpark/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(cfg config.Config) *adapters.Registry {
		return adapters.NewRegistry(
			stripe.NewAdapter(cfg.StripeWebhookSecret),
			paypal.NewAdapter(cfg.PaypalWebhookSecret),
		)
	}),
	fx.Provide(service.NewService),
)
