package notify

import (
	"github.com/shawnuphold/wishpark/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides a Notifier. Without a SendGrid key the no-op notifier is
// used so local development never reaches the network.
var Module = fx.Module("notify",
	fx.Provide(func(cfg config.Config, log *zap.Logger) Notifier {
		if cfg.SendgridAPIKey == "" {
			log.Info("no sendgrid key configured, notifications disabled")
			return Noop{}
		}
		return NewSendgridNotifier(cfg, log)
	}),
)
