package request

import (
	"github.com/shawnuphold/wishpark/internal/request/service"
	"go.uber.org/fx"
)

var Module = fx.Module("request.service",
	fx.Provide(service.NewService),
)
