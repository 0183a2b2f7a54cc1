package audit

import (
	"github.com/shawnuphold/wishpark/internal/audit/repository"
	"github.com/shawnuphold/wishpark/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
