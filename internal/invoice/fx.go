package invoice

import (
	"github.com/shawnuphold/wishpark/internal/invoice/render"
	"github.com/shawnuphold/wishpark/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(render.NewHTMLRenderer),
	fx.Provide(render.NewPDFRenderer),
	fx.Provide(service.NewService),
)
