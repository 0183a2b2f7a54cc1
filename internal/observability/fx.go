package observability

import (
	"github.com/shawnuphold/wishpark/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

// Module wires tracing into the application graph. The logger has its own
// module so tools that skip tracing can still log.
var Module = fx.Module("observability",
	fx.Provide(tracing.NewProvider),
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)
