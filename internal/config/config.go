package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds runtime configuration loaded from the environment.
type Config struct {
	Environment string
	HTTPAddr    string
	NodeID      int64

	DatabaseURL string

	APIKey string

	StripeWebhookSecret string
	PaypalWebhookSecret string

	CarrierBaseURL string
	CarrierToken   string

	SendgridAPIKey string
	FromEmail      string

	Tracing TracingConfig

	RateLimitPerMinute int
	ShutdownTimeout    time.Duration
}

// TracingConfig controls the OTLP exporter.
type TracingConfig struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	SamplingRatio    float64
}

// IsProduction reports whether the service runs in the production environment.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load reads configuration from the environment, honoring a local .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment: getenv("WISHPARK_ENV", "development"),
		HTTPAddr:    getenv("WISHPARK_HTTP_ADDR", ":8080"),
		NodeID:      int64(getenvInt("WISHPARK_NODE_ID", 1)),

		DatabaseURL: getenv("WISHPARK_DATABASE_URL", ""),

		APIKey: getenv("WISHPARK_API_KEY", ""),

		StripeWebhookSecret: getenv("WISHPARK_STRIPE_WEBHOOK_SECRET", ""),
		PaypalWebhookSecret: getenv("WISHPARK_PAYPAL_WEBHOOK_SECRET", ""),

		CarrierBaseURL: getenv("WISHPARK_CARRIER_BASE_URL", ""),
		CarrierToken:   getenv("WISHPARK_CARRIER_TOKEN", ""),

		SendgridAPIKey: getenv("WISHPARK_SENDGRID_API_KEY", ""),
		FromEmail:      getenv("WISHPARK_FROM_EMAIL", "concierge@wishpark.app"),

		Tracing: TracingConfig{
			Enabled:          getenvBool("WISHPARK_TRACING_ENABLED", false),
			ExporterEndpoint: getenv("WISHPARK_OTLP_ENDPOINT", "localhost:4317"),
			ExporterProtocol: getenv("WISHPARK_OTLP_PROTOCOL", "grpc"),
			SamplingRatio:    getenvFloat("WISHPARK_TRACING_SAMPLING_RATIO", 1.0),
		},

		RateLimitPerMinute: getenvInt("WISHPARK_RATE_LIMIT_PER_MINUTE", 120),
		ShutdownTimeout:    getenvDuration("WISHPARK_SHUTDOWN_TIMEOUT", 15*time.Second),
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getenvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// Module provides configuration to the fx graph.
var Module = fx.Module("config",
	fx.Provide(Load),
)
