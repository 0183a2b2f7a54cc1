package carrier

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/shawnuphold/wishpark/internal/config"
	"github.com/shawnuphold/wishpark/internal/observability/tracing"
	"github.com/shawnuphold/wishpark/internal/shipment/domain"
	"go.uber.org/zap"
)

// Client purchases labels from the shipping API over HTTP. Outbound calls
// carry trace context so carrier latency shows up in request traces.
type Client struct {
	http *resty.Client
	log  *zap.Logger
}

func NewClient(cfg config.Config, log *zap.Logger) *Client {
	httpClient := tracing.WrapHTTPClient(&http.Client{Timeout: 15 * time.Second})

	rc := resty.NewWithClient(httpClient).
		SetBaseURL(cfg.CarrierBaseURL).
		SetAuthToken(cfg.CarrierToken).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &Client{
		http: rc,
		log:  log.Named("carrier.client"),
	}
}

type purchaseLabelBody struct {
	Carrier      string         `json:"carrier"`
	ServiceLevel string         `json:"service_level"`
	To           domain.Address `json:"to"`
	WeightOunces float64        `json:"weight_ounces"`
	Reference    string         `json:"reference"`
}

type purchaseLabelResponse struct {
	TrackingNumber string `json:"tracking_number"`
	LabelURL       string `json:"label_url"`
	Cost           string `json:"cost"`
	Message        string `json:"message"`
}

func (c *Client) PurchaseLabel(ctx context.Context, req domain.PurchaseLabelRequest) (*domain.Label, error) {
	var out purchaseLabelResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(purchaseLabelBody{
			Carrier:      req.Carrier,
			ServiceLevel: req.ServiceLevel,
			To:           req.To,
			WeightOunces: req.WeightOunces,
			Reference:    req.Reference,
		}).
		SetResult(&out).
		SetError(&out).
		Post("/v1/labels")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCarrierFailure, err)
	}
	if resp.IsError() {
		c.log.Warn("label purchase rejected",
			zap.Int("status", resp.StatusCode()),
			zap.String("message", out.Message),
		)
		return nil, fmt.Errorf("%w: status %d", domain.ErrCarrierFailure, resp.StatusCode())
	}
	if out.TrackingNumber == "" {
		return nil, fmt.Errorf("%w: missing tracking number", domain.ErrCarrierFailure)
	}

	cost := decimal.Zero
	if out.Cost != "" {
		parsed, err := decimal.NewFromString(out.Cost)
		if err == nil {
			cost = parsed
		}
	}

	return &domain.Label{
		TrackingNumber: out.TrackingNumber,
		LabelURL:       out.LabelURL,
		Cost:           cost,
	}, nil
}
