package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shawnuphold/wishpark/internal/clock"
	"github.com/shawnuphold/wishpark/internal/events"
	"github.com/shawnuphold/wishpark/internal/notify"
	requestdomain "github.com/shawnuphold/wishpark/internal/request/domain"
	shipmentdomain "github.com/shawnuphold/wishpark/internal/shipment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Outbox   *events.Outbox
	Carrier  shipmentdomain.CarrierClient
	Notifier notify.Notifier `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	clock    clock.Clock
	outbox   *events.Outbox
	carrier  shipmentdomain.CarrierClient
	notifier notify.Notifier
}

func NewService(p ServiceParam) shipmentdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("shipment.service"),

		genID:    p.GenID,
		clock:    p.Clock,
		outbox:   p.Outbox,
		carrier:  p.Carrier,
		notifier: p.Notifier,
	}
}

// Create purchases a label and records the shipment. Only a paid request can
// ship; the request moves to shipped in the same transaction that stores the
// tracking number.
func (s *Service) Create(ctx context.Context, req shipmentdomain.CreateShipmentRequest) (*shipmentdomain.Shipment, error) {
	requestID, err := parseID(req.RequestID)
	if err != nil {
		return nil, shipmentdomain.ErrInvalidID
	}
	if err := validateAddress(req.To); err != nil {
		return nil, err
	}

	var request requestdomain.Request
	if err := s.db.WithContext(ctx).First(&request, "id = ?", requestID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, requestdomain.ErrNotFound
		}
		return nil, err
	}
	if request.Status != requestdomain.RequestStatusPaid {
		return nil, shipmentdomain.ErrRequestNotPaid
	}

	// The carrier call happens outside the transaction; the paid-status guard
	// below catches a concurrent ship of the same request.
	label, err := s.carrier.PurchaseLabel(ctx, shipmentdomain.PurchaseLabelRequest{
		Carrier:      req.Carrier,
		ServiceLevel: req.ServiceLevel,
		To:           req.To,
		WeightOunces: req.WeightOunces,
		Reference:    request.ID.String(),
	})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	shipment := &shipmentdomain.Shipment{
		ID:             s.genID.Generate(),
		RequestID:      request.ID,
		Carrier:        req.Carrier,
		ServiceLevel:   req.ServiceLevel,
		TrackingNumber: label.TrackingNumber,
		LabelURL:       label.LabelURL,
		Cost:           label.Cost,
		Status:         shipmentdomain.ShipmentStatusLabelPurchased,
		ShippedAt:      &now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(shipment).Error; err != nil {
			return err
		}

		result := tx.Model(&requestdomain.Request{}).
			Where("id = ? AND status = ?", request.ID, requestdomain.RequestStatusPaid).
			Updates(map[string]any{
				"status":     requestdomain.RequestStatusShipped,
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shipmentdomain.ErrRequestNotPaid
		}

		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventShipmentCreated,
			Payload: map[string]any{
				"shipment_id":     shipment.ID.String(),
				"request_id":      request.ID.String(),
				"tracking_number": shipment.TrackingNumber,
			},
			DedupeKey: "shipment.created:" + shipment.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, &request,
		"Your Wishpark order is on the way",
		fmt.Sprintf("Your package shipped via %s. Tracking number: %s", shipment.Carrier, shipment.TrackingNumber),
	)
	s.log.Info("shipment created",
		zap.String("shipment_id", shipment.ID.String()),
		zap.String("request_id", request.ID.String()),
		zap.String("tracking_number", shipment.TrackingNumber),
	)
	return shipment, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*shipmentdomain.Shipment, error) {
	shipmentID, err := parseID(id)
	if err != nil {
		return nil, shipmentdomain.ErrInvalidID
	}
	var shipment shipmentdomain.Shipment
	if err := s.db.WithContext(ctx).First(&shipment, "id = ?", shipmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shipmentdomain.ErrNotFound
		}
		return nil, err
	}
	return &shipment, nil
}

func (s *Service) ListByRequest(ctx context.Context, requestID string) ([]shipmentdomain.Shipment, error) {
	reqID, err := parseID(requestID)
	if err != nil {
		return nil, shipmentdomain.ErrInvalidID
	}
	var shipments []shipmentdomain.Shipment
	if err := s.db.WithContext(ctx).
		Where("request_id = ?", reqID).
		Order("id ASC").
		Find(&shipments).Error; err != nil {
		return nil, err
	}
	return shipments, nil
}

// MarkDelivered confirms delivery and cascades the request to its terminal
// status.
func (s *Service) MarkDelivered(ctx context.Context, id string) (*shipmentdomain.Shipment, error) {
	shipmentID, err := parseID(id)
	if err != nil {
		return nil, shipmentdomain.ErrInvalidID
	}

	now := s.clock.Now()
	var shipment shipmentdomain.Shipment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&shipment, "id = ?", shipmentID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return shipmentdomain.ErrNotFound
			}
			return err
		}
		if shipment.Status == shipmentdomain.ShipmentStatusDelivered {
			return shipmentdomain.ErrAlreadyDelivered
		}

		result := tx.Model(&shipmentdomain.Shipment{}).
			Where("id = ? AND status <> ?", shipment.ID, shipmentdomain.ShipmentStatusDelivered).
			Updates(map[string]any{
				"status":       shipmentdomain.ShipmentStatusDelivered,
				"delivered_at": now,
				"updated_at":   now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shipmentdomain.ErrAlreadyDelivered
		}
		shipment.Status = shipmentdomain.ShipmentStatusDelivered
		shipment.DeliveredAt = &now
		shipment.UpdatedAt = now

		// Cascade is best effort: other shipments for the same request may
		// still be in flight, so the request only advances when shipped.
		if err := tx.Model(&requestdomain.Request{}).
			Where("id = ? AND status = ?", shipment.RequestID, requestdomain.RequestStatusShipped).
			Updates(map[string]any{
				"status":     requestdomain.RequestStatusDelivered,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventShipmentDelivered,
			Payload: map[string]any{
				"shipment_id": shipment.ID.String(),
				"request_id":  shipment.RequestID.String(),
			},
			DedupeKey: "shipment.delivered:" + shipment.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("shipment delivered",
		zap.String("shipment_id", shipment.ID.String()),
		zap.String("request_id", shipment.RequestID.String()),
	)
	return &shipment, nil
}

func (s *Service) notify(ctx context.Context, request *requestdomain.Request, subject, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, notify.Message{
		ToEmail: request.CustomerEmail,
		ToName:  request.CustomerName,
		Subject: subject,
		Body:    body,
	}); err != nil {
		s.log.Warn("notification delivery failed",
			zap.String("request_id", request.ID.String()),
			zap.Error(err),
		)
	}
}

func validateAddress(addr shipmentdomain.Address) error {
	if strings.TrimSpace(addr.Name) == "" ||
		strings.TrimSpace(addr.Street1) == "" ||
		strings.TrimSpace(addr.City) == "" ||
		strings.TrimSpace(addr.Zip) == "" {
		return shipmentdomain.ErrInvalidAddress
	}
	return nil
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
