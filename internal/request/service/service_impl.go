package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shawnuphold/wishpark/internal/clock"
	"github.com/shawnuphold/wishpark/internal/events"
	requestdomain "github.com/shawnuphold/wishpark/internal/request/domain"
	"github.com/shawnuphold/wishpark/pkg/db/pagination"
	"github.com/shawnuphold/wishpark/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Outbox *events.Outbox
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID  *snowflake.Node
	clock  clock.Clock
	outbox *events.Outbox
	repo   repository.Repository[requestdomain.Request]
}

func NewService(p ServiceParam) requestdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("request.service"),

		genID:  p.GenID,
		clock:  p.Clock,
		outbox: p.Outbox,
		repo:   repository.ProvideStore[requestdomain.Request](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req requestdomain.CreateRequest) (*requestdomain.Request, error) {
	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return nil, requestdomain.ErrInvalidCustomerName
	}
	email := strings.ToLower(strings.TrimSpace(req.CustomerEmail))
	if email == "" || !strings.Contains(email, "@") {
		return nil, requestdomain.ErrInvalidCustomerEmail
	}
	if len(req.Items) == 0 {
		return nil, requestdomain.ErrNoItems
	}

	now := s.clock.Now()
	record := &requestdomain.Request{
		ID:            s.genID.Generate(),
		CustomerName:  name,
		CustomerEmail: email,
		Park:          strings.TrimSpace(req.Park),
		Status:        requestdomain.RequestStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		record.Notes = &notes
	}

	for _, item := range req.Items {
		itemName := strings.TrimSpace(item.Name)
		if itemName == "" || item.Quantity <= 0 || item.BudgetPrice.IsNegative() {
			return nil, requestdomain.ErrInvalidItem
		}
		row := requestdomain.RequestItem{
			ID:          s.genID.Generate(),
			RequestID:   record.ID,
			Name:        itemName,
			Category:    strings.ToLower(strings.TrimSpace(item.Category)),
			Quantity:    item.Quantity,
			BudgetPrice: item.BudgetPrice,
			Status:      requestdomain.ItemStatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if notes := strings.TrimSpace(item.Notes); notes != "" {
			row.Notes = &notes
		}
		record.Items = append(record.Items, row)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type:      events.EventRequestCreated,
			Payload:   events.RequestPayload{RequestID: record.ID.String()}.ToMap(),
			DedupeKey: "request.created:" + record.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("request created",
		zap.String("request_id", record.ID.String()),
		zap.Int("items", len(record.Items)),
	)
	return record, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*requestdomain.Request, error) {
	requestID, err := parseID(id)
	if err != nil {
		return nil, requestdomain.ErrInvalidID
	}
	record, err := s.repo.FindOne(ctx, map[string]any{"id": requestID}, repository.WithPreload("Items"))
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, requestdomain.ErrNotFound
	}
	return record, nil
}

func (s *Service) List(ctx context.Context, req requestdomain.ListRequest) (requestdomain.ListResponse, error) {
	page := req.Pagination.Normalize()

	filter := map[string]any{}
	if req.Status != "" {
		if !req.Status.Valid() {
			return requestdomain.ListResponse{}, requestdomain.ErrInvalidTransition
		}
		filter["status"] = req.Status
	}
	if email := strings.ToLower(strings.TrimSpace(req.CustomerEmail)); email != "" {
		filter["customer_email"] = email
	}

	tx := s.db.WithContext(ctx).Where(filter)
	if after := pagination.DecodeToken(page.PageToken); after > 0 {
		tx = tx.Where("id > ?", after)
	}

	var rows []requestdomain.Request
	if err := tx.Preload("Items").Order("id ASC").Limit(page.PageSize).Find(&rows).Error; err != nil {
		return requestdomain.ListResponse{}, err
	}

	resp := requestdomain.ListResponse{Requests: rows}
	if len(rows) == page.PageSize {
		resp.NextPageToken = pagination.EncodeToken(int64(rows[len(rows)-1].ID))
	}
	return resp, nil
}

func (s *Service) Progress(ctx context.Context, id string) ([]requestdomain.StatusStep, error) {
	record, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	current := record.Status.Position()
	steps := make([]requestdomain.StatusStep, 0, 10)
	for _, status := range []requestdomain.RequestStatus{
		requestdomain.RequestStatusPending,
		requestdomain.RequestStatusQuoted,
		requestdomain.RequestStatusApproved,
		requestdomain.RequestStatusScheduled,
		requestdomain.RequestStatusShopping,
		requestdomain.RequestStatusFound,
		requestdomain.RequestStatusInvoiced,
		requestdomain.RequestStatusPaid,
		requestdomain.RequestStatusShipped,
		requestdomain.RequestStatusDelivered,
	} {
		pos := status.Position()
		steps = append(steps, requestdomain.StatusStep{
			Status:    status,
			Position:  pos,
			Completed: pos < current,
			Current:   pos == current,
		})
	}
	return steps, nil
}

func (s *Service) Quote(ctx context.Context, id string) (*requestdomain.Request, error) {
	return s.transition(ctx, id, requestdomain.RequestStatusQuoted, nil, "")
}

func (s *Service) Approve(ctx context.Context, id string) (*requestdomain.Request, error) {
	now := s.clock.Now()
	return s.transition(ctx, id, requestdomain.RequestStatusApproved, map[string]any{
		"approved_at": now,
	}, events.EventRequestApproved)
}

func (s *Service) AssignTrip(ctx context.Context, id string, tripID string) (*requestdomain.Request, error) {
	trip, err := parseID(tripID)
	if err != nil {
		return nil, requestdomain.ErrInvalidTrip
	}
	return s.transition(ctx, id, requestdomain.RequestStatusScheduled, map[string]any{
		"trip_id": trip,
	}, events.EventRequestScheduled)
}

func (s *Service) UnassignTrip(ctx context.Context, id string) (*requestdomain.Request, error) {
	return s.transition(ctx, id, requestdomain.RequestStatusApproved, map[string]any{
		"trip_id": nil,
	}, "")
}

func (s *Service) StartShopping(ctx context.Context, id string) (*requestdomain.Request, error) {
	return s.transition(ctx, id, requestdomain.RequestStatusShopping, nil, "")
}

func (s *Service) UpdateItemStatus(ctx context.Context, id string, req requestdomain.UpdateItemStatusRequest) (*requestdomain.Request, error) {
	requestID, err := parseID(id)
	if err != nil {
		return nil, requestdomain.ErrInvalidID
	}
	itemID, err := parseID(req.ItemID)
	if err != nil {
		return nil, requestdomain.ErrItemNotFound
	}
	if !req.Status.Valid() {
		return nil, requestdomain.ErrInvalidItemStatus
	}
	if req.FoundPrice != nil && req.FoundPrice.IsNegative() {
		return nil, requestdomain.ErrInvalidItem
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record requestdomain.Request
		if err := tx.First(&record, "id = ?", requestID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return requestdomain.ErrNotFound
			}
			return err
		}
		if record.Status != requestdomain.RequestStatusShopping {
			return requestdomain.ErrInvalidTransition
		}

		updates := map[string]any{
			"status":     req.Status,
			"updated_at": now,
		}
		if req.FoundPrice != nil {
			updates["found_price"] = *req.FoundPrice
		}
		if notes := strings.TrimSpace(req.Notes); notes != "" {
			updates["notes"] = notes
		}

		result := tx.Model(&requestdomain.RequestItem{}).
			Where("id = ? AND request_id = ?", itemID, requestID).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return requestdomain.ErrItemNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *Service) CompleteShopping(ctx context.Context, id string) (*requestdomain.Request, error) {
	return s.transition(ctx, id, requestdomain.RequestStatusFound, nil, events.EventRequestFound)
}

func (s *Service) MarkDelivered(ctx context.Context, id string) (*requestdomain.Request, error) {
	return s.transition(ctx, id, requestdomain.RequestStatusDelivered, nil, events.EventShipmentDelivered)
}

// transition applies a guarded status update: the write only lands when the
// current status legally precedes the target, so concurrent editors cannot
// double-apply a step.
func (s *Service) transition(ctx context.Context, id string, next requestdomain.RequestStatus, extra map[string]any, eventType string) (*requestdomain.Request, error) {
	requestID, err := parseID(id)
	if err != nil {
		return nil, requestdomain.ErrInvalidID
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record requestdomain.Request
		if err := tx.First(&record, "id = ?", requestID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return requestdomain.ErrNotFound
			}
			return err
		}
		if !record.Status.CanTransition(next) {
			return requestdomain.ErrInvalidTransition
		}

		updates := map[string]any{
			"status":     next,
			"updated_at": now,
		}
		for key, value := range extra {
			updates[key] = value
		}

		result := tx.Model(&requestdomain.Request{}).
			Where("id = ? AND status = ?", requestID, record.Status).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return requestdomain.ErrInvalidTransition
		}

		if eventType != "" {
			return s.outbox.PublishTx(ctx, tx, events.Event{
				Type:      eventType,
				Payload:   events.RequestPayload{RequestID: record.ID.String(), Status: string(next)}.ToMap(),
				DedupeKey: eventType + ":" + record.ID.String(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("request transitioned",
		zap.String("request_id", id),
		zap.String("status", string(next)),
	)
	return s.GetByID(ctx, id)
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
