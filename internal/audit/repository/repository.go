package repository

import (
	"context"

	"github.com/shawnuphold/wishpark/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.AuditLog) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.AuditLog, error) {
	tx := db.WithContext(ctx).Model(&domain.AuditLog{})

	if filter.Action != "" {
		tx = tx.Where("action = ?", filter.Action)
	}
	if filter.TargetType != "" {
		tx = tx.Where("target_type = ?", filter.TargetType)
	}
	if filter.TargetID != "" {
		tx = tx.Where("target_id = ?", filter.TargetID)
	}
	if filter.ActorType != "" {
		tx = tx.Where("actor_type = ?", filter.ActorType)
	}
	if filter.StartAt != nil {
		tx = tx.Where("created_at >= ?", *filter.StartAt)
	}
	if filter.EndAt != nil {
		tx = tx.Where("created_at < ?", *filter.EndAt)
	}
	if filter.Cursor != nil {
		tx = tx.Where("(created_at, id) < (?, ?)", filter.Cursor.CreatedAt, filter.Cursor.ID)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var rows []*domain.AuditLog
	if err := tx.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
