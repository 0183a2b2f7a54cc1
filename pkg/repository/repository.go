package repository

import (
	"context"

	"gorm.io/gorm"
)

// Option mutates a query before execution.
type Option func(*gorm.DB) *gorm.DB

// WithLimit caps the number of rows returned.
func WithLimit(limit int) Option {
	return func(tx *gorm.DB) *gorm.DB {
		if limit > 0 {
			return tx.Limit(limit)
		}
		return tx
	}
}

// WithOrder applies an ORDER BY clause.
func WithOrder(order string) Option {
	return func(tx *gorm.DB) *gorm.DB {
		if order != "" {
			return tx.Order(order)
		}
		return tx
	}
}

// WithPreload eagerly loads an association.
func WithPreload(association string) Option {
	return func(tx *gorm.DB) *gorm.DB {
		if association != "" {
			return tx.Preload(association)
		}
		return tx
	}
}

// Repository is a minimal generic gorm store shared by feature services.
type Repository[T any] interface {
	Create(ctx context.Context, record *T) error
	Save(ctx context.Context, record *T) error
	Delete(ctx context.Context, record *T) error
	FindOne(ctx context.Context, filter map[string]any, opts ...Option) (*T, error)
	Find(ctx context.Context, filter map[string]any, opts ...Option) ([]T, error)
	Count(ctx context.Context, filter map[string]any) (int64, error)
}

type store[T any] struct {
	db *gorm.DB
}

// ProvideStore builds a Repository bound to the shared connection.
func ProvideStore[T any](db *gorm.DB) Repository[T] {
	return &store[T]{db: db}
}

func (s *store[T]) Create(ctx context.Context, record *T) error {
	return s.db.WithContext(ctx).Create(record).Error
}

func (s *store[T]) Save(ctx context.Context, record *T) error {
	return s.db.WithContext(ctx).Save(record).Error
}

func (s *store[T]) Delete(ctx context.Context, record *T) error {
	return s.db.WithContext(ctx).Delete(record).Error
}

func (s *store[T]) FindOne(ctx context.Context, filter map[string]any, opts ...Option) (*T, error) {
	var record T
	tx := s.db.WithContext(ctx).Where(filter)
	for _, opt := range opts {
		tx = opt(tx)
	}
	err := tx.First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *store[T]) Find(ctx context.Context, filter map[string]any, opts ...Option) ([]T, error) {
	var records []T
	tx := s.db.WithContext(ctx).Where(filter)
	for _, opt := range opts {
		tx = opt(tx)
	}
	if err := tx.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *store[T]) Count(ctx context.Context, filter map[string]any) (int64, error) {
	var model T
	var count int64
	err := s.db.WithContext(ctx).Model(&model).Where(filter).Count(&count).Error
	return count, err
}
