package scheduler

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DispatchEvent is one claimed outbox row handed to the sink.
type DispatchEvent struct {
	ID        snowflake.ID      `gorm:"column:id"`
	EventType string            `gorm:"column:event_type"`
	Payload   datatypes.JSONMap `gorm:"column:payload"`
	CreatedAt time.Time         `gorm:"column:created_at"`
}

// Sink receives events drained from the outbox. A delivery error leaves the
// event unpublished so the next tick retries it.
type Sink interface {
	Deliver(ctx context.Context, event DispatchEvent) error
}

// LogSink writes events to the application log. It is the default sink until
// a downstream consumer is wired in.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) LogSink {
	return LogSink{log: log.Named("events")}
}

func (s LogSink) Deliver(_ context.Context, event DispatchEvent) error {
	s.log.Info("concierge event",
		zap.String("event_id", event.ID.String()),
		zap.String("event_type", event.EventType),
		zap.Any("payload", map[string]any(event.Payload)),
	)
	return nil
}

// Dispatcher drains unpublished rows from the concierge_events outbox and
// hands them to the sink in creation order. Batches are claimed with
// SKIP LOCKED so concurrent replicas never deliver the same event twice.
type Dispatcher struct {
	db   *gorm.DB
	log  *zap.Logger
	sink Sink

	interval  time.Duration
	batchSize int

	stop chan struct{}
	done chan struct{}
}

type DispatcherParam struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Sink Sink
}

func NewDispatcher(p DispatcherParam) *Dispatcher {
	return &Dispatcher{
		db:        p.DB,
		log:       p.Log.Named("scheduler"),
		sink:      p.Sink,
		interval:  5 * time.Second,
		batchSize: 100,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// DispatchOnce claims one batch, delivers it, and marks delivered rows
// published. It returns the number of events delivered.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	delivered := 0
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Table("concierge_events").
			Where("published = ?", false).
			Order("created_at ASC, id ASC").
			Limit(d.batchSize)
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}

		var batch []DispatchEvent
		if err := query.Find(&batch).Error; err != nil {
			return err
		}

		for _, event := range batch {
			if err := d.sink.Deliver(ctx, event); err != nil {
				d.log.Warn("event delivery failed",
					zap.String("event_id", event.ID.String()),
					zap.String("event_type", event.EventType),
					zap.Error(err),
				)
				break
			}
			if err := tx.Exec(
				`UPDATE concierge_events SET published = true WHERE id = ?`,
				event.ID,
			).Error; err != nil {
				return err
			}
			delivered++
		}
		return nil
	})
	return delivered, err
}

func (d *Dispatcher) run() {
	defer close(d.done)
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			if _, err := d.DispatchOnce(context.Background()); err != nil {
				d.log.Warn("outbox dispatch failed", zap.Error(err))
			}
		}
	}
}

// Run starts the dispatch loop under the fx lifecycle.
func Run(lc fx.Lifecycle, d *Dispatcher) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go d.run()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(d.stop)
			select {
			case <-d.done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

var Module = fx.Module("scheduler",
	fx.Provide(func(log *zap.Logger) Sink { return NewLogSink(log) }),
	fx.Provide(NewDispatcher),
	fx.Invoke(Run),
)
