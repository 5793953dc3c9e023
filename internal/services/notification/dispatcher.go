// Package notification delivers committed outbox events to the configured
// broker and turns them into in-app notifications.
package notification

import (
	"context"
	"fmt"
	"time"

	"escrow/internal/models"
	"escrow/internal/repositories"

	"github.com/sirupsen/logrus"
)

type DispatcherConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
}

// Dispatcher drains the outbox. It runs on a ticker and whenever Kick is
// called; a failing delivery is recorded on the event and retried on a later
// pass, never reported to the operation that produced it.
type Dispatcher struct {
	store     repositories.Store
	publisher Publisher
	cfg       DispatcherConfig
	log       *logrus.Logger
	wake      chan struct{}
	now       func() time.Time
}

func NewDispatcher(store repositories.Store, publisher Publisher, cfg DispatcherConfig, log *logrus.Logger) *Dispatcher {
	if store == nil {
		panic("store is required")
	}
	if publisher == nil {
		panic("publisher is required")
	}
	if log == nil {
		panic("logger is required")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	return &Dispatcher{
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
		wake:      make(chan struct{}, 1),
		now:       time.Now,
	}
}

// Kick requests a drain without blocking. Multiple kicks coalesce.
func (d *Dispatcher) Kick() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Run drains until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	d.log.WithField("poll_interval", d.cfg.PollInterval.String()).Info("outbox dispatcher started")
	for {
		for {
			n, err := d.DrainOnce(ctx)
			if err != nil {
				d.log.WithError(err).Error("outbox drain failed")
				break
			}
			if n < d.cfg.BatchSize {
				break
			}
		}

		select {
		case <-ctx.Done():
			d.log.Info("outbox dispatcher stopped")
			return nil
		case <-ticker.C:
		case <-d.wake:
		}
	}
}

// DrainOnce handles one batch of pending events and returns how many it
// fetched.
func (d *Dispatcher) DrainOnce(ctx context.Context) (int, error) {
	var fetched int
	err := d.store.ExecuteInTransaction(ctx, func(r *repositories.Repositories) error {
		events, err := r.Outbox.FetchPending(ctx, d.cfg.BatchSize, d.cfg.MaxAttempts)
		if err != nil {
			return err
		}
		fetched = len(events)

		for i := range events {
			if err := d.deliver(ctx, r, &events[i]); err != nil {
				return err
			}
		}
		return nil
	})
	return fetched, err
}

// deliver publishes one event. Only store errors are returned; publish
// failures are recorded on the event.
func (d *Dispatcher) deliver(ctx context.Context, r *repositories.Repositories, ev *models.OutboxEvent) error {
	entry := d.log.WithFields(logrus.Fields{"event": ev.Type, "event_id": ev.EventID, "attempt": ev.Attempts + 1})

	if err := d.publisher.Publish(ctx, ev); err != nil {
		entry.WithError(err).Warn("event publish failed")
		if ev.Attempts+1 >= d.cfg.MaxAttempts {
			entry.Error("event exceeded max delivery attempts")
		}
		return r.Outbox.MarkFailed(ctx, ev.ID, err.Error())
	}

	for _, n := range BuildNotifications(ev) {
		n := n
		if err := r.Notifications.Create(ctx, &n); err != nil {
			return fmt.Errorf("failed to store notification: %w", err)
		}
	}
	if err := r.Outbox.MarkDispatched(ctx, ev.ID, d.now()); err != nil {
		return err
	}
	entry.Debug("event dispatched")
	return nil
}
