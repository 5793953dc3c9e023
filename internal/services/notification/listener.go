package notification

import (
	"context"
	"time"

	"escrow/internal/repositories"
	"escrow/internal/services/outbox"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// Listen subscribes to the outbox NOTIFY channel and kicks k on every
// signal. The ticker in Dispatcher.Run covers notifications lost while
// reconnecting.
func Listen(ctx context.Context, dsn string, k outbox.Kicker, log *logrus.Logger) error {
	listener := pq.NewListener(dsn, time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.WithError(err).WithField("listener_event", ev).Warn("outbox listener connection event")
		}
	})
	defer listener.Close()

	if err := listener.Listen(repositories.OutboxChannel); err != nil {
		return err
	}
	log.WithField("channel", repositories.OutboxChannel).Info("listening for outbox notifications")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-listener.Notify:
			// A nil notification follows a reconnect; drain anyway.
			k.Kick()
		case <-time.After(90 * time.Second):
			if err := listener.Ping(); err != nil {
				log.WithError(err).Warn("outbox listener ping failed")
			}
		}
	}
}
