package worker

import (
	"context"
	"time"

	"github.com/ds124wfegd/ticket-booker/internal/service"

	"github.com/sirupsen/logrus"
)

// OutboxWorker dispatches pending notifications on every tick and
// whenever the notification service is kicked.
type OutboxWorker struct {
	notificationService service.NotificationService
	interval            time.Duration
}

func NewOutboxWorker(notificationService service.NotificationService, interval time.Duration) *OutboxWorker {
	return &OutboxWorker{
		notificationService: notificationService,
		interval:            interval,
	}
}

// Start blocks until ctx is done.
func (w *OutboxWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.WithField("interval", w.interval.String()).Info("Outbox worker started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Outbox worker stopped")
			return
		case <-ticker.C:
			w.drain(ctx)
		case <-w.notificationService.Wakeups():
			w.drain(ctx)
		}
	}
}

// drain keeps dispatching until the outbox is empty.
func (w *OutboxWorker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		claimed, err := w.notificationService.DispatchPending(ctx)
		if err != nil {
			logrus.WithError(err).Error("Failed to dispatch outbox")
			return
		}
		if claimed == 0 {
			return
		}
		logrus.WithField("claimed", claimed).Debug("Outbox batch dispatched")
	}
}
