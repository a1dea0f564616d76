package scheduler

import (
	"context"
	"time"

	"github.com/ds124wfegd/ticket-booker/internal/service"
	"github.com/sirupsen/logrus"
)

// Scheduler periodically removes dispatched outbox messages past their
// retention.
type Scheduler struct {
	notificationService service.NotificationService
	interval            time.Duration
}

func NewScheduler(notificationService service.NotificationService, interval time.Duration) *Scheduler {
	return &Scheduler{
		notificationService: notificationService,
		interval:            interval,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			purged, err := s.notificationService.PurgeDispatched(ctx)
			if err != nil {
				logrus.WithError(err).Error("Error purging dispatched outbox messages")
				continue
			}
			if purged > 0 {
				logrus.WithField("purged", purged).Info("Purged dispatched outbox messages")
			}
		case <-ctx.Done():
			return
		}
	}
}
