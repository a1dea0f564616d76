package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ds124wfegd/ticket-booker/internal/clock"
	"github.com/ds124wfegd/ticket-booker/internal/database"
	"github.com/sirupsen/logrus"
)

type notificationService struct {
	outbox    database.OutboxRepository
	publisher NotificationPublisher
	clock     clock.Clock
	batchSize int
	retention time.Duration
	wake      chan struct{}
}

func NewNotificationService(
	outbox database.OutboxRepository,
	publisher NotificationPublisher,
	clk clock.Clock,
	batchSize int,
	retention time.Duration,
) NotificationService {
	return &notificationService{
		outbox:    outbox,
		publisher: publisher,
		clock:     clk,
		batchSize: batchSize,
		retention: retention,
		wake:      make(chan struct{}, 1),
	}
}

func (s *notificationService) Kick() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *notificationService) Wakeups() <-chan struct{} {
	return s.wake
}

// DispatchPending claims a batch of outbox messages, publishes them and
// returns how many were claimed. A claimed message is not offered again
// even when publishing fails.
func (s *notificationService) DispatchPending(ctx context.Context) (int, error) {
	msgs, err := s.outbox.ClaimPending(ctx, s.batchSize, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to claim outbox messages: %w", err)
	}

	failed := 0
	for _, msg := range msgs {
		if err := s.publisher.Publish(ctx, msg); err != nil {
			logrus.WithFields(logrus.Fields{
				"outbox_id": msg.ID,
				"key":       msg.Key,
				"type":      msg.Type,
			}).WithError(err).Error("Failed to publish notification")
			failed++
		}
	}
	if failed > 0 {
		logrus.WithFields(logrus.Fields{
			"claimed": len(msgs),
			"failed":  failed,
		}).Warn("Outbox batch dispatched with failures")
	}
	return len(msgs), nil
}

func (s *notificationService) PurgeDispatched(ctx context.Context) (int64, error) {
	n, err := s.outbox.DeleteDispatchedBefore(ctx, s.clock.Now().Add(-s.retention))
	if err != nil {
		return 0, fmt.Errorf("failed to purge outbox: %w", err)
	}
	return n, nil
}
