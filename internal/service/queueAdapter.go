package service

import (
	"context"

	"github.com/ds124wfegd/ticket-booker/internal/entity"
	"github.com/ds124wfegd/ticket-booker/pkg/queue"
)

// QueueAdapter publishes outbox messages as queue tasks.
type QueueAdapter struct {
	queue queue.Queue
}

func NewQueueAdapter(q queue.Queue) *QueueAdapter {
	return &QueueAdapter{queue: q}
}

func (a *QueueAdapter) Publish(ctx context.Context, msg *entity.OutboxMessage) error {
	return a.queue.Publish(ctx, &queue.Task{
		ID:        msg.Key,
		Type:      queue.TaskType(msg.Type),
		Key:       msg.Key,
		Payload:   msg.Payload,
		CreatedAt: msg.CreatedAt,
	})
}
