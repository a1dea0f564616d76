package queue

import (
	"context"
	"fmt"

	"github.com/ds124wfegd/ticket-booker/internal/entity"
	"github.com/sirupsen/logrus"
)

// EmailSender delivers one rendered notification.
type EmailSender interface {
	Send(ctx context.Context, email entity.Email) error
}

// LogEmailSender writes emails to the log instead of delivering them.
type LogEmailSender struct{}

func (LogEmailSender) Send(_ context.Context, email entity.Email) error {
	logrus.WithField("to", email.To).Info(email.Body)
	return nil
}

// TaskHandler turns notification tasks into emails.
type TaskHandler struct {
	sender EmailSender
}

func NewTaskHandler(sender EmailSender) *TaskHandler {
	if sender == nil {
		sender = LogEmailSender{}
	}
	return &TaskHandler{sender: sender}
}

func (h *TaskHandler) HandleTask(task *Task) error {
	logrus.WithFields(logrus.Fields{
		"task_id":   task.ID,
		"task_type": task.Type,
		"attempt":   task.Attempts,
	}).Debug("Handling task")

	switch task.Type {
	case TaskTypeBookingConfirmed, TaskTypeEventUpdated:
	default:
		return Permanent(fmt.Errorf("unknown task type: %s", task.Type))
	}

	emails, err := entity.RenderEmails(&entity.OutboxMessage{
		Key:     task.Key,
		Type:    entity.NotificationType(task.Type),
		Payload: task.Payload,
	})
	if err != nil {
		return Permanent(err)
	}

	ctx := context.Background()
	for _, email := range emails {
		if err := h.sender.Send(ctx, email); err != nil {
			return fmt.Errorf("failed to send email to %s: %w", email.To, err)
		}
	}
	return nil
}
