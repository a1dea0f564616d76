package service

import (
	"context"
	"fmt"

	"github.com/ds124wfegd/ticket-booker/internal/entity"
	"github.com/sirupsen/logrus"
)

// LogPublisher renders notifications and writes them to the log.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, msg *entity.OutboxMessage) error {
	emails, err := entity.RenderEmails(msg)
	if err != nil {
		return err
	}
	for _, email := range emails {
		logrus.WithFields(logrus.Fields{
			"key": msg.Key,
			"to":  email.To,
		}).Info(email.Body)
	}
	return nil
}

// MessageSender is a broker client able to send one keyed message.
type MessageSender interface {
	Send(ctx context.Context, key, msgType string, body []byte) error
}

// BrokerPublisher forwards the raw payload to a message broker. Consumers
// render the emails.
type BrokerPublisher struct {
	sender MessageSender
}

func NewBrokerPublisher(sender MessageSender) *BrokerPublisher {
	return &BrokerPublisher{sender: sender}
}

func (p *BrokerPublisher) Publish(ctx context.Context, msg *entity.OutboxMessage) error {
	if err := p.sender.Send(ctx, msg.Key, string(msg.Type), msg.Payload); err != nil {
		return fmt.Errorf("failed to publish %s: %w", msg.Key, err)
	}
	return nil
}
