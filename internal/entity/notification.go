package entity

import (
	"encoding/json"
	"fmt"
)

// Email is a rendered notification for a single recipient.
type Email struct {
	To   string
	Body string
}

// RenderEmails turns an outbox message into the emails it stands for.
func RenderEmails(msg *OutboxMessage) ([]Email, error) {
	switch msg.Type {
	case NotificationBookingConfirmed:
		var p BookingConfirmedPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, fmt.Errorf("invalid booking_confirmed payload: %w", err)
		}
		return []Email{{
			To:   p.CustomerEmail,
			Body: fmt.Sprintf("Sending email confirmation for booking %d, tickets %v to %s", p.BookingID, p.TicketItemIDs, p.CustomerEmail),
		}}, nil

	case NotificationEventUpdated:
		var p EventUpdatedPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, fmt.Errorf("invalid event_updated payload: %w", err)
		}
		emails := make([]Email, 0, len(p.CustomerEmails))
		for _, to := range p.CustomerEmails {
			emails = append(emails, Email{
				To: to,
				Body: fmt.Sprintf("The event change has been informed to %s as: %s, %s, %s",
					to, p.Event.Name, p.Event.Venue, p.Event.Time),
			})
		}
		return emails, nil
	}
	return nil, fmt.Errorf("unknown notification type %q", msg.Type)
}
