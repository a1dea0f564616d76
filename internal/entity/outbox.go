package entity

import (
	"encoding/json"
	"time"
)

type NotificationType string

const (
	NotificationBookingConfirmed NotificationType = "booking_confirmed"
	NotificationEventUpdated     NotificationType = "event_updated"
)

// OutboxMessage is a notification intent stored in the same transaction as
// the state change it describes. DispatchedAt is set once it is handed to
// a transport.
type OutboxMessage struct {
	ID           int64            `json:"id" db:"id"`
	Key          string           `json:"key" db:"key"`
	Type         NotificationType `json:"type" db:"type"`
	Payload      json.RawMessage  `json:"payload" db:"payload"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	DispatchedAt *time.Time       `json:"dispatched_at,omitempty" db:"dispatched_at"`
}

type BookingConfirmedPayload struct {
	BookingID     int64   `json:"booking_id"`
	TicketItemIDs []int64 `json:"ticket_ids"`
	CustomerEmail string  `json:"customer_email"`
}

type EventUpdatedPayload struct {
	EventID        int64        `json:"event_id"`
	Event          EventSummary `json:"event"`
	CustomerEmails []string     `json:"customer_emails"`
}
