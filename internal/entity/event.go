package entity

import (
	"time"
)

type Event struct {
	ID          int64      `json:"id" db:"id"`
	Name        string     `json:"event_name" db:"event_name"`
	Description string     `json:"event_description" db:"event_description"`
	DateTime    CustomTime `json:"event_date_time" db:"event_date_time"`
	Venue       string     `json:"venue" db:"venue"`
	OrganiserID int64      `json:"event_organiser" db:"organiser_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// EventSummary is the payload sent to customers when an event changes.
type EventSummary struct {
	Name  string `json:"event_name"`
	Venue string `json:"event_venue"`
	Time  string `json:"event_time"`
}

func (e *Event) Summary() EventSummary {
	return EventSummary{
		Name:  e.Name,
		Venue: e.Venue,
		Time:  e.DateTime.Format(customTimeLayout),
	}
}
