package entity

import (
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusBooked    BookingStatus = "BOOKED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Booking is a customer's reservation over one or more ticket tiers.
// Status and IsCancelled are always written together.
type Booking struct {
	ID          int64            `json:"id" db:"id"`
	CustomerID  int64            `json:"customer" db:"customer_id"`
	Status      BookingStatus    `json:"status" db:"status"`
	TotalPrice  int64            `json:"total_price" db:"total_price"`
	IsCancelled bool             `json:"is_cancelled" db:"is_cancelled"`
	Lines       []SubBookingLine `json:"sub_bookings"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" db:"updated_at"`
}

// SubBookingLine is one (tier, quantity) pair owned by exactly one booking.
// UnitPrice is captured at reservation time.
type SubBookingLine struct {
	ID           int64 `json:"id" db:"id"`
	BookingID    int64 `json:"-" db:"booking_id"`
	TicketItemID int64 `json:"ticket" db:"ticket_id"`
	Quantity     int   `json:"count" db:"count"`
	UnitPrice    int64 `json:"price" db:"unit_price"`
}

func (b *Booking) SetStatus(status BookingStatus) {
	b.Status = status
	b.IsCancelled = status == BookingStatusCancelled
}

func (b *Booking) TicketItemIDs() []int64 {
	ids := make([]int64, 0, len(b.Lines))
	for _, l := range b.Lines {
		ids = append(ids, l.TicketItemID)
	}
	return ids
}

// BookingFilter scopes booking listings. Exactly one field is set.
type BookingFilter struct {
	CustomerID  int64
	OrganiserID int64
}
