package service

import (
	"context"

	"github.com/ds124wfegd/ticket-booker/internal/database"
	"github.com/ds124wfegd/ticket-booker/internal/entity"
)

// Repositories bundles the storage contracts the services depend on.
type Repositories struct {
	Tx        database.TxManager
	Users     database.UserRepository
	Events    database.EventRepository
	Inventory database.InventoryRepository
	Bookings  database.BookingRepository
	Outbox    database.OutboxRepository
}

// AccessService resolves callers and scopes what they may see.
type AccessService interface {
	Resolve(ctx context.Context, userID int64) entity.CallerIdentity
	BookingScope(caller entity.CallerIdentity) (entity.BookingFilter, error)
}

type BookingService interface {
	CreateBooking(ctx context.Context, caller entity.CallerIdentity, req *CreateBookingRequest) (*entity.Booking, error)
	GetBooking(ctx context.Context, caller entity.CallerIdentity, id int64) (*entity.Booking, error)
	ListBookings(ctx context.Context, caller entity.CallerIdentity) ([]*entity.Booking, error)
}

type CancellationService interface {
	CancelBooking(ctx context.Context, caller entity.CallerIdentity, bookingID int64) error
}

type EventService interface {
	CreateEvent(ctx context.Context, caller entity.CallerIdentity, req *EventRequest) (*entity.Event, error)
	GetEvent(ctx context.Context, id int64) (*entity.Event, error)
	GetAllEvents(ctx context.Context) ([]*entity.Event, error)
	UpdateEvent(ctx context.Context, caller entity.CallerIdentity, id int64, req *EventRequest) (*entity.Event, error)
	DeleteEvent(ctx context.Context, caller entity.CallerIdentity, id int64) error
}

type TicketService interface {
	CreateTicket(ctx context.Context, caller entity.CallerIdentity, req *CreateTicketRequest) (*entity.InventoryItem, error)
	GetTicket(ctx context.Context, id int64) (*entity.InventoryItem, error)
	GetEventTickets(ctx context.Context, eventID int64) ([]*entity.InventoryItem, error)
	UpdateTicket(ctx context.Context, caller entity.CallerIdentity, id int64, req *UpdateTicketRequest) (*entity.InventoryItem, error)
}

// NotificationService drains the outbox to a NotificationPublisher.
type NotificationService interface {
	Kicker
	DispatchPending(ctx context.Context) (int, error)
	PurgeDispatched(ctx context.Context) (int64, error)
	Wakeups() <-chan struct{}
}

// Kicker wakes the outbox dispatcher without blocking.
type Kicker interface {
	Kick()
}

// NotificationPublisher hands a claimed outbox message to a transport.
type NotificationPublisher interface {
	Publish(ctx context.Context, msg *entity.OutboxMessage) error
}

// LineRequest fields are pointers so that a missing value can be told
// apart from zero.
type LineRequest struct {
	TicketID *int64 `json:"ticket"`
	Count    *int   `json:"count"`
}

type CreateBookingRequest struct {
	Lines []LineRequest `json:"lines"`
}

type EventRequest struct {
	Name        string            `json:"event_name" binding:"required,max=255"`
	Description string            `json:"event_description" binding:"max=1000"`
	DateTime    entity.CustomTime `json:"event_date_time"`
	Venue       string            `json:"venue" binding:"required,max=255"`
}

type CreateTicketRequest struct {
	EventID        int64           `json:"event" binding:"required"`
	Kind           entity.TierKind `json:"ticket_type" binding:"required"`
	TotalAllotment int             `json:"total_allotment" binding:"gte=0"`
	Availability   *int            `json:"availability"`
	UnitPrice      int64           `json:"price" binding:"gte=0"`
}

type UpdateTicketRequest struct {
	Kind      *entity.TierKind `json:"ticket_type,omitempty"`
	UnitPrice *int64           `json:"price,omitempty" binding:"omitempty,gte=0"`
}

// UserService registers the customers and organisers the access policy
// resolves. Authentication is handled elsewhere.
type UserService interface {
	RegisterUser(ctx context.Context, req *RegisterUserRequest) (*entity.User, error)
	GetUser(ctx context.Context, id int64) (*entity.User, error)
}

type RegisterUserRequest struct {
	Email string      `json:"email" binding:"required,email"`
	Name  string      `json:"name" binding:"required,min=2,max=100"`
	Role  entity.Role `json:"role" binding:"required,oneof=customer organiser"`
}
