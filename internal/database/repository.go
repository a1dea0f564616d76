// Package database declares the storage contracts shared by the postgres
// and in-memory backends.
package database

import (
	"context"
	"time"

	"github.com/ds124wfegd/ticket-booker/internal/entity"
)

// TxManager runs fn inside one transaction. Repository calls made with the
// context passed to fn join that transaction; a non-nil error from fn rolls
// everything back. Nested calls reuse the outer transaction.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type InventoryRepository interface {
	Create(ctx context.Context, item *entity.InventoryItem) error
	GetByID(ctx context.Context, id int64) (*entity.InventoryItem, error)
	GetByEvent(ctx context.Context, eventID int64) ([]*entity.InventoryItem, error)
	// Update changes the descriptive fields (kind, price) only.
	Update(ctx context.Context, item *entity.InventoryItem) error

	// Reserve locks the item, checks availability and decrements it.
	// It returns the item as it was priced at reservation time.
	Reserve(ctx context.Context, id int64, quantity int) (*entity.InventoryItem, error)
	// Release locks the item and gives quantity back to it.
	Release(ctx context.Context, id int64, quantity int) (*entity.InventoryItem, error)
}

type BookingRepository interface {
	// Create stores the booking and its lines, filling in IDs.
	Create(ctx context.Context, booking *entity.Booking) error
	GetByID(ctx context.Context, id int64) (*entity.Booking, error)
	// GetWithLock reads the booking holding a row lock until the
	// surrounding transaction ends.
	GetWithLock(ctx context.Context, id int64) (*entity.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status entity.BookingStatus) error
	List(ctx context.Context, filter entity.BookingFilter) ([]*entity.Booking, error)
	Visible(ctx context.Context, id int64, filter entity.BookingFilter) (bool, error)
	CustomerEmailsByEvent(ctx context.Context, eventID int64) ([]string, error)
}

type EventRepository interface {
	Create(ctx context.Context, event *entity.Event) error
	GetByID(ctx context.Context, id int64) (*entity.Event, error)
	GetAll(ctx context.Context) ([]*entity.Event, error)
	Update(ctx context.Context, event *entity.Event) error
	// Delete removes the event together with its inventory items.
	Delete(ctx context.Context, id int64) error
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, msg *entity.OutboxMessage) error
	// ClaimPending marks up to limit undispatched messages as dispatched
	// and returns them. A claimed message is never returned again.
	ClaimPending(ctx context.Context, limit int, now time.Time) ([]*entity.OutboxMessage, error)
	DeleteDispatchedBefore(ctx context.Context, before time.Time) (int64, error)
}
