// Package memory is an in-process implementation of the database
// contracts. Transactions are serialized on a store-wide mutex and rolled
// back by replaying an undo journal.
package memory

import (
	"context"
	"sync"

	"github.com/ds124wfegd/ticket-booker/internal/database"
	"github.com/ds124wfegd/ticket-booker/internal/entity"
)

type txKey struct{}

type txState struct {
	undo []func()
}

func (t *txState) onRollback(fn func()) {
	t.undo = append(t.undo, fn)
}

type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	users    map[int64]*entity.User
	events   map[int64]*entity.Event
	items    map[int64]*entity.InventoryItem
	bookings map[int64]*entity.Booking
	outbox   map[int64]*entity.OutboxMessage

	lastID map[string]int64
}

func NewStore() *Store {
	return &Store{
		users:    make(map[int64]*entity.User),
		events:   make(map[int64]*entity.Event),
		items:    make(map[int64]*entity.InventoryItem),
		bookings: make(map[int64]*entity.Booking),
		outbox:   make(map[int64]*entity.OutboxMessage),
		lastID:   make(map[string]int64),
	}
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*txState); ok {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	st := &txState{}
	if err := fn(context.WithValue(ctx, txKey{}, st)); err != nil {
		s.mu.Lock()
		for i := len(st.undo) - 1; i >= 0; i-- {
			st.undo[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// write runs op under the data lock, joining the caller's transaction or
// opening a new one.
func (s *Store) write(ctx context.Context, op func(tx *txState) error) error {
	return s.WithTx(ctx, func(ctx context.Context) error {
		tx := ctx.Value(txKey{}).(*txState)
		s.mu.Lock()
		defer s.mu.Unlock()
		return op(tx)
	})
}

// read outside a transaction waits for any open one to finish, so
// uncommitted writes are never observed.
func (s *Store) read(ctx context.Context, fn func()) {
	if _, ok := ctx.Value(txKey{}).(*txState); !ok {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

// nextID must be called with mu held; the undo restores the sequence.
func (s *Store) nextID(tx *txState, table string) int64 {
	prev := s.lastID[table]
	s.lastID[table] = prev + 1
	tx.onRollback(func() { s.lastID[table] = prev })
	return prev + 1
}

func (s *Store) TxManager() database.TxManager           { return s }
func (s *Store) Users() database.UserRepository          { return &userRepository{s: s} }
func (s *Store) Events() database.EventRepository        { return &eventRepository{s: s} }
func (s *Store) Inventory() database.InventoryRepository { return &inventoryRepository{s: s} }
func (s *Store) Bookings() database.BookingRepository    { return &bookingRepository{s: s} }
func (s *Store) Outbox() database.OutboxRepository       { return &outboxRepository{s: s} }
