package memory

import (
	"context"
	"sort"
	"time"

	"github.com/ds124wfegd/ticket-booker/internal/entity"
)

type userRepository struct{ s *Store }

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return r.s.write(ctx, func(tx *txState) error {
		for _, u := range r.s.users {
			if u.Email == user.Email {
				return entity.ErrEmailTaken
			}
		}
		user.ID = r.s.nextID(tx, "users")
		if user.CreatedAt.IsZero() {
			user.CreatedAt = time.Now()
		}
		stored := *user
		r.s.users[user.ID] = &stored
		tx.onRollback(func() { delete(r.s.users, stored.ID) })
		return nil
	})
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	var user *entity.User
	r.s.read(ctx, func() {
		if u, ok := r.s.users[id]; ok {
			cp := *u
			user = &cp
		}
	})
	if user == nil {
		return nil, entity.ErrUserNotFound
	}
	return user, nil
}

type eventRepository struct{ s *Store }

func (r *eventRepository) Create(ctx context.Context, event *entity.Event) error {
	return r.s.write(ctx, func(tx *txState) error {
		now := time.Now()
		event.ID = r.s.nextID(tx, "events")
		event.CreatedAt, event.UpdatedAt = now, now
		stored := *event
		r.s.events[event.ID] = &stored
		tx.onRollback(func() { delete(r.s.events, stored.ID) })
		return nil
	})
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*entity.Event, error) {
	var event *entity.Event
	r.s.read(ctx, func() {
		if e, ok := r.s.events[id]; ok {
			cp := *e
			event = &cp
		}
	})
	if event == nil {
		return nil, entity.ErrEventNotFound
	}
	return event, nil
}

func (r *eventRepository) GetAll(ctx context.Context) ([]*entity.Event, error) {
	var events []*entity.Event
	r.s.read(ctx, func() {
		for _, e := range r.s.events {
			cp := *e
			events = append(events, &cp)
		}
	})
	sort.Slice(events, func(i, j int) bool {
		if events[i].DateTime.Equal(events[j].DateTime.Time) {
			return events[i].ID < events[j].ID
		}
		return events[i].DateTime.Before(events[j].DateTime.Time)
	})
	return events, nil
}

func (r *eventRepository) Update(ctx context.Context, event *entity.Event) error {
	return r.s.write(ctx, func(tx *txState) error {
		current, ok := r.s.events[event.ID]
		if !ok {
			return entity.ErrEventNotFound
		}
		prev := *current
		current.Name = event.Name
		current.Description = event.Description
		current.DateTime = event.DateTime
		current.Venue = event.Venue
		current.UpdatedAt = time.Now()
		event.UpdatedAt = current.UpdatedAt
		tx.onRollback(func() { *current = prev })
		return nil
	})
}

func (r *eventRepository) Delete(ctx context.Context, id int64) error {
	return r.s.write(ctx, func(tx *txState) error {
		event, ok := r.s.events[id]
		if !ok {
			return entity.ErrEventNotFound
		}
		for _, b := range r.s.bookings {
			for _, l := range b.Lines {
				if item, ok := r.s.items[l.TicketItemID]; ok && item.EventID == id {
					return entity.ErrEventHasBookings
				}
			}
		}

		delete(r.s.events, id)
		tx.onRollback(func() { r.s.events[id] = event })
		for itemID, item := range r.s.items {
			if item.EventID != id {
				continue
			}
			itemID, item := itemID, item
			delete(r.s.items, itemID)
			tx.onRollback(func() { r.s.items[itemID] = item })
		}
		return nil
	})
}

type inventoryRepository struct{ s *Store }

func (r *inventoryRepository) Create(ctx context.Context, item *entity.InventoryItem) error {
	return r.s.write(ctx, func(tx *txState) error {
		if _, ok := r.s.events[item.EventID]; !ok {
			return entity.ErrEventNotFound
		}
		now := time.Now()
		item.ID = r.s.nextID(tx, "ticket_items")
		item.CreatedAt, item.UpdatedAt = now, now
		stored := *item
		r.s.items[item.ID] = &stored
		tx.onRollback(func() { delete(r.s.items, stored.ID) })
		return nil
	})
}

func (r *inventoryRepository) GetByID(ctx context.Context, id int64) (*entity.InventoryItem, error) {
	var item *entity.InventoryItem
	r.s.read(ctx, func() {
		if i, ok := r.s.items[id]; ok {
			cp := *i
			item = &cp
		}
	})
	if item == nil {
		return nil, entity.ErrItemNotFound
	}
	return item, nil
}

func (r *inventoryRepository) GetByEvent(ctx context.Context, eventID int64) ([]*entity.InventoryItem, error) {
	var items []*entity.InventoryItem
	r.s.read(ctx, func() {
		for _, i := range r.s.items {
			if i.EventID == eventID {
				cp := *i
				items = append(items, &cp)
			}
		}
	})
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r *inventoryRepository) Update(ctx context.Context, item *entity.InventoryItem) error {
	return r.s.write(ctx, func(tx *txState) error {
		current, ok := r.s.items[item.ID]
		if !ok {
			return entity.ErrItemNotFound
		}
		prev := *current
		current.Kind = item.Kind
		current.UnitPrice = item.UnitPrice
		current.UpdatedAt = time.Now()
		item.UpdatedAt = current.UpdatedAt
		tx.onRollback(func() { *current = prev })
		return nil
	})
}

func (r *inventoryRepository) Reserve(ctx context.Context, id int64, quantity int) (*entity.InventoryItem, error) {
	return r.adjust(ctx, id, func(item *entity.InventoryItem) error {
		if err := item.CheckReserve(quantity); err != nil {
			return err
		}
		item.Availability -= quantity
		return nil
	})
}

func (r *inventoryRepository) Release(ctx context.Context, id int64, quantity int) (*entity.InventoryItem, error) {
	return r.adjust(ctx, id, func(item *entity.InventoryItem) error {
		if err := item.CheckRelease(quantity); err != nil {
			return err
		}
		item.Availability += quantity
		return nil
	})
}

func (r *inventoryRepository) adjust(ctx context.Context, id int64, change func(item *entity.InventoryItem) error) (*entity.InventoryItem, error) {
	var result entity.InventoryItem
	err := r.s.write(ctx, func(tx *txState) error {
		current, ok := r.s.items[id]
		if !ok {
			return entity.ErrItemNotFound
		}
		prev := *current
		if err := change(current); err != nil {
			return err
		}
		current.UpdatedAt = time.Now()
		tx.onRollback(func() { *current = prev })
		result = *current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

type bookingRepository struct{ s *Store }

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	return r.s.write(ctx, func(tx *txState) error {
		now := time.Now()
		booking.ID = r.s.nextID(tx, "bookings")
		booking.CreatedAt, booking.UpdatedAt = now, now
		for i := range booking.Lines {
			booking.Lines[i].ID = r.s.nextID(tx, "sub_bookings")
			booking.Lines[i].BookingID = booking.ID
		}
		stored := copyBooking(booking)
		r.s.bookings[booking.ID] = stored
		tx.onRollback(func() { delete(r.s.bookings, stored.ID) })
		return nil
	})
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*entity.Booking, error) {
	var booking *entity.Booking
	r.s.read(ctx, func() {
		if b, ok := r.s.bookings[id]; ok {
			booking = copyBooking(b)
		}
	})
	if booking == nil {
		return nil, entity.ErrBookingNotFound
	}
	return booking, nil
}

// GetWithLock relies on the transaction mutex for exclusion.
func (r *bookingRepository) GetWithLock(ctx context.Context, id int64) (*entity.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id int64, status entity.BookingStatus) error {
	return r.s.write(ctx, func(tx *txState) error {
		current, ok := r.s.bookings[id]
		if !ok {
			return entity.ErrBookingNotFound
		}
		prevStatus, prevCancelled, prevUpdated := current.Status, current.IsCancelled, current.UpdatedAt
		current.SetStatus(status)
		current.UpdatedAt = time.Now()
		tx.onRollback(func() {
			current.Status, current.IsCancelled, current.UpdatedAt = prevStatus, prevCancelled, prevUpdated
		})
		return nil
	})
}

func (r *bookingRepository) List(ctx context.Context, filter entity.BookingFilter) ([]*entity.Booking, error) {
	var bookings []*entity.Booking
	r.s.read(ctx, func() {
		for _, b := range r.s.bookings {
			if r.inScope(b, filter) {
				bookings = append(bookings, copyBooking(b))
			}
		}
	})
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].ID > bookings[j].ID })
	return bookings, nil
}

func (r *bookingRepository) Visible(ctx context.Context, id int64, filter entity.BookingFilter) (bool, error) {
	var visible bool
	r.s.read(ctx, func() {
		if b, ok := r.s.bookings[id]; ok {
			visible = r.inScope(b, filter)
		}
	})
	return visible, nil
}

func (r *bookingRepository) CustomerEmailsByEvent(ctx context.Context, eventID int64) ([]string, error) {
	seen := make(map[string]struct{})
	r.s.read(ctx, func() {
		for _, b := range r.s.bookings {
			if b.Status == entity.BookingStatusCancelled || !r.touchesEvent(b, eventID) {
				continue
			}
			if u, ok := r.s.users[b.CustomerID]; ok {
				seen[u.Email] = struct{}{}
			}
		}
	})

	emails := make([]string, 0, len(seen))
	for email := range seen {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	return emails, nil
}

// inScope and touchesEvent must be called with mu held.
func (r *bookingRepository) inScope(b *entity.Booking, filter entity.BookingFilter) bool {
	if filter.OrganiserID != 0 {
		for _, l := range b.Lines {
			item, ok := r.s.items[l.TicketItemID]
			if !ok {
				continue
			}
			if event, ok := r.s.events[item.EventID]; ok && event.OrganiserID == filter.OrganiserID {
				return true
			}
		}
		return false
	}
	return b.CustomerID == filter.CustomerID
}

func (r *bookingRepository) touchesEvent(b *entity.Booking, eventID int64) bool {
	for _, l := range b.Lines {
		if item, ok := r.s.items[l.TicketItemID]; ok && item.EventID == eventID {
			return true
		}
	}
	return false
}

func copyBooking(b *entity.Booking) *entity.Booking {
	cp := *b
	cp.Lines = append([]entity.SubBookingLine(nil), b.Lines...)
	return &cp
}

type outboxRepository struct{ s *Store }

func (r *outboxRepository) Enqueue(ctx context.Context, msg *entity.OutboxMessage) error {
	return r.s.write(ctx, func(tx *txState) error {
		msg.ID = r.s.nextID(tx, "outbox")
		if msg.CreatedAt.IsZero() {
			msg.CreatedAt = time.Now()
		}
		stored := *msg
		stored.Payload = append([]byte(nil), msg.Payload...)
		r.s.outbox[msg.ID] = &stored
		tx.onRollback(func() { delete(r.s.outbox, stored.ID) })
		return nil
	})
}

func (r *outboxRepository) ClaimPending(ctx context.Context, limit int, now time.Time) ([]*entity.OutboxMessage, error) {
	var claimed []*entity.OutboxMessage
	err := r.s.write(ctx, func(tx *txState) error {
		var pending []*entity.OutboxMessage
		for _, m := range r.s.outbox {
			if m.DispatchedAt == nil {
				pending = append(pending, m)
			}
		}
		sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
		if len(pending) > limit {
			pending = pending[:limit]
		}

		for _, m := range pending {
			m := m
			at := now
			m.DispatchedAt = &at
			tx.onRollback(func() { m.DispatchedAt = nil })
			cp := *m
			claimed = append(claimed, &cp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *outboxRepository) DeleteDispatchedBefore(ctx context.Context, before time.Time) (int64, error) {
	var deleted int64
	err := r.s.write(ctx, func(tx *txState) error {
		for id, m := range r.s.outbox {
			if m.DispatchedAt != nil && m.DispatchedAt.Before(before) {
				id, m := id, m
				delete(r.s.outbox, id)
				tx.onRollback(func() { r.s.outbox[id] = m })
				deleted++
			}
		}
		return nil
	})
	return deleted, err
}
