package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ds124wfegd/ticket-booker/internal/database"
	"github.com/ds124wfegd/ticket-booker/internal/entity"
	"github.com/lib/pq"
)

const bookingColumns = `b.id, b.customer_id, b.status, b.total_price, b.is_cancelled, b.created_at, b.updated_at`

// organiserScope matches bookings holding at least one line on a tier of an
// event organised by $1.
const organiserScope = `EXISTS (
	SELECT 1 FROM sub_bookings s
	JOIN ticket_items t ON t.id = s.ticket_id
	JOIN events e ON e.id = t.event_id
	WHERE s.booking_id = b.id AND e.organiser_id = $1
)`

type bookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) database.BookingRepository {
	return &bookingRepository{db: db}
}

// Create stores the booking row and its lines in one transaction.
func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	return withTx(ctx, r.db, func(ctx context.Context) error {
		query := `
			INSERT INTO bookings (customer_id, status, total_price, is_cancelled, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`

		now := time.Now()
		err := conn(ctx, r.db).QueryRowContext(ctx, query,
			booking.CustomerID,
			booking.Status,
			booking.TotalPrice,
			booking.IsCancelled,
			now,
			now,
		).Scan(&booking.ID)
		if err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}

		query = `
			INSERT INTO sub_bookings (booking_id, ticket_id, count, unit_price)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`
		for i := range booking.Lines {
			line := &booking.Lines[i]
			line.BookingID = booking.ID
			err := conn(ctx, r.db).QueryRowContext(ctx, query,
				line.BookingID,
				line.TicketItemID,
				line.Quantity,
				line.UnitPrice,
			).Scan(&line.ID)
			if err != nil {
				return fmt.Errorf("failed to create sub booking: %w", err)
			}
		}

		booking.CreatedAt = now
		booking.UpdatedAt = now
		return nil
	})
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*entity.Booking, error) {
	return r.get(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = $1`, id)
}

func (r *bookingRepository) GetWithLock(ctx context.Context, id int64) (*entity.Booking, error) {
	return r.get(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = $1 FOR UPDATE`, id)
}

func (r *bookingRepository) get(ctx context.Context, query string, id int64) (*entity.Booking, error) {
	booking, err := scanBooking(conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrBookingNotFound
	}
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to get booking: %w", err))
	}

	if err := r.attachLines(ctx, []*entity.Booking{booking}); err != nil {
		return nil, err
	}
	return booking, nil
}

// UpdateStatus writes status and is_cancelled together.
func (r *bookingRepository) UpdateStatus(ctx context.Context, id int64, status entity.BookingStatus) error {
	query := `UPDATE bookings SET status = $1, is_cancelled = $2, updated_at = $3 WHERE id = $4`
	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		status,
		status == entity.BookingStatusCancelled,
		time.Now(),
		id,
	)
	if err != nil {
		return mapError(fmt.Errorf("failed to update booking status: %w", err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrBookingNotFound
	}
	return nil
}

func (r *bookingRepository) List(ctx context.Context, filter entity.BookingFilter) ([]*entity.Booking, error) {
	where, arg := scopeClause(filter)
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE ` + where + ` ORDER BY b.created_at DESC, b.id DESC`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}

	if err := r.attachLines(ctx, bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) Visible(ctx context.Context, id int64, filter entity.BookingFilter) (bool, error) {
	where, arg := scopeClause(filter)
	query := `SELECT EXISTS (SELECT 1 FROM bookings b WHERE b.id = $2 AND ` + where + `)`

	var visible bool
	if err := conn(ctx, r.db).QueryRowContext(ctx, query, arg, id).Scan(&visible); err != nil {
		return false, fmt.Errorf("failed to check booking visibility: %w", err)
	}
	return visible, nil
}

func (r *bookingRepository) CustomerEmailsByEvent(ctx context.Context, eventID int64) ([]string, error) {
	query := `
		SELECT DISTINCT u.email
		FROM bookings b
		JOIN users u ON u.id = b.customer_id
		JOIN sub_bookings s ON s.booking_id = b.id
		JOIN ticket_items t ON t.id = s.ticket_id
		WHERE t.event_id = $1 AND b.status <> 'CANCELLED'
		ORDER BY u.email
	`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query customer emails: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("failed to scan customer email: %w", err)
		}
		emails = append(emails, email)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customer emails: %w", err)
	}
	return emails, nil
}

func (r *bookingRepository) attachLines(ctx context.Context, bookings []*entity.Booking) error {
	if len(bookings) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(bookings))
	byID := make(map[int64]*entity.Booking, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.ID)
		byID[b.ID] = b
	}

	query := `
		SELECT id, booking_id, ticket_id, count, unit_price
		FROM sub_bookings
		WHERE booking_id = ANY($1)
		ORDER BY booking_id, id
	`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query sub bookings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line entity.SubBookingLine
		if err := rows.Scan(&line.ID, &line.BookingID, &line.TicketItemID, &line.Quantity, &line.UnitPrice); err != nil {
			return fmt.Errorf("failed to scan sub booking: %w", err)
		}
		if b, ok := byID[line.BookingID]; ok {
			b.Lines = append(b.Lines, line)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating sub bookings: %w", err)
	}
	return nil
}

func scopeClause(filter entity.BookingFilter) (string, int64) {
	if filter.OrganiserID != 0 {
		return organiserScope, filter.OrganiserID
	}
	return `b.customer_id = $1`, filter.CustomerID
}

func scanBooking(row rowScanner) (*entity.Booking, error) {
	var booking entity.Booking
	err := row.Scan(
		&booking.ID,
		&booking.CustomerID,
		&booking.Status,
		&booking.TotalPrice,
		&booking.IsCancelled,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}
