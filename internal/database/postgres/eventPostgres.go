package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ds124wfegd/ticket-booker/internal/database"
	"github.com/ds124wfegd/ticket-booker/internal/entity"
)

type eventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) database.EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, event *entity.Event) error {
	query := `
		INSERT INTO events (event_name, event_description, event_date_time, venue, organiser_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	now := time.Now()
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		event.Name,
		event.Description,
		event.DateTime,
		event.Venue,
		event.OrganiserID,
		now,
		now,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	event.CreatedAt = now
	event.UpdatedAt = now
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*entity.Event, error) {
	query := `
		SELECT id, event_name, event_description, event_date_time, venue, organiser_id, created_at, updated_at
		FROM events
		WHERE id = $1
	`

	event, err := scanEvent(conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

func (r *eventRepository) GetAll(ctx context.Context) ([]*entity.Event, error) {
	query := `
		SELECT id, event_name, event_description, event_date_time, venue, organiser_id, created_at, updated_at
		FROM events
		ORDER BY event_date_time
	`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []*entity.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

func (r *eventRepository) Update(ctx context.Context, event *entity.Event) error {
	query := `
		UPDATE events
		SET event_name = $1, event_description = $2, event_date_time = $3, venue = $4, updated_at = $5
		WHERE id = $6
	`

	now := time.Now()
	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		event.Name,
		event.Description,
		event.DateTime,
		event.Venue,
		now,
		event.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrEventNotFound
	}

	event.UpdatedAt = now
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.db, func(ctx context.Context) error {
		// lock the tiers first so no booking can land between the count and
		// the delete; bookings keep their lines, so an event with booked tiers stays
		if _, err := conn(ctx, r.db).ExecContext(ctx, `SELECT id FROM ticket_items WHERE event_id = $1 FOR UPDATE`, id); err != nil {
			return mapError(fmt.Errorf("failed to lock event tiers: %w", err))
		}

		var bookingCount int
		query := `
			SELECT COUNT(*)
			FROM sub_bookings s
			JOIN ticket_items t ON t.id = s.ticket_id
			WHERE t.event_id = $1
		`
		if err := conn(ctx, r.db).QueryRowContext(ctx, query, id).Scan(&bookingCount); err != nil {
			return fmt.Errorf("failed to check event bookings: %w", err)
		}
		if bookingCount > 0 {
			return entity.ErrEventHasBookings
		}

		result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
		if isForeignKeyViolation(err) {
			return entity.ErrEventHasBookings
		}
		if err != nil {
			return fmt.Errorf("failed to delete event: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return entity.ErrEventNotFound
		}
		return nil
	})
}

func scanEvent(row rowScanner) (*entity.Event, error) {
	var event entity.Event
	err := row.Scan(
		&event.ID,
		&event.Name,
		&event.Description,
		&event.DateTime,
		&event.Venue,
		&event.OrganiserID,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}
