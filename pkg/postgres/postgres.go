package postgres

import (
	"database/sql"
	"fmt"

	"github.com/ds124wfegd/ticket-booker/config"
	"github.com/sirupsen/logrus"

	_ "github.com/lib/pq"
)

func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Info("Successfully connected to PostgreSQL")
	return db, nil
}

// Migrations is the idempotent schema of the booking service, applied in order.
var Migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		role VARCHAR(20) NOT NULL CHECK (role IN ('customer', 'organiser')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS events (
		id BIGSERIAL PRIMARY KEY,
		event_name VARCHAR(128) NOT NULL,
		event_description TEXT NOT NULL DEFAULT '',
		event_date_time TIMESTAMPTZ NOT NULL,
		venue VARCHAR(512) NOT NULL DEFAULT '',
		organiser_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS ticket_items (
		id BIGSERIAL PRIMARY KEY,
		event_id BIGINT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		ticket_type VARCHAR(51) NOT NULL,
		total_allotment INTEGER NOT NULL CHECK (total_allotment >= 0),
		availability INTEGER NOT NULL CHECK (availability >= 0 AND availability <= total_allotment),
		price BIGINT NOT NULL CHECK (price >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id BIGSERIAL PRIMARY KEY,
		customer_id BIGINT NOT NULL REFERENCES users(id),
		status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
		total_price BIGINT NOT NULL DEFAULT 0,
		is_cancelled BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK (is_cancelled = (status = 'CANCELLED'))
	)`,

	`CREATE TABLE IF NOT EXISTS sub_bookings (
		id BIGSERIAL PRIMARY KEY,
		booking_id BIGINT NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
		ticket_id BIGINT NOT NULL REFERENCES ticket_items(id),
		count INTEGER NOT NULL CHECK (count > 0),
		unit_price BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS outbox (
		id BIGSERIAL PRIMARY KEY,
		key VARCHAR(64) UNIQUE NOT NULL,
		type VARCHAR(50) NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		dispatched_at TIMESTAMPTZ
	)`,

	// Indexes
	`CREATE INDEX IF NOT EXISTS idx_events_organiser_id ON events(organiser_id)`,
	`CREATE INDEX IF NOT EXISTS idx_ticket_items_event_id ON ticket_items(event_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_customer_id ON bookings(customer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sub_bookings_booking_id ON sub_bookings(booking_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sub_bookings_ticket_id ON sub_bookings(ticket_id)`,
	`CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(id) WHERE dispatched_at IS NULL`,
}

func RunMigrations(db *sql.DB) error {
	for _, migration := range Migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	logrus.Info("Database migrations completed successfully")
	return nil
}
