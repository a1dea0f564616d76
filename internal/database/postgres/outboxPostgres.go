package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/ds124wfegd/ticket-booker/internal/database"
	"github.com/ds124wfegd/ticket-booker/internal/entity"
)

type outboxRepository struct {
	db *sql.DB
}

func NewOutboxRepository(db *sql.DB) database.OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) Enqueue(ctx context.Context, msg *entity.OutboxMessage) error {
	query := `
		INSERT INTO outbox (key, type, payload, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		msg.Key,
		msg.Type,
		[]byte(msg.Payload),
		msg.CreatedAt,
	).Scan(&msg.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("outbox message %s already enqueued: %w", msg.Key, err)
		}
		return fmt.Errorf("failed to enqueue outbox message: %w", err)
	}
	return nil
}

// ClaimPending skips rows locked by a concurrent dispatcher.
func (r *outboxRepository) ClaimPending(ctx context.Context, limit int, now time.Time) ([]*entity.OutboxMessage, error) {
	query := `
		UPDATE outbox SET dispatched_at = $1
		WHERE id IN (
			SELECT id FROM outbox
			WHERE dispatched_at IS NULL
			ORDER BY id
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, key, type, payload, created_at, dispatched_at
	`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim outbox messages: %w", err)
	}
	defer rows.Close()

	var messages []*entity.OutboxMessage
	for rows.Next() {
		var (
			msg          entity.OutboxMessage
			payload      []byte
			dispatchedAt sql.NullTime
		)
		if err := rows.Scan(&msg.ID, &msg.Key, &msg.Type, &payload, &msg.CreatedAt, &dispatchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}
		msg.Payload = payload
		if dispatchedAt.Valid {
			msg.DispatchedAt = &dispatchedAt.Time
		}
		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox messages: %w", err)
	}

	sort.Slice(messages, func(i, j int) bool { return messages[i].ID < messages[j].ID })
	return messages, nil
}

func (r *outboxRepository) DeleteDispatchedBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM outbox WHERE dispatched_at IS NOT NULL AND dispatched_at < $1`
	result, err := conn(ctx, r.db).ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete dispatched outbox messages: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}
