package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ds124wfegd/ticket-booker/internal/database"
	"github.com/ds124wfegd/ticket-booker/internal/entity"
)

const inventoryColumns = `id, event_id, ticket_type, total_allotment, availability, price, created_at, updated_at`

type inventoryRepository struct {
	db *sql.DB
}

func NewInventoryRepository(db *sql.DB) database.InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) Create(ctx context.Context, item *entity.InventoryItem) error {
	query := `
		INSERT INTO ticket_items (event_id, ticket_type, total_allotment, availability, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	now := time.Now()
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		item.EventID,
		item.Kind,
		item.TotalAllotment,
		item.Availability,
		item.UnitPrice,
		now,
		now,
	).Scan(&item.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return entity.ErrEventNotFound
		}
		return fmt.Errorf("failed to create ticket item: %w", err)
	}

	item.CreatedAt = now
	item.UpdatedAt = now
	return nil
}

func (r *inventoryRepository) GetByID(ctx context.Context, id int64) (*entity.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + ` FROM ticket_items WHERE id = $1`
	item, err := scanItem(conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket item: %w", err)
	}
	return item, nil
}

func (r *inventoryRepository) GetByEvent(ctx context.Context, eventID int64) ([]*entity.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + ` FROM ticket_items WHERE event_id = $1 ORDER BY id`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ticket items by event: %w", err)
	}
	defer rows.Close()

	var items []*entity.InventoryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ticket items: %w", err)
	}
	return items, nil
}

func (r *inventoryRepository) Update(ctx context.Context, item *entity.InventoryItem) error {
	query := `UPDATE ticket_items SET ticket_type = $1, price = $2, updated_at = $3 WHERE id = $4`

	now := time.Now()
	result, err := conn(ctx, r.db).ExecContext(ctx, query, item.Kind, item.UnitPrice, now, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update ticket item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrItemNotFound
	}

	item.UpdatedAt = now
	return nil
}

func (r *inventoryRepository) Reserve(ctx context.Context, id int64, quantity int) (*entity.InventoryItem, error) {
	var item *entity.InventoryItem
	err := withTx(ctx, r.db, func(ctx context.Context) error {
		var err error
		item, err = r.getForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := item.CheckReserve(quantity); err != nil {
			return err
		}
		item.Availability -= quantity
		return r.setAvailability(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *inventoryRepository) Release(ctx context.Context, id int64, quantity int) (*entity.InventoryItem, error) {
	var item *entity.InventoryItem
	err := withTx(ctx, r.db, func(ctx context.Context) error {
		var err error
		item, err = r.getForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := item.CheckRelease(quantity); err != nil {
			return err
		}
		item.Availability += quantity
		return r.setAvailability(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// getForUpdate holds the row lock until the surrounding transaction ends.
func (r *inventoryRepository) getForUpdate(ctx context.Context, id int64) (*entity.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + ` FROM ticket_items WHERE id = $1 FOR UPDATE`
	item, err := scanItem(conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrItemNotFound
	}
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to lock ticket item %d: %w", id, err))
	}
	return item, nil
}

func (r *inventoryRepository) setAvailability(ctx context.Context, item *entity.InventoryItem) error {
	query := `UPDATE ticket_items SET availability = $1, updated_at = $2 WHERE id = $3`

	now := time.Now()
	if _, err := conn(ctx, r.db).ExecContext(ctx, query, item.Availability, now, item.ID); err != nil {
		return mapError(fmt.Errorf("failed to update availability of ticket item %d: %w", item.ID, err))
	}
	item.UpdatedAt = now
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*entity.InventoryItem, error) {
	var item entity.InventoryItem
	err := row.Scan(
		&item.ID,
		&item.EventID,
		&item.Kind,
		&item.TotalAllotment,
		&item.Availability,
		&item.UnitPrice,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
