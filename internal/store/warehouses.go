package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/skladisca/internal/model"
)

// CreateWarehouse creates a new warehouse.
func CreateWarehouse(ctx context.Context, q Querier, name, address string) (*model.Warehouse, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO warehouses (name, address) VALUES (?, ?)`,
		name, address,
	)
	if err != nil {
		return nil, fmt.Errorf("creating warehouse: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting warehouse id: %w", err)
	}

	return GetWarehouse(ctx, q, id)
}

// GetWarehouse returns an active warehouse by ID.
func GetWarehouse(ctx context.Context, q Querier, id int64) (*model.Warehouse, error) {
	w := &model.Warehouse{}
	var address sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT id, name, address, created_at, deleted_at
		 FROM warehouses WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&w.ID, &w.Name, &address, &w.CreatedAt, &w.DeletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting warehouse: %w", err)
	}
	w.Address = address.String
	return w, nil
}

// ListWarehouses returns all active warehouses.
func ListWarehouses(ctx context.Context, q Querier) ([]model.Warehouse, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, address, created_at, deleted_at
		 FROM warehouses WHERE deleted_at IS NULL ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing warehouses: %w", err)
	}
	defer rows.Close()

	var warehouses []model.Warehouse
	for rows.Next() {
		var w model.Warehouse
		var address sql.NullString
		if err := rows.Scan(&w.ID, &w.Name, &address, &w.CreatedAt, &w.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning warehouse: %w", err)
		}
		w.Address = address.String
		warehouses = append(warehouses, w)
	}
	return warehouses, rows.Err()
}

// UpdateWarehouse renames or re-addresses a warehouse.
func UpdateWarehouse(ctx context.Context, q Querier, id int64, name, address string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE warehouses SET name = ?, address = ? WHERE id = ? AND deleted_at IS NULL`,
		name, address, id,
	)
	if err != nil {
		return fmt.Errorf("updating warehouse: %w", err)
	}
	return nil
}

// DeleteWarehouse soft-deletes a warehouse that holds no stock. It returns
// model.ErrWarehouseNotEmpty if any active item row in it has a positive
// quantity, and model.ErrNotFound if the warehouse does not exist.
func DeleteWarehouse(ctx context.Context, q Querier, id int64) error {
	result, err := q.ExecContext(ctx,
		`UPDATE warehouses SET deleted_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL
		   AND NOT EXISTS (
		       SELECT 1 FROM items
		       WHERE warehouse_id = ? AND deleted_at IS NULL AND quantity > 0
		   )`,
		id, id,
	)
	if err != nil {
		return fmt.Errorf("deleting warehouse: %w", err)
	}

	ok, err := affected(result)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	w, err := GetWarehouse(ctx, q, id)
	if err != nil {
		return err
	}
	if w == nil {
		return model.ErrNotFound
	}
	return model.ErrWarehouseNotEmpty
}
