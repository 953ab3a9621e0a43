package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erazemk/skladisca/internal/model"
)

const itemSelect = `SELECT i.id, i.name, i.description, i.price, i.category, i.quantity,
        i.warehouse_id, i.image_mime, i.created_at, i.updated_at, i.deleted_at, w.name
 FROM items i
 LEFT JOIN warehouses w ON w.id = i.warehouse_id`

func scanItem(row interface{ Scan(...any) error }) (*model.Item, error) {
	item := &model.Item{}
	var description, category, imageMime, warehouseName sql.NullString
	err := row.Scan(&item.ID, &item.Name, &description, &item.Price, &category, &item.Quantity,
		&item.WarehouseID, &imageMime, &item.CreatedAt, &item.UpdatedAt, &item.DeletedAt, &warehouseName)
	if err != nil {
		return nil, err
	}
	item.Description = description.String
	item.Category = category.String
	item.ImageMime = imageMime.String
	item.WarehouseName = warehouseName.String
	return item, nil
}

// CreateItem inserts a stock row with the item's name, descriptive fields,
// quantity and warehouse.
func CreateItem(ctx context.Context, q Querier, item *model.Item) (*model.Item, error) {
	if item.Quantity < 0 {
		return nil, fmt.Errorf("creating item: negative quantity %d", item.Quantity)
	}
	result, err := q.ExecContext(ctx,
		`INSERT INTO items (name, description, price, category, quantity, warehouse_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		item.Name, item.Description, item.Price, item.Category, item.Quantity, item.WarehouseID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, q, id)
}

// GetItem returns an active item by ID.
func GetItem(ctx context.Context, q Querier, id int64) (*model.Item, error) {
	item, err := scanItem(q.QueryRowContext(ctx,
		itemSelect+` WHERE i.id = ? AND i.deleted_at IS NULL`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// FindItem returns the active stock row named name in a warehouse.
func FindItem(ctx context.Context, q Querier, name string, warehouseID int64) (*model.Item, error) {
	item, err := scanItem(q.QueryRowContext(ctx,
		itemSelect+` WHERE i.name = ? AND i.warehouse_id = ? AND i.deleted_at IS NULL
		 ORDER BY i.id LIMIT 1`, name, warehouseID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding item: %w", err)
	}
	return item, nil
}

// SearchItems returns active items matching every set field of filter.
// Name and category match case-insensitive substrings.
func SearchItems(ctx context.Context, q Querier, filter model.ItemFilter) ([]model.Item, error) {
	var where []string
	var args []any

	where = append(where, "i.deleted_at IS NULL")
	if filter.Name != "" {
		where = append(where, "LOWER(i.name) LIKE ?")
		args = append(args, "%"+strings.ToLower(filter.Name)+"%")
	}
	if filter.Category != "" {
		where = append(where, "LOWER(i.category) LIKE ?")
		args = append(args, "%"+strings.ToLower(filter.Category)+"%")
	}
	if filter.WarehouseID != 0 {
		where = append(where, "i.warehouse_id = ?")
		args = append(args, filter.WarehouseID)
	}

	rows, err := q.QueryContext(ctx,
		itemSelect+` WHERE `+strings.Join(where, " AND ")+` ORDER BY i.name, i.id`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("searching items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItem updates an item's descriptive fields. Name and quantity are
// owned by the stock ledger and cannot be changed here.
func UpdateItem(ctx context.Context, q Querier, id int64, description string, price decimal.Decimal, category string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE items SET description = ?, price = ?, category = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		description, price, category, id,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// DeleteItem soft-deletes an item. Movements keep referencing it.
func DeleteItem(ctx context.Context, q Querier, id int64) error {
	_, err := q.ExecContext(ctx,
		`UPDATE items SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

// DecrementItemQuantity subtracts quantity from an item held by warehouseID,
// only if enough stock is on hand. It reports whether a row was updated.
func DecrementItemQuantity(ctx context.Context, q Querier, itemID, warehouseID int64, quantity int) (bool, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE items SET quantity = quantity - ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND warehouse_id = ? AND deleted_at IS NULL AND quantity >= ?`,
		quantity, itemID, warehouseID, quantity,
	)
	if err != nil {
		return false, fmt.Errorf("decrementing item quantity: %w", err)
	}
	return affected(result)
}

// IncrementItemQuantity adds quantity to an item. It reports whether the
// item exists.
func IncrementItemQuantity(ctx context.Context, q Querier, itemID int64, quantity int) (bool, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE items SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		quantity, itemID,
	)
	if err != nil {
		return false, fmt.Errorf("incrementing item quantity: %w", err)
	}
	return affected(result)
}

// SetItemImage sets an item's image data.
func SetItemImage(ctx context.Context, q Querier, id int64, image []byte, mime string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	return nil
}

// GetItemImage returns an item's image data and MIME type.
func GetItemImage(ctx context.Context, q Querier, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&image, &mime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}
