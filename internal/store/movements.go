package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/erazemk/skladisca/internal/model"
)

const movementSelect = `SELECT m.id, m.item_id, m.quantity, m.from_warehouse_id, m.to_warehouse_id,
        m.moved_at, m.type, m.user_id, m.request_id,
        i.name, fw.name, tw.name
 FROM movements m
 LEFT JOIN items i ON i.id = m.item_id
 LEFT JOIN warehouses fw ON fw.id = m.from_warehouse_id
 LEFT JOIN warehouses tw ON tw.id = m.to_warehouse_id`

func scanMovement(row interface{ Scan(...any) error }) (*model.Movement, error) {
	m := &model.Movement{}
	var itemName, fromName, toName sql.NullString
	err := row.Scan(&m.ID, &m.ItemID, &m.Quantity, &m.FromWarehouseID, &m.ToWarehouseID,
		&m.Timestamp, &m.Type, &m.UserID, &m.RequestID,
		&itemName, &fromName, &toName)
	if err != nil {
		return nil, err
	}
	m.ItemName = itemName.String
	m.FromWarehouseName = fromName.String
	m.ToWarehouseName = toName.String
	return m, nil
}

// CreateMovement appends a movement record.
func CreateMovement(ctx context.Context, q Querier, m *model.Movement) (*model.Movement, error) {
	if m.Quantity <= 0 {
		return nil, fmt.Errorf("recording movement: quantity %d is not positive", m.Quantity)
	}
	result, err := q.ExecContext(ctx,
		`INSERT INTO movements (item_id, quantity, from_warehouse_id, to_warehouse_id, type, moved_at, user_id, request_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ItemID, m.Quantity, m.FromWarehouseID, m.ToWarehouseID, m.Type, m.Timestamp.UTC(), m.UserID, m.RequestID,
	)
	if err != nil {
		return nil, fmt.Errorf("recording movement: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting movement id: %w", err)
	}

	return GetMovement(ctx, q, id)
}

// GetMovement returns a movement by ID.
func GetMovement(ctx context.Context, q Querier, id int64) (*model.Movement, error) {
	m, err := scanMovement(q.QueryRowContext(ctx, movementSelect+` WHERE m.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting movement: %w", err)
	}
	return m, nil
}

// ListMovements returns movements newest first, optionally filtered by item
// or by a warehouse on either side.
func ListMovements(ctx context.Context, q Querier, filter model.MovementFilter) ([]model.Movement, error) {
	var where []string
	var args []any

	if filter.ItemID != 0 {
		where = append(where, "m.item_id = ?")
		args = append(args, filter.ItemID)
	}
	if filter.WarehouseID != 0 {
		where = append(where, "(m.from_warehouse_id = ? OR m.to_warehouse_id = ?)")
		args = append(args, filter.WarehouseID, filter.WarehouseID)
	}

	query := movementSelect
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY m.moved_at DESC, m.id DESC`

	return queryMovements(ctx, q, query, args...)
}

// ListItemHistory returns every movement touching an inventory row, newest
// first: movements debiting it plus transfers that credited its warehouse
// with an item of the same name.
func ListItemHistory(ctx context.Context, q Querier, item *model.Item) ([]model.Movement, error) {
	query := movementSelect + ` WHERE m.item_id = ?
		OR (m.to_warehouse_id = ? AND m.item_id <> ? AND i.name = ?)
		ORDER BY m.moved_at DESC, m.id DESC`
	return queryMovements(ctx, q, query, item.ID, item.WarehouseID, item.ID, item.Name)
}

func queryMovements(ctx context.Context, q Querier, query string, args ...any) ([]model.Movement, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing movements: %w", err)
	}
	defer rows.Close()

	var movements []model.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning movement: %w", err)
		}
		movements = append(movements, *m)
	}
	return movements, rows.Err()
}
