package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/skladisca/internal/model"
)

const requestSelect = `SELECT r.id, r.user_id, r.item_id, r.quantity, r.from_warehouse_id, r.to_warehouse_id,
        r.created_at, r.status, r.decided_at, r.decided_by,
        u.username, i.name
 FROM requests r
 LEFT JOIN users u ON u.id = r.user_id
 LEFT JOIN items i ON i.id = r.item_id`

func scanRequest(row interface{ Scan(...any) error }) (*model.Request, error) {
	r := &model.Request{}
	var status string
	var username, itemName sql.NullString
	err := row.Scan(&r.ID, &r.UserID, &r.ItemID, &r.Quantity, &r.FromWarehouseID, &r.ToWarehouseID,
		&r.Timestamp, &status, &r.DecidedAt, &r.DecidedBy,
		&username, &itemName)
	if err != nil {
		return nil, err
	}
	if r.Status, err = model.ParseRequestStatus(status); err != nil {
		return nil, err
	}
	r.Username = username.String
	r.ItemName = itemName.String
	return r, nil
}

// CreateRequest stores a new request with the status it carries.
func CreateRequest(ctx context.Context, q Querier, r *model.Request) (*model.Request, error) {
	if !r.Status.Valid() {
		return nil, fmt.Errorf("creating request: invalid status %d", int(r.Status))
	}
	result, err := q.ExecContext(ctx,
		`INSERT INTO requests (user_id, item_id, quantity, from_warehouse_id, to_warehouse_id, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.UserID, r.ItemID, r.Quantity, r.FromWarehouseID, r.ToWarehouseID, r.Status.String(), r.Timestamp.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting request id: %w", err)
	}

	return GetRequest(ctx, q, id)
}

// GetRequest returns a request by ID.
func GetRequest(ctx context.Context, q Querier, id int64) (*model.Request, error) {
	r, err := scanRequest(q.QueryRowContext(ctx, requestSelect+` WHERE r.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting request: %w", err)
	}
	return r, nil
}

// ListRequests returns requests newest first, optionally filtered by status
// or requesting user.
func ListRequests(ctx context.Context, q Querier, filter model.RequestFilter) ([]model.Request, error) {
	var where []string
	var args []any

	if filter.Status != 0 {
		where = append(where, "r.status = ?")
		args = append(args, filter.Status.String())
	}
	if filter.UserID != 0 {
		where = append(where, "r.user_id = ?")
		args = append(args, filter.UserID)
	}

	query := requestSelect
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY r.created_at DESC, r.id DESC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	defer rows.Close()

	var requests []model.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning request: %w", err)
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}

// SetRequestStatus moves a request from status from to status to and
// records who decided it. It reports false if the request was not in
// status from.
func SetRequestStatus(ctx context.Context, q Querier, id int64, from, to model.RequestStatus, decidedBy int64, decidedAt time.Time) (bool, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE requests SET status = ?, decided_at = ?, decided_by = ?
		 WHERE id = ? AND status = ?`,
		to.String(), decidedAt.UTC(), decidedBy, id, from.String(),
	)
	if err != nil {
		return false, fmt.Errorf("updating request status: %w", err)
	}
	return affected(result)
}
