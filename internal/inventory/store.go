package inventory

import (
	"context"
	"time"

	"github.com/erazemk/skladisca/internal/model"
)

// Store is the record store the inventory core runs on. Getters return
// (nil, nil) when the record does not exist or is soft-deleted.
type Store interface {
	GetItem(ctx context.Context, id int64) (*model.Item, error)
	// FindItem locates the stock row for name in a warehouse.
	FindItem(ctx context.Context, name string, warehouseID int64) (*model.Item, error)
	CreateItem(ctx context.Context, item *model.Item) (*model.Item, error)
	// DecrementQuantity subtracts quantity from the row only if it belongs to
	// warehouseID and holds at least quantity. It reports whether the row
	// was updated.
	DecrementQuantity(ctx context.Context, itemID, warehouseID int64, quantity int) (bool, error)
	// IncrementQuantity adds quantity to the row. It reports whether the row
	// exists.
	IncrementQuantity(ctx context.Context, itemID int64, quantity int) (bool, error)

	CreateMovement(ctx context.Context, m *model.Movement) (*model.Movement, error)

	GetWarehouse(ctx context.Context, id int64) (*model.Warehouse, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)

	CreateRequest(ctx context.Context, r *model.Request) (*model.Request, error)
	GetRequest(ctx context.Context, id int64) (*model.Request, error)
	ListRequests(ctx context.Context, filter model.RequestFilter) ([]model.Request, error)
	// SetRequestStatus moves a request from one status to another and
	// records the decision. It reports false when the request is not in
	// status from.
	SetRequestStatus(ctx context.Context, id int64, from, to model.RequestStatus, decidedBy int64, decidedAt time.Time) (bool, error)
}

// TxStore is a Store that can run a group of operations atomically. If fn
// returns an error, none of its writes are kept.
type TxStore interface {
	Store
	InTx(ctx context.Context, fn func(Store) error) error
}
