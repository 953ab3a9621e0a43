package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/skladisca/internal/inventory"
	"github.com/erazemk/skladisca/internal/model"
)

// Querier is satisfied by *sql.DB and *sql.Tx, so every function in this
// package runs the same inside and outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQL is the database-backed inventory store.
type SQL struct {
	db *sql.DB
	q  Querier
	tx *sql.Tx
}

var _ inventory.TxStore = (*SQL)(nil)

// New returns a store backed by db.
func New(db *sql.DB) *SQL {
	return &SQL{db: db, q: db}
}

// InTx runs fn in a database transaction. Nested calls join the outer
// transaction.
func (s *SQL) InTx(ctx context.Context, fn func(inventory.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&SQL{db: s.db, q: tx, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQL) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	return GetItem(ctx, s.q, id)
}

func (s *SQL) FindItem(ctx context.Context, name string, warehouseID int64) (*model.Item, error) {
	return FindItem(ctx, s.q, name, warehouseID)
}

func (s *SQL) CreateItem(ctx context.Context, item *model.Item) (*model.Item, error) {
	return CreateItem(ctx, s.q, item)
}

func (s *SQL) DecrementQuantity(ctx context.Context, itemID, warehouseID int64, quantity int) (bool, error) {
	return DecrementItemQuantity(ctx, s.q, itemID, warehouseID, quantity)
}

func (s *SQL) IncrementQuantity(ctx context.Context, itemID int64, quantity int) (bool, error) {
	return IncrementItemQuantity(ctx, s.q, itemID, quantity)
}

func (s *SQL) CreateMovement(ctx context.Context, m *model.Movement) (*model.Movement, error) {
	return CreateMovement(ctx, s.q, m)
}

func (s *SQL) GetWarehouse(ctx context.Context, id int64) (*model.Warehouse, error) {
	return GetWarehouse(ctx, s.q, id)
}

// GetUser returns an active user; soft-deleted users are reported missing.
func (s *SQL) GetUser(ctx context.Context, id int64) (*model.User, error) {
	u, err := GetUser(ctx, s.q, id)
	if err != nil || u == nil || u.DeletedAt != nil {
		return nil, err
	}
	return u, nil
}

func (s *SQL) CreateRequest(ctx context.Context, r *model.Request) (*model.Request, error) {
	return CreateRequest(ctx, s.q, r)
}

func (s *SQL) GetRequest(ctx context.Context, id int64) (*model.Request, error) {
	return GetRequest(ctx, s.q, id)
}

func (s *SQL) ListRequests(ctx context.Context, filter model.RequestFilter) ([]model.Request, error) {
	return ListRequests(ctx, s.q, filter)
}

func (s *SQL) SetRequestStatus(ctx context.Context, id int64, from, to model.RequestStatus, decidedBy int64, decidedAt time.Time) (bool, error) {
	return SetRequestStatus(ctx, s.q, id, from, to, decidedBy, decidedAt)
}

// affected reports whether an update touched at least one row.
func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}
	return n > 0, nil
}
