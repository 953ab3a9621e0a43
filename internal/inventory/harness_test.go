package inventory_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/skladisca/internal/db"
	"github.com/erazemk/skladisca/internal/inventory"
	"github.com/erazemk/skladisca/internal/memstore"
	"github.com/erazemk/skladisca/internal/model"
	"github.com/erazemk/skladisca/internal/store"
)

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// harness seeds records into one store implementation and reads back what
// the core cannot see through inventory.Store.
type harness struct {
	store        inventory.Store
	addWarehouse func(t *testing.T, name string) int64
	addUser      func(t *testing.T, name, role string) int64
	movements    func(t *testing.T) []model.Movement
	items        func(t *testing.T) []model.Item
}

func (h *harness) service(opts ...inventory.Option) *inventory.Service {
	opts = append([]inventory.Option{inventory.WithClock(fixedClock), inventory.WithLogger(quietLogger())}, opts...)
	return inventory.New(h.store, opts...)
}

func (h *harness) addItem(t *testing.T, name string, warehouseID int64, quantity int) *model.Item {
	t.Helper()
	item, err := h.store.CreateItem(context.Background(), &model.Item{
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString("4.20"),
		Category:    "parts",
		Quantity:    quantity,
		WarehouseID: &warehouseID,
	})
	require.NoError(t, err)
	return item
}

func (h *harness) quantity(t *testing.T, itemID int64) int {
	t.Helper()
	item, err := h.store.GetItem(context.Background(), itemID)
	require.NoError(t, err)
	require.NotNil(t, item, "item %d", itemID)
	return item.Quantity
}

// rowsNamed returns the active rows for name in a warehouse.
func (h *harness) rowsNamed(t *testing.T, name string, warehouseID int64) []model.Item {
	t.Helper()
	var out []model.Item
	for _, it := range h.items(t) {
		if it.Name == name && it.InWarehouse(warehouseID) {
			out = append(out, it)
		}
	}
	return out
}

func newMemHarness(t *testing.T) *harness {
	s := memstore.New()
	return &harness{
		store: s,
		addWarehouse: func(t *testing.T, name string) int64 {
			return s.AddWarehouse(name, "").ID
		},
		addUser: func(t *testing.T, name, role string) int64 {
			return s.AddUser(name, role).ID
		},
		movements: func(t *testing.T) []model.Movement { return s.Movements() },
		items:     func(t *testing.T) []model.Item { return s.Items() },
	}
}

func newSQLHarness(t *testing.T) *harness {
	database := db.NewTestDB(t)
	ctx := context.Background()
	return &harness{
		store: store.New(database),
		addWarehouse: func(t *testing.T, name string) int64 {
			w, err := store.CreateWarehouse(ctx, database, name, "")
			require.NoError(t, err)
			return w.ID
		},
		addUser: func(t *testing.T, name, role string) int64 {
			u, err := store.CreateUser(ctx, database, name, "hash", role)
			require.NoError(t, err)
			return u.ID
		},
		movements: func(t *testing.T) []model.Movement {
			ms, err := store.ListMovements(ctx, database, model.MovementFilter{})
			require.NoError(t, err)
			return ms
		},
		items: func(t *testing.T) []model.Item {
			items, err := store.SearchItems(ctx, database, model.ItemFilter{})
			require.NoError(t, err)
			return items
		},
	}
}

// forEachStore runs fn against the in-memory and the SQL store.
func forEachStore(t *testing.T, fn func(t *testing.T, h *harness)) {
	t.Run("memstore", func(t *testing.T) { fn(t, newMemHarness(t)) })
	t.Run("sql", func(t *testing.T) { fn(t, newSQLHarness(t)) })
}

var errInjected = errors.New("injected failure")

// faultyStore fails selected operations of the store it wraps.
type faultyStore struct {
	inventory.Store

	createItemErr     error
	incrementErr      error
	createMovementErr error
	// failDecrementFrom fails the n-th and later decrements when non-zero.
	failDecrementFrom int
	decrements        int
	statusMiss        bool
}

func (f *faultyStore) CreateItem(ctx context.Context, item *model.Item) (*model.Item, error) {
	if f.createItemErr != nil {
		return nil, f.createItemErr
	}
	return f.Store.CreateItem(ctx, item)
}

func (f *faultyStore) IncrementQuantity(ctx context.Context, itemID int64, quantity int) (bool, error) {
	if f.incrementErr != nil {
		return false, f.incrementErr
	}
	return f.Store.IncrementQuantity(ctx, itemID, quantity)
}

func (f *faultyStore) DecrementQuantity(ctx context.Context, itemID, warehouseID int64, quantity int) (bool, error) {
	f.decrements++
	if f.failDecrementFrom > 0 && f.decrements >= f.failDecrementFrom {
		return false, errInjected
	}
	return f.Store.DecrementQuantity(ctx, itemID, warehouseID, quantity)
}

func (f *faultyStore) CreateMovement(ctx context.Context, m *model.Movement) (*model.Movement, error) {
	if f.createMovementErr != nil {
		return nil, f.createMovementErr
	}
	return f.Store.CreateMovement(ctx, m)
}

func (f *faultyStore) SetRequestStatus(ctx context.Context, id int64, from, to model.RequestStatus, decidedBy int64, decidedAt time.Time) (bool, error) {
	if f.statusMiss {
		return false, nil
	}
	return f.Store.SetRequestStatus(ctx, id, from, to, decidedBy, decidedAt)
}

// faultyTxStore injects the faults of tmpl into every transaction.
type faultyTxStore struct {
	*store.SQL
	tmpl faultyStore
}

func (f *faultyTxStore) InTx(ctx context.Context, fn func(inventory.Store) error) error {
	return f.SQL.InTx(ctx, func(st inventory.Store) error {
		fs := f.tmpl
		fs.Store = st
		return fn(&fs)
	})
}
