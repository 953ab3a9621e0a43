package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/skladisca/internal/inventory"
	"github.com/erazemk/skladisca/internal/memstore"
	"github.com/erazemk/skladisca/internal/model"
	"github.com/erazemk/skladisca/internal/store"
)

func TestTransferCreatesDestinationRow(t *testing.T) {
	forEachStore(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		svc := h.service()
		a := h.addWarehouse(t, "A")
		b := h.addWarehouse(t, "B")
		user := h.addUser(t, "manager", model.RoleManager)
		src := h.addItem(t, "Widget", a, 10)

		m, err := svc.Transfers.Transfer(ctx, inventory.TransferInput{
			ItemID: src.ID, Quantity: 4, FromWarehouseID: a, ToWarehouseID: b, UserID: &user,
		})
		require.NoError(t, err)

		assert.Equal(t, src.ID, m.ItemID)
		assert.Equal(t, 4, m.Quantity)
		assert.Equal(t, a, m.FromWarehouseID)
		assert.Equal(t, b, m.ToWarehouseID)
		assert.Equal(t, model.MovementTypeTransfer, m.Type)
		assert.True(t, m.Timestamp.Equal(fixedNow))
		require.NotNil(t, m.UserID)
		assert.Equal(t, user, *m.UserID)
		assert.Nil(t, m.RequestID)

		assert.Equal(t, 6, h.quantity(t, src.ID))
		dst := h.rowsNamed(t, "Widget", b)
		require.Len(t, dst, 1)
		assert.Equal(t, 4, dst[0].Quantity)
		assert.Equal(t, src.Description, dst[0].Description)
		assert.Equal(t, src.Category, dst[0].Category)
		assert.True(t, src.Price.Equal(dst[0].Price))

		assert.Len(t, h.movements(t), 1)
	})
}

func TestTransferCreditsExistingRow(t *testing.T) {
	forEachStore(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		svc := h.service()
		a := h.addWarehouse(t, "A")
		b := h.addWarehouse(t, "B")
		src := h.addItem(t, "Widget", a, 10)
		dst := h.addItem(t, "Widget", b, 3)

		for i := 0; i < 2; i++ {
			_, err := svc.Transfers.Transfer(ctx, inventory.TransferInput{
				ItemID: src.ID, Quantity: 5, FromWarehouseID: a, ToWarehouseID: b,
			})
			require.NoError(t, err)
		}

		assert.Equal(t, 0, h.quantity(t, src.ID))
		assert.Equal(t, 3+5+5, h.quantity(t, dst.ID))
		assert.Len(t, h.rowsNamed(t, "Widget", b), 1)

		movements := h.movements(t)
		require.Len(t, movements, 2)
		for _, m := range movements {
			assert.Equal(t, src.ID, m.ItemID)
			assert.Equal(t, 5, m.Quantity)
			assert.Equal(t, a, m.FromWarehouseID)
			assert.Equal(t, b, m.ToWarehouseID)
		}
	})
}

func TestTransferWholeStockLeavesZeroRow(t *testing.T) {
	forEachStore(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		svc := h.service()
		a := h.addWarehouse(t, "A")
		b := h.addWarehouse(t, "B")
		src := h.addItem(t, "Widget", a, 3)

		_, err := svc.Transfers.Transfer(ctx, inventory.TransferInput{
			ItemID: src.ID, Quantity: 3, FromWarehouseID: a, ToWarehouseID: b,
		})
		require.NoError(t, err)
		assert.Equal(t, 0, h.quantity(t, src.ID))
	})
}

func TestTransferRejectedWithoutSideEffects(t *testing.T) {
	forEachStore(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		svc := h.service()
		a := h.addWarehouse(t, "A")
		b := h.addWarehouse(t, "B")
		src := h.addItem(t, "Widget", a, 5)

		tests := []struct {
			name string
			in   inventory.TransferInput
			want error
		}{
			{"more than on hand", inventory.TransferInput{ItemID: src.ID, Quantity: 6, FromWarehouseID: a, ToWarehouseID: b}, model.ErrInsufficientStock},
			{"zero quantity", inventory.TransferInput{ItemID: src.ID, Quantity: 0, FromWarehouseID: a, ToWarehouseID: b}, model.ErrInvalidQuantity},
			{"negative quantity", inventory.TransferInput{ItemID: src.ID, Quantity: -2, FromWarehouseID: a, ToWarehouseID: b}, model.ErrInvalidQuantity},
			{"same warehouse", inventory.TransferInput{ItemID: src.ID, Quantity: 1, FromWarehouseID: a, ToWarehouseID: a}, model.ErrSameWarehouse},
			{"unknown item", inventory.TransferInput{ItemID: 9999, Quantity: 1, FromWarehouseID: a, ToWarehouseID: b}, model.ErrNotFound},
			{"item not in source", inventory.TransferInput{ItemID: src.ID, Quantity: 1, FromWarehouseID: b, ToWarehouseID: a}, model.ErrNotFound},
			{"unknown destination", inventory.TransferInput{ItemID: src.ID, Quantity: 1, FromWarehouseID: a, ToWarehouseID: 9999}, model.ErrNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.Transfers.Transfer(ctx, tt.in)
				assert.ErrorIs(t, err, tt.want)
			})
		}

		assert.Equal(t, 5, h.quantity(t, src.ID))
		assert.Empty(t, h.rowsNamed(t, "Widget", b))
		assert.Empty(t, h.movements(t))
	})
}

func TestTransferRoundTrip(t *testing.T) {
	forEachStore(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		svc := h.service()
		a := h.addWarehouse(t, "A")
		b := h.addWarehouse(t, "B")
		src := h.addItem(t, "Widget", a, 8)

		m, err := svc.Transfers.Transfer(ctx, inventory.TransferInput{ItemID: src.ID, Quantity: 5, FromWarehouseID: a, ToWarehouseID: b})
		require.NoError(t, err)

		dst := h.rowsNamed(t, "Widget", b)
		require.Len(t, dst, 1)
		_, err = svc.Transfers.Transfer(ctx, inventory.TransferInput{ItemID: dst[0].ID, Quantity: 5, FromWarehouseID: b, ToWarehouseID: a})
		require.NoError(t, err)

		assert.Equal(t, 8, h.quantity(t, src.ID))
		assert.Equal(t, 0, h.quantity(t, dst[0].ID))
		assert.Len(t, h.movements(t), 2)
		assert.Equal(t, src.ID, m.ItemID)
	})
}

func TestCompensationRestoresStockWhenMovementFails(t *testing.T) {
	h := newMemHarness(t)
	ctx := context.Background()
	a := h.addWarehouse(t, "A")
	b := h.addWarehouse(t, "B")
	src := h.addItem(t, "Widget", a, 10)
	dst := h.addItem(t, "Widget", b, 2)

	faulty := &faultyStore{Store: h.store, createMovementErr: errInjected}
	svc := inventory.New(faulty, inventory.WithClock(fixedClock), inventory.WithLogger(quietLogger()))

	_, err := svc.Transfers.Transfer(ctx, inventory.TransferInput{ItemID: src.ID, Quantity: 4, FromWarehouseID: a, ToWarehouseID: b})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrPersistence)
	assert.ErrorIs(t, err, errInjected)

	var incomplete *model.IncompleteTransferError
	assert.False(t, errors.As(err, &incomplete))

	assert.Equal(t, 10, h.quantity(t, src.ID))
	assert.Equal(t, 2, h.quantity(t, dst.ID))
	assert.Empty(t, h.movements(t))
}

func TestCompensationRestoresStockWhenCreditFails(t *testing.T) {
	h := newMemHarness(t)
	ctx := context.Background()
	a := h.addWarehouse(t, "A")
	b := h.addWarehouse(t, "B")
	src := h.addItem(t, "Widget", a, 10)

	faulty := &faultyStore{Store: h.store, createItemErr: errInjected}
	svc := inventory.New(faulty, inventory.WithClock(fixedClock), inventory.WithLogger(quietLogger()))

	_, err := svc.Transfers.Transfer(ctx, inventory.TransferInput{ItemID: src.ID, Quantity: 4, FromWarehouseID: a, ToWarehouseID: b})
	assert.ErrorIs(t, err, model.ErrPersistence)

	assert.Equal(t, 10, h.quantity(t, src.ID))
	assert.Empty(t, h.rowsNamed(t, "Widget", b))
}

func TestFailedCompensationReportsIncompleteTransfer(t *testing.T) {
	t.Run("credit stage", func(t *testing.T) {
		h := newMemHarness(t)
		ctx := context.Background()
		a := h.addWarehouse(t, "A")
		b := h.addWarehouse(t, "B")
		src := h.addItem(t, "Widget", a, 10)

		faulty := &faultyStore{Store: h.store, createItemErr: errInjected, incrementErr: errInjected}
		svc := inventory.New(faulty, inventory.WithLogger(quietLogger()))

		_, err := svc.Transfers.Transfer(ctx, inventory.TransferInput{ItemID: src.ID, Quantity: 4, FromWarehouseID: a, ToWarehouseID: b})
		var incomplete *model.IncompleteTransferError
		require.ErrorAs(t, err, &incomplete)
		assert.Equal(t, model.StageCredit, incomplete.Stage)
		assert.False(t, incomplete.Credited)
		assert.Equal(t, 4, incomplete.Quantity)
		assert.Equal(t, src.ID, incomplete.ItemID)

		// The debit stands and is reported for reconciliation.
		assert.Equal(t, 6, h.quantity(t, src.ID))
	})

	t.Run("movement stage", func(t *testing.T) {
		h := newMemHarness(t)
		ctx := context.Background()
		a := h.addWarehouse(t, "A")
		b := h.addWarehouse(t, "B")
		src := h.addItem(t, "Widget", a, 10)

		// The debit is the first decrement; the reversal of the credit is the second.
		faulty := &faultyStore{Store: h.store, createMovementErr: errInjected, failDecrementFrom: 2}
		svc := inventory.New(faulty, inventory.WithLogger(quietLogger()))

		_, err := svc.Transfers.Transfer(ctx, inventory.TransferInput{ItemID: src.ID, Quantity: 4, FromWarehouseID: a, ToWarehouseID: b})
		var incomplete *model.IncompleteTransferError
		require.ErrorAs(t, err, &incomplete)
		assert.Equal(t, model.StageMovement, incomplete.Stage)
		assert.True(t, incomplete.Credited)
		assert.ErrorIs(t, err, errInjected)

		assert.Equal(t, 6, h.quantity(t, src.ID))
		dst := h.rowsNamed(t, "Widget", b)
		require.Len(t, dst, 1)
		assert.Equal(t, 4, dst[0].Quantity)
	})
}

func TestTransactionalTransferRollsBack(t *testing.T) {
	h := newSQLHarness(t)
	ctx := context.Background()
	a := h.addWarehouse(t, "A")
	b := h.addWarehouse(t, "B")
	src := h.addItem(t, "Widget", a, 10)

	faulty := &faultyTxStore{SQL: h.store.(*store.SQL), tmpl: faultyStore{createMovementErr: errInjected}}
	svc := inventory.New(faulty, inventory.WithLogger(quietLogger()))

	_, err := svc.Transfers.Transfer(ctx, inventory.TransferInput{ItemID: src.ID, Quantity: 4, FromWarehouseID: a, ToWarehouseID: b})
	assert.ErrorIs(t, err, model.ErrPersistence)
	var incomplete *model.IncompleteTransferError
	assert.False(t, errors.As(err, &incomplete))

	assert.Equal(t, 10, h.quantity(t, src.ID))
	assert.Empty(t, h.rowsNamed(t, "Widget", b))
	assert.Empty(t, h.movements(t))
}

func TestMemstoreIsNotTransactional(t *testing.T) {
	var s inventory.Store = memstore.New()
	_, ok := s.(inventory.TxStore)
	assert.False(t, ok)
}
