package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/skladisca/internal/inventory"
	"github.com/erazemk/skladisca/internal/model"
	"github.com/erazemk/skladisca/internal/store"
)

type requestFixture struct {
	a, b     int64
	user     int64
	reviewer int64
	item     *model.Item
}

func seedRequestFixture(t *testing.T, h *harness, stock int) requestFixture {
	f := requestFixture{
		a:        h.addWarehouse(t, "A"),
		b:        h.addWarehouse(t, "B"),
		user:     h.addUser(t, "alice", model.RoleUser),
		reviewer: h.addUser(t, "bob", model.RoleManager),
	}
	f.item = h.addItem(t, "Widget", f.a, stock)
	return f
}

func (f requestFixture) input(quantity int) inventory.CreateRequestInput {
	return inventory.CreateRequestInput{
		UserID: f.user, ItemID: f.item.ID, Quantity: quantity,
		FromWarehouseID: f.a, ToWarehouseID: f.b,
	}
}

func TestCreateRequestIsPendingAndMovesNothing(t *testing.T) {
	forEachStore(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		svc := h.service()
		f := seedRequestFixture(t, h, 5)

		// Requests are not stock-checked until approval.
		req, err := svc.Requests.Create(ctx, f.input(50))
		require.NoError(t, err)
		assert.Equal(t, model.RequestPending, req.Status)
		assert.True(t, req.Timestamp.Equal(fixedNow))
		assert.Nil(t, req.DecidedAt)

		assert.Equal(t, 5, h.quantity(t, f.item.ID))
		assert.Empty(t, h.movements(t))

		listed, err := svc.Requests.List(ctx, model.RequestFilter{Status: model.RequestPending})
		require.NoError(t, err)
		assert.Len(t, listed, 1)
	})
}

func TestCreateRequestValidation(t *testing.T) {
	forEachStore(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		svc := h.service()
		f := seedRequestFixture(t, h, 5)

		mutate := func(fn func(*inventory.CreateRequestInput)) inventory.CreateRequestInput {
			in := f.input(1)
			fn(&in)
			return in
		}

		tests := []struct {
			name string
			in   inventory.CreateRequestInput
			want error
		}{
			{"zero quantity", f.input(0), model.ErrInvalidQuantity},
			{"same warehouse", mutate(func(in *inventory.CreateRequestInput) { in.ToWarehouseID = f.a }), model.ErrSameWarehouse},
			{"unknown user", mutate(func(in *inventory.CreateRequestInput) { in.UserID = 9999 }), model.ErrNotFound},
			{"unknown item", mutate(func(in *inventory.CreateRequestInput) { in.ItemID = 9999 }), model.ErrNotFound},
			{"unknown source", mutate(func(in *inventory.CreateRequestInput) { in.FromWarehouseID = 9999 }), model.ErrNotFound},
			{"unknown destination", mutate(func(in *inventory.CreateRequestInput) { in.ToWarehouseID = 9999 }), model.ErrNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.Requests.Create(ctx, tt.in)
				assert.ErrorIs(t, err, tt.want)
			})
		}

		all, err := svc.Requests.List(ctx, model.RequestFilter{})
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func TestApproveRequest(t *testing.T) {
	forEachStore(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		svc := h.service()
		f := seedRequestFixture(t, h, 10)

		req, err := svc.Requests.Create(ctx, f.input(3))
		require.NoError(t, err)

		m, err := svc.Requests.Approve(ctx, req.ID, f.reviewer)
		require.NoError(t, err)
		require.NotNil(t, m.RequestID)
		assert.Equal(t, req.ID, *m.RequestID)
		require.NotNil(t, m.UserID)
		assert.Equal(t, f.reviewer, *m.UserID)

		got, err := svc.Requests.Get(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RequestApproved, got.Status)
		require.NotNil(t, got.DecidedBy)
		assert.Equal(t, f.reviewer, *got.DecidedBy)

		assert.Equal(t, 7, h.quantity(t, f.item.ID))
		dst := h.rowsNamed(t, "Widget", f.b)
		require.Len(t, dst, 1)
		assert.Equal(t, 3, dst[0].Quantity)

		// Terminal: a second approval or a rejection changes nothing.
		_, err = svc.Requests.Approve(ctx, req.ID, f.reviewer)
		assert.ErrorIs(t, err, model.ErrRequestClosed)
		_, err = svc.Requests.Reject(ctx, req.ID, f.reviewer)
		assert.ErrorIs(t, err, model.ErrRequestClosed)

		assert.Equal(t, 7, h.quantity(t, f.item.ID))
		assert.Len(t, h.movements(t), 1)
	})
}

func TestApproveWithInsufficientStockStaysPending(t *testing.T) {
	forEachStore(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		svc := h.service()
		f := seedRequestFixture(t, h, 2)

		req, err := svc.Requests.Create(ctx, f.input(5))
		require.NoError(t, err)

		_, err = svc.Requests.Approve(ctx, req.ID, f.reviewer)
		assert.ErrorIs(t, err, model.ErrInsufficientStock)

		got, err := svc.Requests.Get(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RequestPending, got.Status)
		assert.Equal(t, 2, h.quantity(t, f.item.ID))
		assert.Empty(t, h.movements(t))
	})
}

func TestRejectRequest(t *testing.T) {
	forEachStore(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		svc := h.service()
		f := seedRequestFixture(t, h, 10)

		req, err := svc.Requests.Create(ctx, f.input(3))
		require.NoError(t, err)

		got, err := svc.Requests.Reject(ctx, req.ID, f.reviewer)
		require.NoError(t, err)
		assert.Equal(t, model.RequestRejected, got.Status)
		assert.NotNil(t, got.DecidedAt)

		_, err = svc.Requests.Approve(ctx, req.ID, f.reviewer)
		assert.ErrorIs(t, err, model.ErrRequestClosed)

		assert.Equal(t, 10, h.quantity(t, f.item.ID))
		assert.Empty(t, h.movements(t))
	})
}

func TestDecideMissingRequest(t *testing.T) {
	forEachStore(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		svc := h.service()

		_, err := svc.Requests.Approve(ctx, 9999, 1)
		assert.ErrorIs(t, err, model.ErrNotFound)
		_, err = svc.Requests.Reject(ctx, 9999, 1)
		assert.ErrorIs(t, err, model.ErrNotFound)
		_, err = svc.Requests.Get(ctx, 9999)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestApproveRollsBackWhenDecisionLost(t *testing.T) {
	h := newSQLHarness(t)
	ctx := context.Background()
	f := seedRequestFixture(t, h, 10)

	req, err := h.service().Requests.Create(ctx, f.input(3))
	require.NoError(t, err)

	// Another process decided the request between the load and the update.
	faulty := &faultyTxStore{SQL: h.store.(*store.SQL), tmpl: faultyStore{statusMiss: true}}
	svc := inventory.New(faulty, inventory.WithLogger(quietLogger()))

	_, err = svc.Requests.Approve(ctx, req.ID, f.reviewer)
	assert.ErrorIs(t, err, model.ErrRequestClosed)

	assert.Equal(t, 10, h.quantity(t, f.item.ID))
	assert.Empty(t, h.rowsNamed(t, "Widget", f.b))
	assert.Empty(t, h.movements(t))
}

func TestApproveKeepsTransferWhenStatusWriteFails(t *testing.T) {
	h := newMemHarness(t)
	ctx := context.Background()
	f := seedRequestFixture(t, h, 10)

	req, err := h.service().Requests.Create(ctx, f.input(3))
	require.NoError(t, err)

	faulty := &faultyStore{Store: h.store, statusMiss: true}
	svc := inventory.New(faulty, inventory.WithLogger(quietLogger()))

	m, err := svc.Requests.Approve(ctx, req.ID, f.reviewer)
	require.NoError(t, err)
	assert.NotNil(t, m)

	got, err := svc.Requests.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, got.Status)
	assert.Equal(t, 7, h.quantity(t, f.item.ID))
}
