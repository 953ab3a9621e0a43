package inventory

import (
	"context"
	"fmt"

	"github.com/erazemk/skladisca/internal/model"
)

// Ledger reads and changes item quantities. No operation leaves a
// quantity below zero.
type Ledger struct {
	*deps
}

// Debit removes quantity from the item row held by warehouseID and returns
// the updated row.
func (l *Ledger) Debit(ctx context.Context, itemID, warehouseID int64, quantity int) (*model.Item, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: got %d", model.ErrInvalidQuantity, quantity)
	}
	return debit(ctx, l.store, itemID, warehouseID, quantity)
}

// CreditOrCreate adds quantity to the row named itemName in warehouseID,
// creating it from tmpl if the warehouse does not stock that name yet.
func (l *Ledger) CreditOrCreate(ctx context.Context, itemName string, warehouseID int64, quantity int, tmpl model.ItemTemplate) (*model.Item, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: got %d", model.ErrInvalidQuantity, quantity)
	}

	unlock, err := l.locker.Lock(ctx, creditKey(itemName, warehouseID))
	if err != nil {
		return nil, fmt.Errorf("locking %q in warehouse %d: %w", itemName, warehouseID, err)
	}
	defer unlock()

	var item *model.Item
	if ts, ok := l.store.(TxStore); ok {
		err = ts.InTx(ctx, func(st Store) error {
			var err error
			item, err = creditOrCreate(ctx, st, itemName, warehouseID, quantity, tmpl)
			return err
		})
		if err != nil {
			return nil, txErr(err, "crediting item")
		}
		return item, nil
	}
	return creditOrCreate(ctx, l.store, itemName, warehouseID, quantity, tmpl)
}

// Credit adds quantity to a known item row.
func (l *Ledger) Credit(ctx context.Context, itemID int64, quantity int) (*model.Item, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: got %d", model.ErrInvalidQuantity, quantity)
	}
	return credit(ctx, l.store, itemID, quantity)
}

// Receive books stock arriving at a warehouse.
func (l *Ledger) Receive(ctx context.Context, in ReceiveInput) (*model.Item, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	w, err := l.store.GetWarehouse(ctx, in.WarehouseID)
	if err != nil {
		return nil, persistErr(err, "getting warehouse %d", in.WarehouseID)
	}
	if w == nil {
		return nil, fmt.Errorf("%w: warehouse %d", model.ErrNotFound, in.WarehouseID)
	}

	item, err := l.CreditOrCreate(ctx, in.Name, in.WarehouseID, in.Quantity, in.template())
	if err != nil {
		return nil, err
	}
	l.log.Info("stock received", "item", item.ID, "name", item.Name, "warehouse", in.WarehouseID, "quantity", in.Quantity)
	return item, nil
}

func debit(ctx context.Context, st Store, itemID, warehouseID int64, quantity int) (*model.Item, error) {
	ok, err := st.DecrementQuantity(ctx, itemID, warehouseID, quantity)
	if err != nil {
		return nil, persistErr(err, "debiting item %d", itemID)
	}

	item, err := st.GetItem(ctx, itemID)
	if err != nil {
		return nil, persistErr(err, "getting item %d", itemID)
	}
	if item == nil || !item.InWarehouse(warehouseID) {
		return nil, fmt.Errorf("%w: item %d in warehouse %d", model.ErrNotFound, itemID, warehouseID)
	}
	if !ok {
		return nil, fmt.Errorf("%w: item %d has %d, need %d", model.ErrInsufficientStock, itemID, item.Quantity, quantity)
	}
	return item, nil
}

func creditOrCreate(ctx context.Context, st Store, name string, warehouseID int64, quantity int, tmpl model.ItemTemplate) (*model.Item, error) {
	existing, err := st.FindItem(ctx, name, warehouseID)
	if err != nil {
		return nil, persistErr(err, "finding %q in warehouse %d", name, warehouseID)
	}
	if existing != nil {
		return credit(ctx, st, existing.ID, quantity)
	}

	item, err := st.CreateItem(ctx, &model.Item{
		Name:        name,
		Description: tmpl.Description,
		Price:       tmpl.Price,
		Category:    tmpl.Category,
		Quantity:    quantity,
		WarehouseID: &warehouseID,
	})
	if err != nil {
		return nil, persistErr(err, "creating %q in warehouse %d", name, warehouseID)
	}
	return item, nil
}

func credit(ctx context.Context, st Store, itemID int64, quantity int) (*model.Item, error) {
	ok, err := st.IncrementQuantity(ctx, itemID, quantity)
	if err != nil {
		return nil, persistErr(err, "crediting item %d", itemID)
	}
	if !ok {
		return nil, fmt.Errorf("%w: item %d", model.ErrNotFound, itemID)
	}

	item, err := st.GetItem(ctx, itemID)
	if err != nil {
		return nil, persistErr(err, "getting item %d", itemID)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: item %d", model.ErrNotFound, itemID)
	}
	return item, nil
}
