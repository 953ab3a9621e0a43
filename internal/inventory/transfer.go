package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/erazemk/skladisca/internal/model"
)

// Executor performs transfers: debit the source, credit or create the
// destination row, and append a movement.
type Executor struct {
	*deps
}

// Transfer moves stock between warehouses and returns the recorded movement.
// NotFound and InsufficientStock leave every record untouched.
func (e *Executor) Transfer(ctx context.Context, in TransferInput) (*model.Movement, error) {
	m, _, err := e.transfer(ctx, in, nil)
	return m, err
}

// transfer runs a transfer. If after is set it runs once the movement is
// recorded: on a TxStore inside the same transaction, where its error undoes
// the transfer; on any other store after the transfer is applied, where its
// error is returned as afterErr and the transfer stands.
func (e *Executor) transfer(ctx context.Context, in TransferInput, after func(Store, *model.Movement) error) (m *model.Movement, afterErr, err error) {
	if err := in.Validate(); err != nil {
		return nil, nil, err
	}

	src, err := e.source(ctx, in)
	if err != nil {
		return nil, nil, err
	}

	// Serialize first receipts of this name at the destination.
	unlock, err := e.locker.Lock(ctx, creditKey(src.Name, in.ToWarehouseID))
	if err != nil {
		return nil, nil, fmt.Errorf("locking %q in warehouse %d: %w", src.Name, in.ToWarehouseID, err)
	}
	defer unlock()

	if ts, ok := e.store.(TxStore); ok {
		err = ts.InTx(ctx, func(st Store) error {
			var err error
			if m, err = e.apply(ctx, st, in); err != nil {
				return err
			}
			if after != nil {
				return after(st, m)
			}
			return nil
		})
		if err != nil {
			return nil, nil, txErr(err, "running transfer")
		}
	} else {
		if m, err = e.applyCompensated(ctx, in); err != nil {
			return nil, nil, err
		}
		if after != nil {
			afterErr = after(e.store, m)
		}
	}

	e.log.Info("transfer completed",
		"movement", m.ID, "item", in.ItemID, "quantity", in.Quantity,
		"from", in.FromWarehouseID, "to", in.ToWarehouseID)
	return m, afterErr, nil
}

// source checks that the destination warehouse exists and returns the
// source item row as it was before the transfer.
func (e *Executor) source(ctx context.Context, in TransferInput) (*model.Item, error) {
	w, err := e.store.GetWarehouse(ctx, in.ToWarehouseID)
	if err != nil {
		return nil, persistErr(err, "getting warehouse %d", in.ToWarehouseID)
	}
	if w == nil {
		return nil, fmt.Errorf("%w: warehouse %d", model.ErrNotFound, in.ToWarehouseID)
	}

	item, err := e.store.GetItem(ctx, in.ItemID)
	if err != nil {
		return nil, persistErr(err, "getting item %d", in.ItemID)
	}
	if item == nil || !item.InWarehouse(in.FromWarehouseID) {
		return nil, fmt.Errorf("%w: item %d in warehouse %d", model.ErrNotFound, in.ItemID, in.FromWarehouseID)
	}
	return item, nil
}

// apply runs the three steps on st without undoing anything on failure.
func (e *Executor) apply(ctx context.Context, st Store, in TransferInput) (*model.Movement, error) {
	src, err := debit(ctx, st, in.ItemID, in.FromWarehouseID, in.Quantity)
	if err != nil {
		return nil, err
	}
	if _, err := creditOrCreate(ctx, st, src.Name, in.ToWarehouseID, in.Quantity, src.Template()); err != nil {
		return nil, err
	}
	return e.record(ctx, st, in)
}

// applyCompensated runs the steps on a store without transactions. A failed
// step after the debit is undone in reverse order; if undoing fails too the
// result is an *model.IncompleteTransferError.
func (e *Executor) applyCompensated(ctx context.Context, in TransferInput) (*model.Movement, error) {
	src, err := debit(ctx, e.store, in.ItemID, in.FromWarehouseID, in.Quantity)
	if err != nil {
		return nil, err
	}

	dst, err := creditOrCreate(ctx, e.store, src.Name, in.ToWarehouseID, in.Quantity, src.Template())
	if err != nil {
		if _, cerr := credit(ctx, e.store, src.ID, in.Quantity); cerr != nil {
			return nil, e.incomplete(in, model.StageCredit, false, errors.Join(err, cerr))
		}
		e.log.Warn("transfer compensated", "stage", model.StageCredit, "item", in.ItemID, "error", err)
		return nil, err
	}

	m, err := e.record(ctx, e.store, in)
	if err != nil {
		ok, cerr := e.store.DecrementQuantity(ctx, dst.ID, in.ToWarehouseID, in.Quantity)
		if cerr == nil && !ok {
			cerr = fmt.Errorf("destination item %d no longer holds %d", dst.ID, in.Quantity)
		}
		if cerr != nil {
			return nil, e.incomplete(in, model.StageMovement, true, errors.Join(err, cerr))
		}
		if _, cerr := credit(ctx, e.store, src.ID, in.Quantity); cerr != nil {
			return nil, e.incomplete(in, model.StageMovement, false, errors.Join(err, cerr))
		}
		e.log.Warn("transfer compensated", "stage", model.StageMovement, "item", in.ItemID, "error", err)
		return nil, err
	}
	return m, nil
}

func (e *Executor) record(ctx context.Context, st Store, in TransferInput) (*model.Movement, error) {
	m, err := st.CreateMovement(ctx, &model.Movement{
		ItemID:          in.ItemID,
		Quantity:        in.Quantity,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		Timestamp:       e.now(),
		Type:            model.MovementTypeTransfer,
		UserID:          in.UserID,
		RequestID:       in.RequestID,
	})
	if err != nil {
		return nil, persistErr(err, "recording movement")
	}
	return m, nil
}

func (e *Executor) incomplete(in TransferInput, stage string, credited bool, err error) error {
	ierr := &model.IncompleteTransferError{
		ItemID:          in.ItemID,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		Quantity:        in.Quantity,
		Stage:           stage,
		Credited:        credited,
		Err:             err,
	}
	e.log.Error("transfer incomplete, manual reconciliation needed",
		"item", in.ItemID, "quantity", in.Quantity,
		"from", in.FromWarehouseID, "to", in.ToWarehouseID,
		"stage", stage, "credited", credited, "error", err)
	return ierr
}
