package model

import (
	"errors"
	"fmt"
)

// Error kinds returned by the inventory core. Callers match them with
// errors.Is; the messages carry the detail needed to correct the call.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrSameWarehouse     = errors.New("source and destination warehouse are the same")
	ErrRequestClosed     = errors.New("request is no longer pending")
	ErrWarehouseNotEmpty = errors.New("warehouse still holds stock")
	ErrPersistence       = errors.New("persistence failure")
)

// Transfer stages reported by IncompleteTransferError.
const (
	StageCredit   = "credit"
	StageMovement = "movement"
)

// IncompleteTransferError reports a transfer whose source debit was applied
// but whose later steps failed and could not be compensated. The stock
// records need manual reconciliation.
type IncompleteTransferError struct {
	ItemID          int64
	FromWarehouseID int64
	ToWarehouseID   int64
	Quantity        int
	// Stage is the step that failed: StageCredit or StageMovement.
	Stage string
	// Credited is set when the destination was credited before the failure.
	Credited bool
	Err      error
}

func (e *IncompleteTransferError) Error() string {
	return fmt.Sprintf("transfer of %d x item %d from warehouse %d to %d applied but incomplete at %s stage: %v",
		e.Quantity, e.ItemID, e.FromWarehouseID, e.ToWarehouseID, e.Stage, e.Err)
}

func (e *IncompleteTransferError) Unwrap() error {
	return e.Err
}
