package inventory

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erazemk/skladisca/internal/model"
)

// TransferInput describes a stock transfer.
type TransferInput struct {
	ItemID          int64 `json:"item_id"`
	Quantity        int   `json:"quantity"`
	FromWarehouseID int64 `json:"from_warehouse_id"`
	ToWarehouseID   int64 `json:"to_warehouse_id"`

	// Recorded on the movement when set.
	UserID    *int64 `json:"-"`
	RequestID *int64 `json:"-"`
}

// Validate checks the fields that need no store access.
func (in TransferInput) Validate() error {
	if in.ItemID <= 0 {
		return fmt.Errorf("%w: item_id is required", model.ErrInvalidInput)
	}
	if in.FromWarehouseID <= 0 || in.ToWarehouseID <= 0 {
		return fmt.Errorf("%w: from_warehouse_id and to_warehouse_id are required", model.ErrInvalidInput)
	}
	if in.Quantity <= 0 {
		return fmt.Errorf("%w: got %d", model.ErrInvalidQuantity, in.Quantity)
	}
	if in.FromWarehouseID == in.ToWarehouseID {
		return fmt.Errorf("%w: warehouse %d", model.ErrSameWarehouse, in.FromWarehouseID)
	}
	return nil
}

// CreateRequestInput describes a request to move stock.
type CreateRequestInput struct {
	UserID          int64 `json:"-"`
	ItemID          int64 `json:"item_id"`
	Quantity        int   `json:"quantity"`
	FromWarehouseID int64 `json:"from_warehouse_id"`
	ToWarehouseID   int64 `json:"to_warehouse_id"`
}

func (in CreateRequestInput) Validate() error {
	if in.UserID <= 0 {
		return fmt.Errorf("%w: user is required", model.ErrInvalidInput)
	}
	return TransferInput{
		ItemID:          in.ItemID,
		Quantity:        in.Quantity,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
	}.Validate()
}

// ReceiveInput describes stock arriving at a warehouse. The descriptive
// fields seed the item row when the warehouse does not stock the name yet.
type ReceiveInput struct {
	Name        string          `json:"name"`
	WarehouseID int64           `json:"warehouse_id"`
	Quantity    int             `json:"quantity"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
}

func (in ReceiveInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", model.ErrInvalidInput)
	}
	if in.WarehouseID <= 0 {
		return fmt.Errorf("%w: warehouse_id is required", model.ErrInvalidInput)
	}
	if in.Quantity <= 0 {
		return fmt.Errorf("%w: got %d", model.ErrInvalidQuantity, in.Quantity)
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", model.ErrInvalidInput)
	}
	return nil
}

func (in ReceiveInput) template() model.ItemTemplate {
	return model.ItemTemplate{
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
	}
}
