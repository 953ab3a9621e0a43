package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is the stock record of one product in one warehouse. Rows with the
// same name in different warehouses are separate records.
type Item struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category,omitempty"`
	Quantity    int             `json:"quantity"`
	WarehouseID *int64          `json:"warehouse_id,omitempty"`
	ImageMime   string          `json:"image_mime,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   *time.Time      `json:"deleted_at,omitempty"`

	// Joined fields (not always populated).
	WarehouseName string `json:"warehouse_name,omitempty"`
}

// InWarehouse reports whether the item row is held by the given warehouse.
func (i *Item) InWarehouse(warehouseID int64) bool {
	return i.WarehouseID != nil && *i.WarehouseID == warehouseID
}

// ItemTemplate carries the descriptive fields copied onto a stock row that
// is created by a receipt or an incoming transfer.
type ItemTemplate struct {
	Description string
	Price       decimal.Decimal
	Category    string
}

// Template returns the descriptive fields of the item.
func (i *Item) Template() ItemTemplate {
	return ItemTemplate{
		Description: i.Description,
		Price:       i.Price,
		Category:    i.Category,
	}
}

// ItemFilter narrows item listings. Empty fields match everything; set
// fields are combined with AND.
type ItemFilter struct {
	Name        string
	Category    string
	WarehouseID int64
}
