package model

import "time"

// Movement types.
const (
	MovementTypeTransfer = "transfer"
)

// Movement is an append-only record of a completed stock transfer.
type Movement struct {
	ID              int64     `json:"id"`
	ItemID          int64     `json:"item_id"`
	Quantity        int       `json:"quantity"`
	FromWarehouseID int64     `json:"from_warehouse_id"`
	ToWarehouseID   int64     `json:"to_warehouse_id"`
	Timestamp       time.Time `json:"timestamp"`
	Type            string    `json:"type"`
	UserID          *int64    `json:"user_id,omitempty"`
	RequestID       *int64    `json:"request_id,omitempty"`

	// Joined fields (not always populated).
	ItemName          string `json:"item_name,omitempty"`
	FromWarehouseName string `json:"from_warehouse_name,omitempty"`
	ToWarehouseName   string `json:"to_warehouse_name,omitempty"`
}

// MovementFilter narrows movement listings. Zero values match everything.
// WarehouseID matches either side of a movement.
type MovementFilter struct {
	ItemID      int64
	WarehouseID int64
}
