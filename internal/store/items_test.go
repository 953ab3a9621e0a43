package store

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/erazemk/skladisca/internal/db"
	"github.com/erazemk/skladisca/internal/model"
)

func seedItem(t *testing.T, q Querier, name, category string, warehouseID int64, quantity int) *model.Item {
	t.Helper()
	item, err := CreateItem(context.Background(), q, &model.Item{
		Name:        name,
		Category:    category,
		Price:       decimal.RequireFromString("9.99"),
		Quantity:    quantity,
		WarehouseID: &warehouseID,
	})
	if err != nil {
		t.Fatalf("CreateItem(%s): %v", name, err)
	}
	return item
}

func TestCreateAndGetItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	wh, _ := CreateWarehouse(ctx, database, "Central", "Main St 1")
	item := seedItem(t, database, "Laptop", "electronics", wh.ID, 4)

	if item.Name != "Laptop" {
		t.Errorf("expected name 'Laptop', got %q", item.Name)
	}
	if item.Quantity != 4 {
		t.Errorf("expected quantity 4, got %d", item.Quantity)
	}
	if !item.Price.Equal(decimal.RequireFromString("9.99")) {
		t.Errorf("expected price 9.99, got %s", item.Price)
	}
	if !item.InWarehouse(wh.ID) {
		t.Errorf("expected item in warehouse %d, got %v", wh.ID, item.WarehouseID)
	}
	if item.WarehouseName != "Central" {
		t.Errorf("expected warehouse name 'Central', got %q", item.WarehouseName)
	}
}

func TestFindItemByNameAndWarehouse(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a, _ := CreateWarehouse(ctx, database, "A", "")
	b, _ := CreateWarehouse(ctx, database, "B", "")
	inA := seedItem(t, database, "Widget", "", a.ID, 1)
	inB := seedItem(t, database, "Widget", "", b.ID, 2)

	got, err := FindItem(ctx, database, "Widget", b.ID)
	if err != nil {
		t.Fatalf("FindItem: %v", err)
	}
	if got == nil || got.ID != inB.ID {
		t.Errorf("expected row %d, got %+v", inB.ID, got)
	}
	if got, _ := FindItem(ctx, database, "Widget", a.ID); got == nil || got.ID != inA.ID {
		t.Errorf("expected row %d in A, got %+v", inA.ID, got)
	}
	if got, _ := FindItem(ctx, database, "Gadget", a.ID); got != nil {
		t.Error("expected nil for missing name")
	}
}

func TestSearchItemsCombinesFilters(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a, _ := CreateWarehouse(ctx, database, "A", "")
	b, _ := CreateWarehouse(ctx, database, "B", "")
	seedItem(t, database, "Blue Widget", "Hardware", a.ID, 1)
	seedItem(t, database, "Red Widget", "toys", a.ID, 1)
	seedItem(t, database, "Blue Widget", "hardware", b.ID, 1)

	tests := []struct {
		name   string
		filter model.ItemFilter
		want   int
	}{
		{"no filter", model.ItemFilter{}, 3},
		{"name substring case-insensitive", model.ItemFilter{Name: "WIDGET"}, 3},
		{"name and category", model.ItemFilter{Name: "blue", Category: "hard"}, 2},
		{"name and warehouse", model.ItemFilter{Name: "blue", WarehouseID: a.ID}, 1},
		{"category excludes", model.ItemFilter{Name: "red", Category: "hardware"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := SearchItems(ctx, database, tt.filter)
			if err != nil {
				t.Fatalf("SearchItems: %v", err)
			}
			if len(items) != tt.want {
				t.Errorf("expected %d items, got %d", tt.want, len(items))
			}
		})
	}
}

func TestSoftDeleteItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	wh, _ := CreateWarehouse(ctx, database, "A", "")
	item := seedItem(t, database, "Delete Me", "", wh.ID, 0)
	DeleteItem(ctx, database, item.ID)

	items, _ := SearchItems(ctx, database, model.ItemFilter{})
	if len(items) != 0 {
		t.Errorf("expected 0 items after soft delete, got %d", len(items))
	}
	if got, _ := GetItem(ctx, database, item.ID); got != nil {
		t.Error("expected soft-deleted item to be hidden")
	}
}

func TestUpdateItemKeepsStock(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	wh, _ := CreateWarehouse(ctx, database, "A", "")
	item := seedItem(t, database, "Widget", "", wh.ID, 5)

	err := UpdateItem(ctx, database, item.ID, "shiny", decimal.RequireFromString("12.50"), "tools")
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.Description != "shiny" || got.Category != "tools" {
		t.Errorf("descriptive fields not updated: %+v", got)
	}
	if !got.Price.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("expected price 12.5, got %s", got.Price)
	}
	if got.Quantity != 5 {
		t.Errorf("expected quantity 5, got %d", got.Quantity)
	}
}

func TestDecrementItemQuantity(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a, _ := CreateWarehouse(ctx, database, "A", "")
	b, _ := CreateWarehouse(ctx, database, "B", "")
	item := seedItem(t, database, "Widget", "", a.ID, 5)

	ok, err := DecrementItemQuantity(ctx, database, item.ID, a.ID, 5)
	if err != nil || !ok {
		t.Fatalf("expected full decrement to succeed, got %v, %v", ok, err)
	}

	ok, err = DecrementItemQuantity(ctx, database, item.ID, a.ID, 1)
	if err != nil {
		t.Fatalf("DecrementItemQuantity: %v", err)
	}
	if ok {
		t.Error("expected decrement below zero to be refused")
	}

	IncrementItemQuantity(ctx, database, item.ID, 3)
	if ok, _ := DecrementItemQuantity(ctx, database, item.ID, b.ID, 1); ok {
		t.Error("expected decrement in the wrong warehouse to be refused")
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.Quantity != 3 {
		t.Errorf("expected quantity 3, got %d", got.Quantity)
	}
}

func TestItemImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	wh, _ := CreateWarehouse(ctx, database, "A", "")
	item := seedItem(t, database, "Widget", "", wh.ID, 1)

	if err := SetItemImage(ctx, database, item.ID, []byte{1, 2, 3}, "image/jpeg"); err != nil {
		t.Fatalf("SetItemImage: %v", err)
	}
	data, mime, err := GetItemImage(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("GetItemImage: %v", err)
	}
	if len(data) != 3 || mime != "image/jpeg" {
		t.Errorf("unexpected image %v %q", data, mime)
	}
}
