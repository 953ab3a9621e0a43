package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/skladisca/internal/model"
)

func TestDecrementIsConditional(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := s.AddWarehouse("A", "")
	b := s.AddWarehouse("B", "")

	item, _ := s.CreateItem(ctx, &model.Item{Name: "Widget", Quantity: 3, WarehouseID: &a.ID})

	if ok, _ := s.DecrementQuantity(ctx, item.ID, b.ID, 1); ok {
		t.Error("expected decrement in the wrong warehouse to be refused")
	}
	if ok, _ := s.DecrementQuantity(ctx, item.ID, a.ID, 4); ok {
		t.Error("expected decrement below zero to be refused")
	}
	if ok, _ := s.DecrementQuantity(ctx, item.ID, a.ID, 3); !ok {
		t.Error("expected decrement of full stock to succeed")
	}

	got, _ := s.GetItem(ctx, item.ID)
	if got.Quantity != 0 {
		t.Errorf("expected quantity 0, got %d", got.Quantity)
	}
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := s.AddWarehouse("A", "")

	item, _ := s.CreateItem(ctx, &model.Item{Name: "Widget", Quantity: 3, WarehouseID: &a.ID})
	item.Quantity = 100
	*item.WarehouseID = 99

	got, _ := s.GetItem(ctx, item.ID)
	if got.Quantity != 3 || !got.InWarehouse(a.ID) {
		t.Errorf("stored item was mutated through a returned copy: %+v", got)
	}
	if got.WarehouseName != "A" {
		t.Errorf("expected joined warehouse name, got %q", got.WarehouseName)
	}
}

func TestSetRequestStatusGuardsFromStatus(t *testing.T) {
	s := New()
	ctx := context.Background()

	r, _ := s.CreateRequest(ctx, &model.Request{Quantity: 1, Status: model.RequestPending})

	if ok, _ := s.SetRequestStatus(ctx, r.ID, model.RequestPending, model.RequestRejected, 7, time.Now()); !ok {
		t.Fatal("expected pending request to be rejected")
	}
	if ok, _ := s.SetRequestStatus(ctx, r.ID, model.RequestPending, model.RequestApproved, 7, time.Now()); ok {
		t.Error("expected second decision to miss")
	}

	list, _ := s.ListRequests(ctx, model.RequestFilter{Status: model.RequestRejected})
	if len(list) != 1 || list[0].DecidedBy == nil || *list[0].DecidedBy != 7 {
		t.Errorf("unexpected rejected list %+v", list)
	}
}
