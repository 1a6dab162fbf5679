package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ravicodry/dastaavej/model"
)

func newTestOrderStore(t *testing.T) *OrderStore {
	t.Helper()

	store, err := NewOrderStore(filepath.Join(t.TempDir(), "orders.db"))
	if err != nil {
		t.Fatalf("Failed to create order store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func TestOrderStoreCreateAndList(t *testing.T) {
	store := newTestOrderStore(t)
	ctx := context.Background()

	id, err := store.CreateOrder(ctx, "1234/1995", "1995 Sale Deed", "Priya Sharma", "9876543210|priya@example.com", "order:token_payment")
	if err != nil {
		t.Fatalf("Failed to create order: %v", err)
	}
	if id == 0 {
		t.Error("Expected non-zero order id")
	}

	orders, err := store.ListOrders(ctx)
	if err != nil {
		t.Fatalf("Failed to list orders: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("Expected 1 order, got %d", len(orders))
	}

	o := orders[0]
	if o.ID != id {
		t.Errorf("Expected id %d, got %d", id, o.ID)
	}
	if o.DocNo != "1234/1995" {
		t.Errorf("Expected doc_no 1234/1995, got %s", o.DocNo)
	}
	if o.DocName != "1995 Sale Deed" {
		t.Errorf("Expected doc name, got %s", o.DocName)
	}
	if o.CustomerName != "Priya Sharma" {
		t.Errorf("Expected customer name, got %s", o.CustomerName)
	}
	if o.ContactInfo != "9876543210|priya@example.com" {
		t.Errorf("Expected contact info, got %s", o.ContactInfo)
	}
	if o.Status != model.OrderPending {
		t.Errorf("Expected Pending status, got %s", o.Status)
	}
	if o.StageContext != "order:token_payment" {
		t.Errorf("Expected stage context, got %s", o.StageContext)
	}
	if o.RequestDate.IsZero() {
		t.Error("Expected request date to be set")
	}
}

func TestOrderStoreNormalizesEmptyDocNo(t *testing.T) {
	store := newTestOrderStore(t)
	ctx := context.Background()

	if _, err := store.CreateOrder(ctx, "", "Unknown Deed", "Ravi", "123|r@example.com", "inquiry:negotiation"); err != nil {
		t.Fatalf("Failed to create order: %v", err)
	}

	orders, err := store.ListOrders(ctx)
	if err != nil {
		t.Fatalf("Failed to list orders: %v", err)
	}
	if orders[0].DocNo != model.ManualSearchDocNo {
		t.Errorf("Expected doc_no %s, got %s", model.ManualSearchDocNo, orders[0].DocNo)
	}
}

func TestOrderStoreListMostRecentFirst(t *testing.T) {
	store := newTestOrderStore(t)
	ctx := context.Background()

	first, _ := store.CreateOrder(ctx, "1", "First", "A", "1|a@x", "order:negotiation")
	second, _ := store.CreateOrder(ctx, "2", "Second", "B", "2|b@x", "order:negotiation")

	orders, err := store.ListOrders(ctx)
	if err != nil {
		t.Fatalf("Failed to list orders: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("Expected 2 orders, got %d", len(orders))
	}
	if orders[0].ID != second || orders[1].ID != first {
		t.Errorf("Expected most recent first, got ids %d, %d", orders[0].ID, orders[1].ID)
	}
}

func TestOrderStoreUpdateStatus(t *testing.T) {
	store := newTestOrderStore(t)
	ctx := context.Background()

	id, _ := store.CreateOrder(ctx, "1234/1995", "Sale Deed", "Priya", "987|p@x", "order:token_payment")

	if err := store.UpdateStatus(ctx, id, model.OrderCompleted); err != nil {
		t.Fatalf("Failed to update status: %v", err)
	}

	orders, _ := store.ListOrders(ctx)
	if orders[0].Status != model.OrderCompleted {
		t.Errorf("Expected Completed, got %s", orders[0].Status)
	}
	// Other fields untouched
	if orders[0].DocNo != "1234/1995" || orders[0].CustomerName != "Priya" {
		t.Error("Expected other fields to be unchanged")
	}
}

func TestOrderStoreUpdateStatusRejectsUnknownValue(t *testing.T) {
	store := newTestOrderStore(t)
	ctx := context.Background()

	id, _ := store.CreateOrder(ctx, "1", "Deed", "A", "1|a@x", "order:negotiation")

	err := store.UpdateStatus(ctx, id, "Shipped")
	if !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("Expected ErrInvalidStatus, got %v", err)
	}

	orders, _ := store.ListOrders(ctx)
	if orders[0].Status != model.OrderPending {
		t.Errorf("Expected status unchanged, got %s", orders[0].Status)
	}
}

func TestOrderStoreUpdateStatusUnknownID(t *testing.T) {
	store := newTestOrderStore(t)

	err := store.UpdateStatus(context.Background(), 9999, model.OrderCompleted)
	if !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("Expected ErrOrderNotFound, got %v", err)
	}
}
