package service

import (
	"context"
	"errors"
	"testing"

	"stockpilot-api/internal/model"
)

func TestSnapshotBundlesAllCollections(t *testing.T) {
	repo := &fakeRepo{
		inventory:  []model.InventoryItem{testItem("Coffee Beans", 10, 2, 18.50)},
		sales:      []model.Sale{testSale(37, 1)},
		movements:  []model.StockMovement{{ID: "m1", UserID: "user-1"}},
		categories: []model.Category{{ID: "c1", UserID: "user-1", Name: "Beverages"}},
	}
	svc := NewContextService(repo, DefaultLimits())

	snap := svc.Snapshot(context.Background(), "user-1")

	if len(snap.Inventory) != 1 || len(snap.Sales) != 1 || len(snap.StockMovements) != 1 || len(snap.Categories) != 1 {
		t.Errorf("Snapshot incomplete: %d items, %d sales, %d movements, %d categories",
			len(snap.Inventory), len(snap.Sales), len(snap.StockMovements), len(snap.Categories))
	}
}

func TestSnapshotDegradesOnReadFailure(t *testing.T) {
	repo := &fakeRepo{
		inventoryErr: errors.New("store down"),
		sales:        []model.Sale{testSale(37, 1)},
	}
	svc := NewContextService(repo, DefaultLimits())

	snap := svc.Snapshot(context.Background(), "user-1")

	if snap == nil {
		t.Fatal("Snapshot must never be nil")
	}
	if len(snap.Inventory) != 0 {
		t.Errorf("Failed read should yield empty inventory, got %d", len(snap.Inventory))
	}
	// The healthy collection still comes through.
	if len(snap.Sales) != 1 {
		t.Errorf("Expected 1 sale despite inventory failure, got %d", len(snap.Sales))
	}
}

func TestSnapshotAllReadsFailing(t *testing.T) {
	repo := &fakeRepo{
		inventoryErr: errors.New("down"),
		salesErr:     errors.New("down"),
	}
	svc := NewContextService(repo, DefaultLimits())

	snap := svc.Snapshot(context.Background(), "user-1")
	if snap == nil {
		t.Fatal("Snapshot must never be nil")
	}

	// Downstream consumers must handle the all-empty snapshot.
	if report := testEngine().GenerateReport(snap); report.OptimizationScore != 0 {
		t.Errorf("Expected zero optimization on empty snapshot, got %d", report.OptimizationScore)
	}
}

func TestLimitsDefaulting(t *testing.T) {
	svc := NewContextService(&fakeRepo{}, Limits{})
	if svc.limits != DefaultLimits() {
		t.Errorf("Zero limits should default, got %+v", svc.limits)
	}
}
