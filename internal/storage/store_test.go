package storage

import (
	"context"
	"testing"
	"time"

	"github.com/example/gasrapido/internal/models"
)

func TestMemoryStoreOrderRoundTrip(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	o := &models.Order{ID: "o1", ClientID: "c1", Status: "pending"}
	if err := m.SaveOrder(ctx, o); err != nil {
		t.Fatal(err)
	}
	o.Status = "matched" // caller-side mutation must not leak into the store
	got, err := m.GetOrder(ctx, "o1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Status != "pending" {
		t.Fatalf("expected stored copy, got %+v", got)
	}
	if missing, _ := m.GetOrder(ctx, "nope"); missing != nil {
		t.Fatal("expected nil for unknown order")
	}
}

func TestMemoryStoreActiveFactorsFilters(t *testing.T) {
	m := NewMemoryStore()
	m.PutFactor(models.PricingFactor{ID: "on", Active: true})
	m.PutFactor(models.PricingFactor{ID: "off", Active: false})
	out, err := m.ActiveFactors(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].ID != "on" {
		t.Fatalf("expected only active factors, got %+v", out)
	}
}

func TestMemoryStoreCommissionWindow(t *testing.T) {
	m := NewMemoryStore()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	m.PutCommission(models.CommissionSettings{SupplierID: "s1", CommissionRate: 0.2, DeliveryCommissionRate: 0.05, EffectiveFrom: from, EffectiveTo: to})

	ctx := context.Background()
	inside, err := m.CommissionSettings(ctx, "s1", from.AddDate(0, 1, 0))
	if err != nil {
		t.Fatal(err)
	}
	if inside == nil || inside.CommissionRate != 0.2 {
		t.Fatalf("expected settings in window, got %+v", inside)
	}
	if before, _ := m.CommissionSettings(ctx, "s1", from.AddDate(0, -1, 0)); before != nil {
		t.Fatal("expected nil before window")
	}
	if after, _ := m.CommissionSettings(ctx, "s1", to); after != nil {
		t.Fatal("expected nil at window end")
	}
	if other, _ := m.CommissionSettings(ctx, "s2", from.AddDate(0, 1, 0)); other != nil {
		t.Fatal("expected nil for other supplier")
	}
}
