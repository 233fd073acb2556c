package routing

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/example/gasrapido/internal/geo"
	"github.com/example/gasrapido/internal/models"
)

type fakeOrders struct{ order *models.Order }

func (f *fakeOrders) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	if f.order != nil && f.order.ID == id {
		cp := *f.order
		return &cp, nil
	}
	return nil, nil
}

type fakeDirectory struct {
	supplier *models.Supplier
	courier  *models.Courier
}

func (f *fakeDirectory) SuppliersNear(ctx context.Context, p models.GeoPoint, limit int) ([]models.Supplier, error) {
	return nil, nil
}
func (f *fakeDirectory) CouriersNear(ctx context.Context, p models.GeoPoint, limit int) ([]models.Courier, error) {
	return nil, nil
}
func (f *fakeDirectory) SupplierByID(ctx context.Context, id string) (*models.Supplier, error) {
	return f.supplier, nil
}
func (f *fakeDirectory) CourierByID(ctx context.Context, id string) (*models.Courier, error) {
	return f.courier, nil
}

func TestGenerateRouteTwoWaypoints(t *testing.T) {
	supplierLoc := models.GeoPoint{Lat: -8.839, Lng: 13.289}
	delivery := models.GeoPoint{Lat: -8.835, Lng: 13.290}
	order := &models.Order{ID: "o1", SupplierID: "s1", CourierID: "k1", Delivery: delivery, Status: "matched"}
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := &Service{
		Orders:    &fakeOrders{order: order},
		Directory: &fakeDirectory{supplier: &models.Supplier{ID: "s1", Loc: supplierLoc}, courier: &models.Courier{ID: "k1"}},
		Now:       func() time.Time { return now },
	}

	res, ok := svc.GenerateRoute(context.Background(), "o1")
	if !ok {
		t.Fatal("expected route")
	}
	if len(res.Route) != 2 || len(res.Waypoints) != 2 {
		t.Fatalf("expected two legs, got %+v", res)
	}
	if res.Waypoints[0].Kind != "pickup" || res.Waypoints[1].Kind != "delivery" {
		t.Fatalf("unexpected waypoint kinds: %+v", res.Waypoints)
	}
	if !res.Waypoints[0].ETA.Equal(now) {
		t.Fatalf("pickup eta must be now, got %v", res.Waypoints[0].ETA)
	}
	if !res.Waypoints[1].ETA.Equal(now.Add(deliveryETAOffset)) {
		t.Fatalf("delivery eta must be now+30m, got %v", res.Waypoints[1].ETA)
	}
	wantDist := geo.Distance(supplierLoc, delivery)
	if res.TotalDistance != wantDist {
		t.Fatalf("expected distance %f, got %f", wantDist, res.TotalDistance)
	}
	// per-km model without the matcher's handling overhead
	wantDur := wantDist / 1000 * minutesPerKm
	if math.Abs(res.EstimatedDuration-wantDur) > 1e-9 {
		t.Fatalf("expected duration %f, got %f", wantDur, res.EstimatedDuration)
	}
}

func TestGenerateRouteRequiresAssignment(t *testing.T) {
	order := &models.Order{ID: "o1", SupplierID: "s1", Status: "matched"} // no courier
	svc := &Service{Orders: &fakeOrders{order: order}, Directory: &fakeDirectory{}}
	if _, ok := svc.GenerateRoute(context.Background(), "o1"); ok {
		t.Fatal("expected no route without a courier")
	}
}

func TestGenerateRouteUnknownOrder(t *testing.T) {
	svc := &Service{Orders: &fakeOrders{}, Directory: &fakeDirectory{}}
	if _, ok := svc.GenerateRoute(context.Background(), "missing"); ok {
		t.Fatal("expected no route for unknown order")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(time.Millisecond)
	a := models.GeoPoint{Lat: 1, Lng: 2}
	b := models.GeoPoint{Lat: 3, Lng: 4}
	c.Set(a, b, 120)
	if v, ok := c.Get(a, b); !ok || v != 120 {
		t.Fatalf("expected cached 120, got %f %v", v, ok)
	}
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get(a, b); ok {
		t.Fatal("expected expiry")
	}
}
