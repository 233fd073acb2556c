package pricing

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/example/gasrapido/internal/models"
)

type fakeStore struct {
	listing    *models.Listing
	factors    []models.PricingFactor
	commission *models.CommissionSettings
	listingErr error
}

func (f *fakeStore) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	return f.listing, f.listingErr
}
func (f *fakeStore) ActiveFactors(ctx context.Context) ([]models.PricingFactor, error) {
	return f.factors, nil
}
func (f *fakeStore) CommissionSettings(ctx context.Context, supplierID string, asOf time.Time) (*models.CommissionSettings, error) {
	return f.commission, nil
}

var testNow = time.Date(2026, 3, 1, 22, 30, 0, 0, time.UTC)

func newEngine(st *fakeStore) *Engine {
	return &Engine{Store: st, Now: func() time.Time { return testNow }}
}

func aoaListing() *models.Listing {
	return &models.Listing{ID: "l1", SupplierID: "s1", Price: 8500, DeliveryFee: 1500, StockQuantity: 40}
}

func intPtr(v int) *int { return &v }

func TestQuoteNoFactors(t *testing.T) {
	e := newEngine(&fakeStore{listing: aoaListing()})
	b, err := e.Quote(context.Background(), "l1", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if b.TotalMultiplier != 1 {
		t.Fatalf("expected multiplier 1, got %f", b.TotalMultiplier)
	}
	if b.FinalCustomerPrice != 10000 {
		t.Fatalf("expected base+fee, got %f", b.FinalCustomerPrice)
	}
	if len(b.AppliedFactors) != 0 {
		t.Fatalf("expected no applied factors, got %+v", b.AppliedFactors)
	}
	if b.OrderID != "" {
		t.Fatal("order id must stay blank")
	}
}

func TestQuoteFactorsCompound(t *testing.T) {
	st := &fakeStore{
		listing: aoaListing(),
		factors: []models.PricingFactor{
			{ID: "f1", Type: models.FactorTimeOfDay, Multiplier: 1.2, Active: true, Conditions: models.FactorConditions{Hours: []int{22, 23}}},
			{ID: "f2", Type: models.FactorSupply, Multiplier: 1.5, Active: true, Conditions: models.FactorConditions{StockThreshold: intPtr(50)}},
		},
	}
	b, err := newEngine(st).Quote(context.Background(), "l1", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(b.TotalMultiplier-1.8) > 1e-9 {
		t.Fatalf("expected compounded 1.8, got %f", b.TotalMultiplier)
	}
	if len(b.AppliedFactors) != 2 {
		t.Fatalf("expected two snapshots, got %+v", b.AppliedFactors)
	}
}

func TestQuoteNightSurgeExact(t *testing.T) {
	st := &fakeStore{
		listing: aoaListing(),
		factors: []models.PricingFactor{
			{ID: "night", Type: models.FactorTimeOfDay, Multiplier: 1.3, Active: true, Conditions: models.FactorConditions{Hours: []int{22}}},
		},
	}
	b, err := newEngine(st).Quote(context.Background(), "l1", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	// (8500 + 1500) * 1.3
	if math.Abs(b.FinalCustomerPrice-13000) > 1e-6 {
		t.Fatalf("expected 13000 AOA, got %f", b.FinalCustomerPrice)
	}
}

func TestQuoteScheduledTimeOverridesClock(t *testing.T) {
	st := &fakeStore{
		listing: aoaListing(),
		factors: []models.PricingFactor{
			{ID: "night", Type: models.FactorTimeOfDay, Multiplier: 1.3, Active: true, Conditions: models.FactorConditions{Hours: []int{22}}},
		},
	}
	noon := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b, err := newEngine(st).Quote(context.Background(), "l1", nil, &noon)
	if err != nil {
		t.Fatal(err)
	}
	if b.TotalMultiplier != 1 {
		t.Fatalf("scheduled noon must not trigger the night factor, got %f", b.TotalMultiplier)
	}
}

func TestQuoteSupplyFactorRespectsThreshold(t *testing.T) {
	st := &fakeStore{
		listing: aoaListing(), // stock 40
		factors: []models.PricingFactor{
			{ID: "scarce", Type: models.FactorSupply, Multiplier: 2, Active: true, Conditions: models.FactorConditions{StockThreshold: intPtr(10)}},
		},
	}
	b, err := newEngine(st).Quote(context.Background(), "l1", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if b.TotalMultiplier != 1 {
		t.Fatalf("stock above threshold must not surge, got %f", b.TotalMultiplier)
	}
}

func TestQuoteDistanceFactorNeverApplies(t *testing.T) {
	st := &fakeStore{
		listing: aoaListing(),
		factors: []models.PricingFactor{
			{ID: "dist", Type: models.FactorDistance, Multiplier: 3, Active: true},
		},
	}
	loc := models.GeoPoint{Lat: -8.8, Lng: 13.2}
	b, err := newEngine(st).Quote(context.Background(), "l1", &loc, nil)
	if err != nil {
		t.Fatal(err)
	}
	if b.TotalMultiplier != 1 {
		t.Fatalf("distance factor must be a no-op, got %f", b.TotalMultiplier)
	}
}

func TestQuoteCommissionSplitInvariant(t *testing.T) {
	st := &fakeStore{
		listing: aoaListing(),
		factors: []models.PricingFactor{
			{ID: "night", Type: models.FactorTimeOfDay, Multiplier: 1.3, Active: true, Conditions: models.FactorConditions{Hours: []int{22}}},
		},
		commission: &models.CommissionSettings{SupplierID: "s1", CommissionRate: 0.2, DeliveryCommissionRate: 0.05},
	}
	b, err := newEngine(st).Quote(context.Background(), "l1", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	adjustedProduct := b.BasePrice * b.TotalMultiplier
	adjustedDelivery := b.BaseDeliveryFee * b.TotalMultiplier
	if math.Abs(b.SupplierEarning+b.PlatformCommission-adjustedProduct) > 1e-9 {
		t.Fatalf("product split broken: %f + %f != %f", b.SupplierEarning, b.PlatformCommission, adjustedProduct)
	}
	deliveryCommission := adjustedDelivery * 0.05
	if math.Abs(b.DeliveryEarning+deliveryCommission-adjustedDelivery) > 1e-9 {
		t.Fatal("delivery split broken")
	}
	if math.Abs(b.PlatformCommission-adjustedProduct*0.2) > 1e-9 {
		t.Fatalf("configured commission not honored, got %f", b.PlatformCommission)
	}
}

func TestQuoteDefaultCommissionWhenNoneInForce(t *testing.T) {
	e := newEngine(&fakeStore{listing: aoaListing()})
	b, err := e.Quote(context.Background(), "l1", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(b.PlatformCommission-8500*defaultCommissionRate) > 1e-9 {
		t.Fatalf("expected default product commission, got %f", b.PlatformCommission)
	}
	if math.Abs(b.DeliveryEarning-1500*(1-defaultDeliveryCommissionRate)) > 1e-9 {
		t.Fatalf("expected default delivery commission, got %f", b.DeliveryEarning)
	}
}

func TestQuoteListingNotFound(t *testing.T) {
	e := newEngine(&fakeStore{})
	if _, err := e.Quote(context.Background(), "nope", nil, nil); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound, got %v", err)
	}
}

func TestQuoteStoreFailure(t *testing.T) {
	e := newEngine(&fakeStore{listingErr: errors.New("store down")})
	if _, err := e.Quote(context.Background(), "l1", nil, nil); err == nil || errors.Is(err, ErrListingNotFound) {
		t.Fatalf("expected store error, got %v", err)
	}
}
