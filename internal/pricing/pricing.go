package pricing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/example/gasrapido/internal/models"
	"github.com/example/gasrapido/internal/observability"
)

// Store serves the engine's reads; CommissionSettings must already apply the
// effective-date window and return nil when nothing is in force.
type Store interface {
	GetListing(ctx context.Context, id string) (*models.Listing, error)
	ActiveFactors(ctx context.Context) ([]models.PricingFactor, error)
	CommissionSettings(ctx context.Context, supplierID string, asOf time.Time) (*models.CommissionSettings, error)
}

// Defaults when a supplier has no commission settings in force.
const (
	defaultCommissionRate         = 0.15
	defaultDeliveryCommissionRate = 0.10
)

var ErrListingNotFound = errors.New("listing not found")

type Engine struct {
	Store  Store
	Logger *slog.Logger
	Now    func() time.Time // for tests; defaults to time.Now
}

// Quote computes the dynamic price breakdown for one listing. Factors
// compound multiplicatively, and the delivery fee is surged with the same
// multiplier as the product price. The breakdown is order-agnostic: OrderID
// stays blank for the caller to fill at persistence time.
//
// customerLoc is accepted for the distance factor type, which has no surge
// formula yet and never applies.
func (e *Engine) Quote(ctx context.Context, listingID string, customerLoc *models.GeoPoint, scheduledAt *time.Time) (models.PricingBreakdown, error) {
	listing, err := e.Store.GetListing(ctx, listingID)
	if err != nil {
		return models.PricingBreakdown{}, err
	}
	if listing == nil {
		return models.PricingBreakdown{}, ErrListingNotFound
	}

	at := e.now()
	if scheduledAt != nil {
		at = *scheduledAt
	}

	factors, err := e.Store.ActiveFactors(ctx)
	if err != nil {
		return models.PricingBreakdown{}, err
	}

	totalMultiplier := 1.0
	applied := make([]models.AppliedFactor, 0, len(factors))
	for _, f := range factors {
		if f.Multiplier <= 0 || !factorApplies(f, at, listing.StockQuantity) {
			continue
		}
		totalMultiplier *= f.Multiplier
		applied = append(applied, models.AppliedFactor{ID: f.ID, Name: f.Name, Type: f.Type, Multiplier: f.Multiplier})
	}

	commissionRate := defaultCommissionRate
	deliveryCommissionRate := defaultDeliveryCommissionRate
	cs, err := e.Store.CommissionSettings(ctx, listing.SupplierID, at)
	if err != nil {
		e.logger().Warn("commission lookup failed, using defaults", "supplier_id", listing.SupplierID, "error", err)
	} else if cs != nil {
		commissionRate = cs.CommissionRate
		deliveryCommissionRate = cs.DeliveryCommissionRate
	}

	adjustedProduct := listing.Price * totalMultiplier
	adjustedDelivery := listing.DeliveryFee * totalMultiplier
	platformCommission := adjustedProduct * commissionRate
	deliveryCommission := adjustedDelivery * deliveryCommissionRate

	observability.PricingQuotesTotal.Inc()

	return models.PricingBreakdown{
		BasePrice:          listing.Price,
		BaseDeliveryFee:    listing.DeliveryFee,
		AppliedFactors:     applied,
		TotalMultiplier:    totalMultiplier,
		PlatformCommission: platformCommission,
		SupplierEarning:    adjustedProduct - platformCommission,
		DeliveryEarning:    adjustedDelivery - deliveryCommission,
		FinalCustomerPrice: adjustedProduct + adjustedDelivery,
	}, nil
}

func factorApplies(f models.PricingFactor, at time.Time, stock int) bool {
	switch f.Type {
	case models.FactorTimeOfDay:
		for _, h := range f.Conditions.Hours {
			if h == at.Hour() {
				return true
			}
		}
		return false
	case models.FactorSupply:
		return f.Conditions.StockThreshold != nil && stock <= *f.Conditions.StockThreshold
	case models.FactorDistance:
		// distance surge has a schema slot but no formula yet
		return false
	default:
		// demand, weather, traffic: no evaluation rules exist
		return false
	}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
