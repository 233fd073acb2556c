package routing

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/gasrapido/internal/catalog"
	"github.com/example/gasrapido/internal/geo"
	"github.com/example/gasrapido/internal/models"
)

type OrderStore interface {
	GetOrder(ctx context.Context, id string) (*models.Order, error)
}

// Client is the optional external duration source (OSRM). Without one the
// fixed per-km model below applies.
type Client interface {
	EstimateSeconds(from, to models.GeoPoint) (float64, error)
}

type Service struct {
	Orders    OrderStore
	Directory catalog.Directory
	ETA       Client // optional
	Cache     *Cache // optional, only consulted when ETA is set
	Logger    *slog.Logger
	Now       func() time.Time // for tests; defaults to time.Now
}

// Route duration uses the same per-km constant as the matcher's full-match
// ETA but without its handling overhead; the delivery waypoint carries a
// fixed 30-minute offset. Both quirks are kept as-is from the original
// dispatch flow.
const (
	minutesPerKm      = 3.0
	deliveryETAOffset = 30 * time.Minute
)

// GenerateRoute builds the two-waypoint pickup->delivery route for a fully
// assigned order. False when the order is unknown, not yet assigned, or the
// assigned supplier/courier cannot be loaded.
func (s *Service) GenerateRoute(ctx context.Context, orderID string) (models.RoutingResult, bool) {
	order, err := s.Orders.GetOrder(ctx, orderID)
	if err != nil {
		s.logger().Error("order load failed", "order_id", orderID, "error", err)
		return models.RoutingResult{}, false
	}
	if order == nil || order.SupplierID == "" || order.CourierID == "" {
		return models.RoutingResult{}, false
	}

	supplier, err := s.Directory.SupplierByID(ctx, order.SupplierID)
	if err != nil || supplier == nil {
		s.logger().Error("supplier load failed", "supplier_id", order.SupplierID, "error", err)
		return models.RoutingResult{}, false
	}
	courier, err := s.Directory.CourierByID(ctx, order.CourierID)
	if err != nil || courier == nil {
		s.logger().Error("courier load failed", "courier_id", order.CourierID, "error", err)
		return models.RoutingResult{}, false
	}

	now := s.now()
	dist := geo.Distance(supplier.Loc, order.Delivery)
	duration := dist / 1000 * minutesPerKm
	if s.ETA != nil {
		if secs, ok := s.externalSeconds(supplier.Loc, order.Delivery); ok {
			duration = secs / 60
		}
	}

	return models.RoutingResult{
		OrderID: order.ID,
		Route:   []models.GeoPoint{supplier.Loc, order.Delivery},
		Waypoints: []models.Waypoint{
			{Kind: "pickup", Loc: supplier.Loc, ETA: now},
			{Kind: "delivery", Loc: order.Delivery, ETA: now.Add(deliveryETAOffset)},
		},
		TotalDistance:     dist,
		EstimatedDuration: duration,
	}, true
}

func (s *Service) externalSeconds(from, to models.GeoPoint) (float64, bool) {
	if s.Cache != nil {
		if v, ok := s.Cache.Get(from, to); ok {
			return v, true
		}
	}
	secs, err := s.ETA.EstimateSeconds(from, to)
	if err != nil {
		s.logger().Warn("external eta failed, using per-km model", "error", err)
		return 0, false
	}
	if s.Cache != nil {
		s.Cache.Set(from, to, secs)
	}
	return secs, true
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
