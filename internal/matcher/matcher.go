package matcher

import (
	"context"
	"log/slog"

	"github.com/example/gasrapido/internal/catalog"
	"github.com/example/gasrapido/internal/geo"
	"github.com/example/gasrapido/internal/models"
	"github.com/example/gasrapido/internal/observability"
)

type OrderStore interface {
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	UpdateOrder(ctx context.Context, o *models.Order) error
}

type Dispatcher interface {
	Offer(orderID string, offer models.MatchOffer) error
}

type Service struct {
	Directory catalog.Directory
	Cells     catalog.CellIndex
	Orders    OrderStore
	Dispatch  Dispatcher // optional
	Logger    *slog.Logger
	TopN      int
}

// Placeholder ETAs for degraded paths. Full matches get a distance-derived
// estimate instead; these stay fixed until product confirms the intent.
const (
	etaSupplierFallbackMin = 30
	etaCourierExhaustedMin = 45
	etaCourierFallbackMin  = 60

	minutesPerKm        = 3.0
	handlingOverheadMin = 15.0
)

// MatchOrder resolves a supplier and courier for a pending order and moves
// it to matched. The second return is false when the order is unknown, no
// capacity exists anywhere, or a collaborator failed (failures are logged
// and absorbed here; callers only see "no match").
//
// EstimatedCost is always 0: pricing belongs to the pricing engine, not the
// matcher.
func (s *Service) MatchOrder(ctx context.Context, orderID string) (models.MatchResult, bool) {
	order, err := s.Orders.GetOrder(ctx, orderID)
	if err != nil {
		s.logger().Error("order load failed", "order_id", orderID, "error", err)
		return models.MatchResult{}, false
	}
	if order == nil {
		s.logger().Debug("order not found", "order_id", orderID)
		return models.MatchResult{}, false
	}

	sup := s.findBestSupplier(ctx, order)
	if sup == nil {
		sup = s.fallbackSupplier(ctx, order.Pickup)
		if sup == nil {
			return models.MatchResult{}, false
		}
		// degraded supplier: no courier attempt yet, fixed conservative ETA
		res := models.MatchResult{
			OrderID:       order.ID,
			SupplierID:    sup.SupplierID,
			EstimatedTime: etaSupplierFallbackMin,
			Confidence:    sup.Confidence,
			FallbackUsed:  true,
		}
		s.finish(ctx, order, res)
		return res, true
	}

	supplier, err := s.Directory.SupplierByID(ctx, sup.SupplierID)
	if err != nil || supplier == nil {
		s.logger().Error("matched supplier unavailable", "supplier_id", sup.SupplierID, "error", err)
		return models.MatchResult{}, false
	}

	cour := s.findBestCourier(ctx, order, supplier.Loc)
	if cour == nil {
		fb := s.fallbackCourier(ctx, supplier.Loc)
		if fb == nil {
			res := models.MatchResult{
				OrderID:       order.ID,
				SupplierID:    sup.SupplierID,
				EstimatedTime: etaCourierExhaustedMin,
				Confidence:    sup.Confidence,
				FallbackUsed:  false,
			}
			s.finish(ctx, order, res)
			return res, true
		}
		res := models.MatchResult{
			OrderID:       order.ID,
			SupplierID:    sup.SupplierID,
			CourierID:     fb.CourierID,
			EstimatedTime: etaCourierFallbackMin,
			Confidence:    (sup.Confidence + fb.Confidence) / 2,
			FallbackUsed:  true,
		}
		s.finish(ctx, order, res)
		return res, true
	}

	dist := geo.Distance(order.Pickup, order.Delivery)
	res := models.MatchResult{
		OrderID:       order.ID,
		SupplierID:    sup.SupplierID,
		CourierID:     cour.CourierID,
		EstimatedTime: dist/1000*minutesPerKm + handlingOverheadMin,
		Distance:      dist,
		Confidence:    (sup.Confidence + cour.Confidence) / 2,
		FallbackUsed:  false,
	}
	s.finish(ctx, order, res)
	return res, true
}

func (s *Service) finish(ctx context.Context, order *models.Order, res models.MatchResult) {
	order.SupplierID = res.SupplierID
	order.CourierID = res.CourierID
	order.Status = "matched"
	if err := s.Orders.UpdateOrder(ctx, order); err != nil {
		s.logger().Error("order update failed", "order_id", order.ID, "error", err)
	}
	if s.Dispatch != nil && res.CourierID != "" {
		offer := models.MatchOffer{
			OrderID:       order.ID,
			CourierID:     res.CourierID,
			Pickup:        order.Pickup,
			Delivery:      order.Delivery,
			EstimatedTime: res.EstimatedTime,
		}
		_ = s.Dispatch.Offer(order.ID, offer) // best-effort
	}
	observability.MatchesTotal.Inc()
	if res.FallbackUsed {
		observability.FallbackMatchesTotal.Inc()
	}
}

func (s *Service) topN() int {
	if s.TopN <= 0 {
		return 10
	}
	return s.TopN
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
