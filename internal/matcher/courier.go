package matcher

import (
	"context"

	"github.com/example/gasrapido/internal/geo"
	"github.com/example/gasrapido/internal/models"
)

// Courier scoring spans the full supplier->courier->customer leg. The time
// axis uses a tighter 5km horizon so short trips score high regardless of
// vehicle speed.
const (
	courierDistanceHorizonM = 20000.0
	courierTimeHorizonM     = 5000.0

	courierWeightDistance = 0.4
	courierWeightRating   = 0.25
	courierWeightCapacity = 0.15
	courierWeightVehicle  = 0.1
	courierWeightTime     = 0.1

	vehicleScoreMotorcycle = 1.0
	vehicleScoreOther      = 0.8
)

type courierMatch struct {
	CourierID  string
	Confidence float64
}

func scoreCourier(c models.Courier, supplierLoc, delivery models.GeoPoint) float64 {
	totalDist := geo.Distance(supplierLoc, c.Loc) + geo.Distance(c.Loc, delivery)
	distScore := clamp01(1 - totalDist/courierDistanceHorizonM)
	ratingScore := c.Rating / 5
	capScore := 0.0
	if c.Capacity > 0 {
		capScore = clamp01(1 - float64(c.CurrentLoad)/float64(c.Capacity))
	}
	vehicleScore := vehicleScoreOther
	if c.VehicleType == "motorcycle" {
		vehicleScore = vehicleScoreMotorcycle
	}
	timeScore := clamp01(1 - totalDist/courierTimeHorizonM)
	return courierWeightDistance*distScore +
		courierWeightRating*ratingScore +
		courierWeightCapacity*capScore +
		courierWeightVehicle*vehicleScore +
		courierWeightTime*timeScore
}

func bestCourier(cands []models.Courier, supplierLoc, delivery models.GeoPoint) *courierMatch {
	if len(cands) == 0 {
		return nil
	}
	best := 0
	bestScore := scoreCourier(cands[0], supplierLoc, delivery)
	for i := 1; i < len(cands); i++ {
		if sc := scoreCourier(cands[i], supplierLoc, delivery); sc > bestScore {
			best = i
			bestScore = sc
		}
	}
	return &courierMatch{CourierID: cands[best].ID, Confidence: bestScore}
}

func (s *Service) findBestCourier(ctx context.Context, order *models.Order, supplierLoc models.GeoPoint) *courierMatch {
	cands, err := s.Directory.CouriersNear(ctx, order.Delivery, s.topN())
	if err != nil {
		s.logger().Warn("courier lookup failed", "order_id", order.ID, "error", err)
		return nil
	}
	return bestCourier(cands, supplierLoc, order.Delivery)
}
