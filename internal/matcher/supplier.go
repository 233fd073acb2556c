package matcher

import (
	"context"

	"github.com/example/gasrapido/internal/geo"
	"github.com/example/gasrapido/internal/models"
)

// Supplier scoring weights. Distance dominates; the specialty axis is a
// coarse has-any-specialty check until per-product matching lands.
const (
	supplierDistanceHorizonM = 10000.0

	supplierWeightDistance  = 0.4
	supplierWeightRating    = 0.3
	supplierWeightCapacity  = 0.2
	supplierWeightSpecialty = 0.1
)

type supplierMatch struct {
	SupplierID string
	Confidence float64
}

func scoreSupplier(s models.Supplier, pickup models.GeoPoint) float64 {
	dist := geo.Distance(pickup, s.Loc)
	distScore := clamp01(1 - dist/supplierDistanceHorizonM)
	ratingScore := s.Rating / 5
	capScore := 0.0
	if s.Capacity > 0 {
		capScore = clamp01(1 - float64(s.CurrentLoad)/float64(s.Capacity))
	}
	specialtyScore := 0.0
	if len(s.Specialties) > 0 {
		specialtyScore = 1.0
	}
	return supplierWeightDistance*distScore +
		supplierWeightRating*ratingScore +
		supplierWeightCapacity*capScore +
		supplierWeightSpecialty*specialtyScore
}

// bestSupplier picks the max-scoring candidate; on ties the earlier-listed
// candidate wins.
func bestSupplier(cands []models.Supplier, pickup models.GeoPoint) *supplierMatch {
	if len(cands) == 0 {
		return nil
	}
	best := 0
	bestScore := scoreSupplier(cands[0], pickup)
	for i := 1; i < len(cands); i++ {
		if sc := scoreSupplier(cands[i], pickup); sc > bestScore {
			best = i
			bestScore = sc
		}
	}
	return &supplierMatch{SupplierID: cands[best].ID, Confidence: bestScore}
}

func (s *Service) findBestSupplier(ctx context.Context, order *models.Order) *supplierMatch {
	cands, err := s.Directory.SuppliersNear(ctx, order.Pickup, s.topN())
	if err != nil {
		s.logger().Warn("supplier lookup failed", "order_id", order.ID, "error", err)
		return nil
	}
	return bestSupplier(cands, order.Pickup)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
