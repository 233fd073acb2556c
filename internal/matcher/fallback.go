package matcher

import (
	"context"

	"github.com/example/gasrapido/internal/models"
)

// fallbackConfidence is fixed for any cell-sourced match: the neighbor walk
// takes the first body with capacity, it does not rank.
const fallbackConfidence = 0.7

// fallbackSupplier widens the search to cells neighboring the one covering
// p and returns the first available supplier found, in neighbor iteration
// order.
func (s *Service) fallbackSupplier(ctx context.Context, p models.GeoPoint) *supplierMatch {
	for _, cellID := range s.neighborCellIDs(ctx, p) {
		sups, err := s.Cells.SuppliersInCell(ctx, cellID)
		if err != nil {
			s.logger().Warn("cell supplier lookup failed", "cell_id", cellID, "error", err)
			continue
		}
		for _, sup := range sups {
			if sup.Available {
				return &supplierMatch{SupplierID: sup.ID, Confidence: fallbackConfidence}
			}
		}
	}
	return nil
}

func (s *Service) fallbackCourier(ctx context.Context, p models.GeoPoint) *courierMatch {
	for _, cellID := range s.neighborCellIDs(ctx, p) {
		cours, err := s.Cells.CouriersInCell(ctx, cellID)
		if err != nil {
			s.logger().Warn("cell courier lookup failed", "cell_id", cellID, "error", err)
			continue
		}
		for _, c := range cours {
			if c.Available {
				return &courierMatch{CourierID: c.ID, Confidence: fallbackConfidence}
			}
		}
	}
	return nil
}

func (s *Service) neighborCellIDs(ctx context.Context, p models.GeoPoint) []string {
	cell, err := s.Cells.CellForLocation(ctx, p)
	if err != nil {
		s.logger().Warn("cell lookup failed", "error", err)
		return nil
	}
	if cell == nil {
		return nil
	}
	neighbors, err := s.Cells.NeighborCells(ctx, cell.ID)
	if err != nil {
		s.logger().Warn("neighbor cell lookup failed", "cell_id", cell.ID, "error", err)
		return nil
	}
	ids := make([]string, 0, len(neighbors))
	for _, n := range neighbors {
		ids = append(ids, n.ID)
	}
	return ids
}
