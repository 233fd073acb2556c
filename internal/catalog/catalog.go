package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/gasrapido/internal/geo"
	"github.com/example/gasrapido/internal/models"
)

// Directory answers proximity and identity lookups for suppliers and
// couriers. Implementations are free to back this with Redis GEO or a
// spatial SQL query; the matcher only sees this interface.
type Directory interface {
	SuppliersNear(ctx context.Context, p models.GeoPoint, limit int) ([]models.Supplier, error)
	CouriersNear(ctx context.Context, p models.GeoPoint, limit int) ([]models.Courier, error)
	SupplierByID(ctx context.Context, id string) (*models.Supplier, error)
	CourierByID(ctx context.Context, id string) (*models.Courier, error)
}

// CellIndex exposes the geographic partition used by the fallback search.
type CellIndex interface {
	CellForLocation(ctx context.Context, p models.GeoPoint) (*models.Cell, error)
	NeighborCells(ctx context.Context, cellID string) ([]models.Cell, error)
	SuppliersInCell(ctx context.Context, cellID string) ([]models.Supplier, error)
	CouriersInCell(ctx context.Context, cellID string) ([]models.Courier, error)
}

// Memory is an in-process catalog. It backs local runs and tests, and serves
// as the cell index even when proximity lookups come from Redis.
type Memory struct {
	mu        sync.RWMutex
	suppliers map[string]models.Supplier
	couriers  map[string]models.Courier
	cells     map[string]models.Cell
}

func NewMemory() *Memory {
	return &Memory{
		suppliers: make(map[string]models.Supplier),
		couriers:  make(map[string]models.Courier),
		cells:     make(map[string]models.Cell),
	}
}

func (m *Memory) UpsertSupplier(ctx context.Context, s models.Supplier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Updated = time.Now()
	m.suppliers[s.ID] = s
	return nil
}

func (m *Memory) UpsertCourier(ctx context.Context, c models.Courier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.Updated = time.Now()
	m.couriers[c.ID] = c
	return nil
}

func (m *Memory) AddCell(c models.Cell) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cells[c.ID] = c
}

// naive scan; at catalog sizes for one city this beats maintaining a geo-hash
func (m *Memory) SuppliersNear(ctx context.Context, p models.GeoPoint, limit int) ([]models.Supplier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	type pair struct {
		s    models.Supplier
		dist float64
	}
	arr := make([]pair, 0, len(m.suppliers))
	for _, s := range m.suppliers {
		if !s.Available {
			continue
		}
		arr = append(arr, pair{s, geo.Distance(p, s.Loc)})
	}
	sort.SliceStable(arr, func(i, j int) bool { return arr[i].dist < arr[j].dist })
	if limit > 0 && limit < len(arr) {
		arr = arr[:limit]
	}
	out := make([]models.Supplier, 0, len(arr))
	for _, e := range arr {
		out = append(out, e.s)
	}
	return out, nil
}

func (m *Memory) CouriersNear(ctx context.Context, p models.GeoPoint, limit int) ([]models.Courier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	type pair struct {
		c    models.Courier
		dist float64
	}
	arr := make([]pair, 0, len(m.couriers))
	for _, c := range m.couriers {
		if !c.Available {
			continue
		}
		arr = append(arr, pair{c, geo.Distance(p, c.Loc)})
	}
	sort.SliceStable(arr, func(i, j int) bool { return arr[i].dist < arr[j].dist })
	if limit > 0 && limit < len(arr) {
		arr = arr[:limit]
	}
	out := make([]models.Courier, 0, len(arr))
	for _, e := range arr {
		out = append(out, e.c)
	}
	return out, nil
}

func (m *Memory) SupplierByID(ctx context.Context, id string) (*models.Supplier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.suppliers[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (m *Memory) CourierByID(ctx context.Context, id string) (*models.Courier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.couriers[id]; ok {
		return &c, nil
	}
	return nil, nil
}

// CellForLocation returns the active cell covering p. When several overlap
// the one with the nearest center wins.
func (m *Memory) CellForLocation(ctx context.Context, p models.GeoPoint) (*models.Cell, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best *models.Cell
	bestDist := 0.0
	for _, c := range m.cells {
		if !c.Active {
			continue
		}
		d := geo.Distance(p, c.Center)
		if d > c.Radius {
			continue
		}
		if best == nil || d < bestDist {
			cc := c
			best = &cc
			bestDist = d
		}
	}
	return best, nil
}

// NeighborCells returns active cells adjacent to the given one, nearest
// center first. Two cells are neighbors when their coverage circles touch.
func (m *Memory) NeighborCells(ctx context.Context, cellID string) ([]models.Cell, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	origin, ok := m.cells[cellID]
	if !ok {
		return nil, nil
	}
	type pair struct {
		c    models.Cell
		dist float64
	}
	arr := make([]pair, 0, len(m.cells))
	for _, c := range m.cells {
		if c.ID == cellID || !c.Active {
			continue
		}
		d := geo.Distance(origin.Center, c.Center)
		if d > origin.Radius+c.Radius {
			continue
		}
		arr = append(arr, pair{c, d})
	}
	sort.SliceStable(arr, func(i, j int) bool { return arr[i].dist < arr[j].dist })
	out := make([]models.Cell, 0, len(arr))
	for _, e := range arr {
		out = append(out, e.c)
	}
	return out, nil
}

func (m *Memory) SuppliersInCell(ctx context.Context, cellID string) ([]models.Supplier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cell, ok := m.cells[cellID]
	if !ok {
		return nil, nil
	}
	out := make([]models.Supplier, 0, len(cell.SupplierIDs))
	for _, id := range cell.SupplierIDs {
		if s, ok := m.suppliers[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *Memory) CouriersInCell(ctx context.Context, cellID string) ([]models.Courier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cell, ok := m.cells[cellID]
	if !ok {
		return nil, nil
	}
	out := make([]models.Courier, 0, len(cell.CourierIDs))
	for _, id := range cell.CourierIDs {
		if c, ok := m.couriers[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}
