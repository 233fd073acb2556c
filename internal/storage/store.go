package storage

import (
	"context"
	"sync"
	"time"

	"github.com/example/gasrapido/internal/models"
)

// OrderStore defines persistence operations for orders. A nil order with a
// nil error means "not found"; errors are reserved for store failures.
type OrderStore interface {
	SaveOrder(ctx context.Context, o *models.Order) error
	UpdateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
}

// PricingStore serves the pricing engine's reads. CommissionSettings applies
// the effective-date window itself: only settings valid at asOf come back.
type PricingStore interface {
	GetListing(ctx context.Context, id string) (*models.Listing, error)
	ActiveFactors(ctx context.Context) ([]models.PricingFactor, error)
	CommissionSettings(ctx context.Context, supplierID string, asOf time.Time) (*models.CommissionSettings, error)
}

type MemoryStore struct {
	mu          sync.RWMutex
	orders      map[string]*models.Order
	listings    map[string]models.Listing
	factors     []models.PricingFactor
	commissions []models.CommissionSettings
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:   make(map[string]*models.Order),
		listings: make(map[string]models.Listing),
	}
}

func (m *MemoryStore) SaveOrder(ctx context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *MemoryStore) UpdateOrder(ctx context.Context, o *models.Order) error {
	return m.SaveOrder(ctx, o)
}

func (m *MemoryStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (m *MemoryStore) PutListing(l models.Listing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings[l.ID] = l
}

func (m *MemoryStore) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.listings[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (m *MemoryStore) PutFactor(f models.PricingFactor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.factors = append(m.factors, f)
}

func (m *MemoryStore) ActiveFactors(ctx context.Context) ([]models.PricingFactor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.PricingFactor, 0, len(m.factors))
	for _, f := range m.factors {
		if f.Active {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *MemoryStore) PutCommission(cs models.CommissionSettings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commissions = append(m.commissions, cs)
}

func (m *MemoryStore) CommissionSettings(ctx context.Context, supplierID string, asOf time.Time) (*models.CommissionSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, cs := range m.commissions {
		if cs.SupplierID != supplierID {
			continue
		}
		if asOf.Before(cs.EffectiveFrom) {
			continue
		}
		if !cs.EffectiveTo.IsZero() && !asOf.Before(cs.EffectiveTo) {
			continue
		}
		out := cs
		return &out, nil
	}
	return nil, nil
}
