package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"

	"github.com/example/gasrapido/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	// quick ping
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) SaveOrder(ctx context.Context, o *models.Order) error {
	_, err := p.db.ExecContext(ctx, `INSERT INTO orders(id, client_id, supplier_id, courier_id, pickup_lat, pickup_lng, delivery_lat, delivery_lng, status, priority, created_at) VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		o.ID, o.ClientID, nullable(o.SupplierID), nullable(o.CourierID), o.Pickup.Lat, o.Pickup.Lng, o.Delivery.Lat, o.Delivery.Lng, o.Status, o.Priority, o.CreatedAt)
	return err
}

func (p *PostgresStore) UpdateOrder(ctx context.Context, o *models.Order) error {
	_, err := p.db.ExecContext(ctx, `UPDATE orders SET supplier_id=$1, courier_id=$2, status=$3, updated_at=$4 WHERE id=$5`,
		nullable(o.SupplierID), nullable(o.CourierID), o.Status, time.Now(), o.ID)
	return err
}

func (p *PostgresStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	var supplierID, courierID sql.NullString
	err := p.db.QueryRowContext(ctx, `SELECT id, client_id, supplier_id, courier_id, pickup_lat, pickup_lng, delivery_lat, delivery_lng, status, priority, created_at FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.ClientID, &supplierID, &courierID, &o.Pickup.Lat, &o.Pickup.Lng, &o.Delivery.Lat, &o.Delivery.Lng, &o.Status, &o.Priority, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	o.SupplierID = supplierID.String
	o.CourierID = courierID.String
	return &o, nil
}

func (p *PostgresStore) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	var l models.Listing
	err := p.db.QueryRowContext(ctx, `SELECT id, supplier_id, price, delivery_fee, stock_quantity FROM listings WHERE id=$1`, id).
		Scan(&l.ID, &l.SupplierID, &l.Price, &l.DeliveryFee, &l.StockQuantity)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (p *PostgresStore) ActiveFactors(ctx context.Context) ([]models.PricingFactor, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, name, type, multiplier, conditions FROM pricing_factors WHERE is_active = true`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.PricingFactor
	for rows.Next() {
		f := models.PricingFactor{Active: true}
		var conditions []byte
		if err := rows.Scan(&f.ID, &f.Name, &f.Type, &f.Multiplier, &conditions); err != nil {
			return nil, err
		}
		if len(conditions) > 0 {
			if err := json.Unmarshal(conditions, &f.Conditions); err != nil {
				return nil, err
			}
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (p *PostgresStore) CommissionSettings(ctx context.Context, supplierID string, asOf time.Time) (*models.CommissionSettings, error) {
	var cs models.CommissionSettings
	var to sql.NullTime
	err := p.db.QueryRowContext(ctx, `SELECT supplier_id, commission_rate, delivery_commission, effective_from, effective_to FROM commission_settings WHERE supplier_id=$1 AND effective_from <= $2 AND (effective_to IS NULL OR effective_to > $2) ORDER BY effective_from DESC LIMIT 1`, supplierID, asOf).
		Scan(&cs.SupplierID, &cs.CommissionRate, &cs.DeliveryCommissionRate, &cs.EffectiveFrom, &to)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if to.Valid {
		cs.EffectiveTo = to.Time
	}
	return &cs, nil
}

// LoadCells reads the geographic partition so the in-memory cell index can
// be seeded at boot.
func (p *PostgresStore) LoadCells(ctx context.Context) ([]models.Cell, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, center_lat, center_lng, radius, supplier_ids, courier_ids, is_active FROM cells`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Cell
	for rows.Next() {
		var c models.Cell
		if err := rows.Scan(&c.ID, &c.Center.Lat, &c.Center.Lng, &c.Radius, pq.Array(&c.SupplierIDs), pq.Array(&c.CourierIDs), &c.Active); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
