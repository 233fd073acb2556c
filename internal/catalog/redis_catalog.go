package catalog

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/gasrapido/internal/models"
)

// Redis implements Directory on top of Redis GEO sets plus metadata hashes,
// one GEO key per entity kind. Cells stay out of Redis; pair this with a
// Memory cell index.
type Redis struct {
	client      *redis.Client
	supplierKey string
	courierKey  string
}

func NewRedis(addr, password, supplierKey, courierKey string) *Redis {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &Redis{client: c, supplierKey: supplierKey, courierKey: courierKey}
}

const nearbyRadiusMeters = 25000

func (r *Redis) UpsertSupplier(ctx context.Context, s models.Supplier) error {
	if _, err := r.client.GeoAdd(ctx, r.supplierKey, &redis.GeoLocation{Longitude: s.Loc.Lng, Latitude: s.Loc.Lat, Name: s.ID}).Result(); err != nil {
		return err
	}
	return r.client.HSet(ctx, supplierMetaKey(s.ID), map[string]interface{}{
		"name":         s.Name,
		"available":    strconv.FormatBool(s.Available),
		"rating":       strconv.FormatFloat(s.Rating, 'f', -1, 64),
		"capacity":     strconv.Itoa(s.Capacity),
		"current_load": strconv.Itoa(s.CurrentLoad),
		"specialties":  strings.Join(s.Specialties, ","),
		"updated":      time.Now().Format(time.RFC3339),
	}).Err()
}

func (r *Redis) UpsertCourier(ctx context.Context, c models.Courier) error {
	if _, err := r.client.GeoAdd(ctx, r.courierKey, &redis.GeoLocation{Longitude: c.Loc.Lng, Latitude: c.Loc.Lat, Name: c.ID}).Result(); err != nil {
		return err
	}
	return r.client.HSet(ctx, courierMetaKey(c.ID), map[string]interface{}{
		"name":         c.Name,
		"available":    strconv.FormatBool(c.Available),
		"rating":       strconv.FormatFloat(c.Rating, 'f', -1, 64),
		"capacity":     strconv.Itoa(c.Capacity),
		"current_load": strconv.Itoa(c.CurrentLoad),
		"vehicle_type": c.VehicleType,
		"updated":      time.Now().Format(time.RFC3339),
	}).Err()
}

func (r *Redis) SuppliersNear(ctx context.Context, p models.GeoPoint, limit int) ([]models.Supplier, error) {
	res, err := r.client.GeoRadius(ctx, r.supplierKey, p.Lng, p.Lat, &redis.GeoRadiusQuery{
		Radius: nearbyRadiusMeters, Unit: "m", WithCoord: true, Count: limit, Sort: "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	out := make([]models.Supplier, 0, len(res))
	for _, g := range res {
		s := models.Supplier{ID: g.Name, Loc: models.GeoPoint{Lat: g.Latitude, Lng: g.Longitude}}
		m, err := r.client.HGetAll(ctx, supplierMetaKey(g.Name)).Result()
		if err == nil {
			fillSupplierMeta(&s, m)
		}
		if !s.Available {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *Redis) CouriersNear(ctx context.Context, p models.GeoPoint, limit int) ([]models.Courier, error) {
	res, err := r.client.GeoRadius(ctx, r.courierKey, p.Lng, p.Lat, &redis.GeoRadiusQuery{
		Radius: nearbyRadiusMeters, Unit: "m", WithCoord: true, Count: limit, Sort: "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	out := make([]models.Courier, 0, len(res))
	for _, g := range res {
		c := models.Courier{ID: g.Name, Loc: models.GeoPoint{Lat: g.Latitude, Lng: g.Longitude}}
		m, err := r.client.HGetAll(ctx, courierMetaKey(g.Name)).Result()
		if err == nil {
			fillCourierMeta(&c, m)
		}
		if !c.Available {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *Redis) SupplierByID(ctx context.Context, id string) (*models.Supplier, error) {
	pos, err := r.client.GeoPos(ctx, r.supplierKey, id).Result()
	if err != nil {
		return nil, err
	}
	if len(pos) == 0 || pos[0] == nil {
		return nil, nil
	}
	s := models.Supplier{ID: id, Loc: models.GeoPoint{Lat: pos[0].Latitude, Lng: pos[0].Longitude}}
	m, err := r.client.HGetAll(ctx, supplierMetaKey(id)).Result()
	if err == nil {
		fillSupplierMeta(&s, m)
	}
	return &s, nil
}

func (r *Redis) CourierByID(ctx context.Context, id string) (*models.Courier, error) {
	pos, err := r.client.GeoPos(ctx, r.courierKey, id).Result()
	if err != nil {
		return nil, err
	}
	if len(pos) == 0 || pos[0] == nil {
		return nil, nil
	}
	c := models.Courier{ID: id, Loc: models.GeoPoint{Lat: pos[0].Latitude, Lng: pos[0].Longitude}}
	m, err := r.client.HGetAll(ctx, courierMetaKey(id)).Result()
	if err == nil {
		fillCourierMeta(&c, m)
	}
	return &c, nil
}

func fillSupplierMeta(s *models.Supplier, m map[string]string) {
	s.Name = m["name"]
	s.Available = m["available"] == "true"
	if f, err := strconv.ParseFloat(m["rating"], 64); err == nil {
		s.Rating = f
	}
	if n, err := strconv.Atoi(m["capacity"]); err == nil {
		s.Capacity = n
	}
	if n, err := strconv.Atoi(m["current_load"]); err == nil {
		s.CurrentLoad = n
	}
	if v := m["specialties"]; v != "" {
		s.Specialties = strings.Split(v, ",")
	}
}

func fillCourierMeta(c *models.Courier, m map[string]string) {
	c.Name = m["name"]
	c.Available = m["available"] == "true"
	if f, err := strconv.ParseFloat(m["rating"], 64); err == nil {
		c.Rating = f
	}
	if n, err := strconv.Atoi(m["capacity"]); err == nil {
		c.Capacity = n
	}
	if n, err := strconv.Atoi(m["current_load"]); err == nil {
		c.CurrentLoad = n
	}
	c.VehicleType = m["vehicle_type"]
}

func supplierMetaKey(id string) string { return "supplier:meta:" + id }
func courierMetaKey(id string) string  { return "courier:meta:" + id }
