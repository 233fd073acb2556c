package models

import "time"

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Order statuses move forward only: pending -> matched -> assigned ->
// in_progress -> delivered; cancelled is terminal from any state.
type Order struct {
	ID         string    `json:"id"`
	ClientID   string    `json:"client_id"`
	SupplierID string    `json:"supplier_id,omitempty"`
	CourierID  string    `json:"courier_id,omitempty"`
	Pickup     GeoPoint  `json:"pickup_location"`
	Delivery   GeoPoint  `json:"delivery_location"`
	Status     string    `json:"status"`   // pending, matched, assigned, in_progress, delivered, cancelled
	Priority   string    `json:"priority"` // low, medium, high, urgent
	CreatedAt  time.Time `json:"created_at"`
}

type Supplier struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Loc            GeoPoint  `json:"loc"`
	Available      bool      `json:"available"`
	Rating         float64   `json:"rating"` // 0..5
	Capacity       int       `json:"capacity"`
	CurrentLoad    int       `json:"current_load"`
	Specialties    []string  `json:"specialties,omitempty"`
	OperatingHours string    `json:"operating_hours,omitempty"`
	Updated        time.Time `json:"updated"`
}

type Courier struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Loc         GeoPoint  `json:"loc"`
	Available   bool      `json:"available"`
	Rating      float64   `json:"rating"` // 0..5
	Capacity    int       `json:"capacity"`
	CurrentLoad int       `json:"current_load"`
	VehicleType string    `json:"vehicle_type"` // bike, motorcycle, car
	Updated     time.Time `json:"updated"`
}

// Cell is a fixed geographic partition used as the fallback search boundary
// when the direct proximity search yields no capacity.
type Cell struct {
	ID          string   `json:"id"`
	Center      GeoPoint `json:"center"`
	Radius      float64  `json:"radius"` // meters
	SupplierIDs []string `json:"supplier_ids,omitempty"`
	CourierIDs  []string `json:"courier_ids,omitempty"`
	Active      bool     `json:"active"`
}

type MatchResult struct {
	OrderID       string  `json:"order_id"`
	SupplierID    string  `json:"supplier_id,omitempty"`
	CourierID     string  `json:"courier_id,omitempty"`
	EstimatedTime float64 `json:"estimated_time"` // minutes
	EstimatedCost float64 `json:"estimated_cost"`
	Distance      float64 `json:"distance"`   // meters
	Confidence    float64 `json:"confidence"` // 0..1
	FallbackUsed  bool    `json:"fallback_used"`
}

type Waypoint struct {
	Kind string    `json:"kind"` // pickup, delivery, intermediate
	Loc  GeoPoint  `json:"loc"`
	ETA  time.Time `json:"eta"`
}

type RoutingResult struct {
	OrderID           string     `json:"order_id"`
	Route             []GeoPoint `json:"route"` // pickup then delivery
	Waypoints         []Waypoint `json:"waypoints"`
	TotalDistance     float64    `json:"total_distance"`     // meters
	EstimatedDuration float64    `json:"estimated_duration"` // minutes
}

// MatchOffer is what gets pushed to a courier once an order is matched.
type MatchOffer struct {
	OrderID       string   `json:"order_id"`
	CourierID     string   `json:"courier_id"`
	Pickup        GeoPoint `json:"pickup"`
	Delivery      GeoPoint `json:"delivery"`
	EstimatedTime float64  `json:"estimated_time"` // minutes
}

const (
	FactorTimeOfDay = "time_of_day"
	FactorDistance  = "distance"
	FactorDemand    = "demand"
	FactorSupply    = "supply"
	FactorWeather   = "weather"
	FactorTraffic   = "traffic"
)

// FactorConditions holds the predicate data a pricing factor is evaluated
// against. Which fields matter depends on the factor type.
type FactorConditions struct {
	Hours          []int `json:"hours,omitempty"`           // time_of_day: local hours 0..23
	StockThreshold *int  `json:"stock_threshold,omitempty"` // supply: applies at stock <= threshold
}

type PricingFactor struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Type       string           `json:"type"`
	Multiplier float64          `json:"multiplier"` // > 0
	Active     bool             `json:"is_active"`
	Conditions FactorConditions `json:"conditions"`
}

// AppliedFactor is a snapshot of a factor at the moment it was applied, so a
// stored breakdown stays explainable after the factor itself changes.
type AppliedFactor struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Multiplier float64 `json:"multiplier"`
}

// PricingBreakdown is computed fresh per quote. OrderID is left blank here;
// the order-creation flow fills it in at persistence time.
type PricingBreakdown struct {
	OrderID            string          `json:"order_id,omitempty"`
	BasePrice          float64         `json:"base_price"`
	BaseDeliveryFee    float64         `json:"base_delivery_fee"`
	AppliedFactors     []AppliedFactor `json:"applied_factors"`
	TotalMultiplier    float64         `json:"total_multiplier"`
	PlatformCommission float64         `json:"platform_commission"`
	SupplierEarning    float64         `json:"supplier_earning"`
	DeliveryEarning    float64         `json:"delivery_earning"`
	FinalCustomerPrice float64         `json:"final_customer_price"`
}

type Listing struct {
	ID            string  `json:"id"`
	SupplierID    string  `json:"supplier_id"`
	Price         float64 `json:"price"`
	DeliveryFee   float64 `json:"delivery_fee"`
	StockQuantity int     `json:"stock_quantity"`
}

type CommissionSettings struct {
	SupplierID             string    `json:"supplier_id"`
	CommissionRate         float64   `json:"commission_rate"`
	DeliveryCommissionRate float64   `json:"delivery_commission"`
	EffectiveFrom          time.Time `json:"effective_from"`
	EffectiveTo            time.Time `json:"effective_to"` // zero means open-ended
}
