package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/gasrapido/internal/catalog"
	"github.com/example/gasrapido/internal/config"
	"github.com/example/gasrapido/internal/dispatch"
	"github.com/example/gasrapido/internal/ingest"
	"github.com/example/gasrapido/internal/matcher"
	"github.com/example/gasrapido/internal/models"
	"github.com/example/gasrapido/internal/observability"
	"github.com/example/gasrapido/internal/payments"
	"github.com/example/gasrapido/internal/pricing"
	"github.com/example/gasrapido/internal/routing"
	"github.com/example/gasrapido/internal/storage"
)

type Server struct {
	Directory catalog.Directory
	Matcher   *matcher.Service
	Routing   *routing.Service
	Pricing   *pricing.Engine
	Orders    storage.OrderStore
	Kafka     *ingest.KafkaProducer
	WSReg     *dispatch.WSRegistry
	Payments  *payments.StripeClient

	logger *slog.Logger
	mux    *mux.Router
}

// Upserter is satisfied by catalogs that accept location updates.
type Upserter interface {
	UpsertSupplier(ctx context.Context, s models.Supplier) error
	UpsertCourier(ctx context.Context, c models.Courier) error
}

// NewServer wires the full service from config with in-memory fallbacks for
// every external store, so the binary runs locally without Redis/Postgres.
func NewServer(cfg config.ServerConfig, logger *slog.Logger) *Server {
	mem := catalog.NewMemory()
	var dir catalog.Directory = mem
	if cfg.RedisAddr != "" {
		dir = catalog.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisSupplierKey, cfg.RedisCourierKey)
	}

	var orders storage.OrderStore
	var priceStore pricing.Store
	if cfg.PGDSN != "" {
		if ps, err := storage.NewPostgresStore(cfg.PGDSN); err == nil {
			orders = ps
			priceStore = ps
			if cells, err := ps.LoadCells(context.Background()); err == nil {
				for _, c := range cells {
					mem.AddCell(c)
				}
			} else {
				logger.Warn("cell load failed", "error", err)
			}
		} else {
			logger.Error("postgres unavailable, falling back to memory store", "error", err)
		}
	}
	if orders == nil {
		ms := storage.NewMemoryStore()
		orders = ms
		priceStore = ms
	}

	var kp *ingest.KafkaProducer
	if len(cfg.KafkaBrokers) > 0 {
		kp = ingest.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	}

	wsreg := dispatch.NewWSRegistry()
	disp := dispatch.NewPushDispatcher(cfg.PushEndpoint, wsreg)

	m := &matcher.Service{Directory: dir, Cells: mem, Orders: orders, Dispatch: disp, Logger: logger, TopN: cfg.MatcherTopN}

	rt := &routing.Service{Orders: orders, Directory: dir, Logger: logger}
	if cfg.OSRMEndpoint != "" {
		rt.ETA = routing.NewOSRMClient(cfg.OSRMEndpoint)
		rt.Cache = routing.NewCache(time.Minute)
	}

	pe := &pricing.Engine{Store: priceStore, Logger: logger}

	var pay *payments.StripeClient
	if os.Getenv("STRIPE_API_KEY") != "" {
		pay = payments.NewStripeClient()
	}

	s := &Server{
		Directory: dir,
		Matcher:   m,
		Routing:   rt,
		Pricing:   pe,
		Orders:    orders,
		Kafka:     kp,
		WSReg:     wsreg,
		Payments:  pay,
		logger:    logger,
		mux:       mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/v1/orders", s.handleCreateOrder).Methods("POST")
	s.mux.HandleFunc("/api/v1/orders/{order_id}/match", s.handleMatchOrder).Methods("POST")
	s.mux.HandleFunc("/api/v1/orders/{order_id}/route", s.handleRoute).Methods("GET")
	s.mux.HandleFunc("/api/v1/pricing/quote", s.handlePricingQuote).Methods("POST")
	s.mux.HandleFunc("/internal/supplier/locations", s.handleSupplierLocation).Methods("POST")
	s.mux.HandleFunc("/internal/courier/locations", s.handleCourierLocation).Methods("POST")
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/ws/{courier_id}", s.handleWS)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

type createOrderRequest struct {
	ClientID string          `json:"client_id"`
	Pickup   models.GeoPoint `json:"pickup_location"`
	Delivery models.GeoPoint `json:"delivery_location"`
	Priority string          `json:"priority"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Priority == "" {
		req.Priority = "medium"
	}
	order := &models.Order{
		ID:        newID(),
		ClientID:  req.ClientID,
		Pickup:    req.Pickup,
		Delivery:  req.Delivery,
		Status:    "pending",
		Priority:  req.Priority,
		CreatedAt: time.Now(),
	}
	if err := s.Orders.SaveOrder(r.Context(), order); err != nil {
		s.logger.Error("order save failed", "error", err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) handleMatchOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["order_id"]
	order, err := s.Orders.GetOrder(r.Context(), orderID)
	if err != nil {
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	if order == nil {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	start := time.Now()
	res, ok := s.Matcher.MatchOrder(r.Context(), orderID)
	observability.MatchLatency.Observe(time.Since(start).Seconds())
	if !ok {
		http.Error(w, "no match available", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["order_id"]
	order, err := s.Orders.GetOrder(r.Context(), orderID)
	if err != nil {
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	if order == nil {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	if order.SupplierID == "" || order.CourierID == "" {
		http.Error(w, "order not fully assigned", http.StatusConflict)
		return
	}
	res, ok := s.Routing.GenerateRoute(r.Context(), orderID)
	if !ok {
		http.Error(w, "route unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type pricingQuoteRequest struct {
	ListingID   string           `json:"listing_id"`
	CustomerLoc *models.GeoPoint `json:"customer_location,omitempty"`
	ScheduledAt *time.Time       `json:"scheduled_at,omitempty"`
	Hold        bool             `json:"hold,omitempty"`
	CustomerID  string           `json:"customer_id,omitempty"`
}

type pricingQuoteResponse struct {
	models.PricingBreakdown
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
}

func (s *Server) handlePricingQuote(w http.ResponseWriter, r *http.Request) {
	var req pricingQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	breakdown, err := s.Pricing.Quote(r.Context(), req.ListingID, req.CustomerLoc, req.ScheduledAt)
	if errors.Is(err, pricing.ErrListingNotFound) {
		http.Error(w, "listing not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("pricing quote failed", "listing_id", req.ListingID, "error", err)
		http.Error(w, "pricing unavailable", http.StatusServiceUnavailable)
		return
	}
	resp := pricingQuoteResponse{PricingBreakdown: breakdown}
	if req.Hold && s.Payments != nil {
		id, err := s.Payments.Hold(r.Context(), payments.MinorUnits(breakdown.FinalCustomerPrice), "aoa", req.CustomerID)
		if err != nil {
			s.logger.Error("payment hold failed", "listing_id", req.ListingID, "error", err)
			http.Error(w, "payment hold failed", http.StatusBadGateway)
			return
		}
		resp.PaymentIntentID = id
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSupplierLocation(w http.ResponseWriter, r *http.Request) {
	var sup models.Supplier
	if err := json.NewDecoder(r.Body).Decode(&sup); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	up, ok := s.Directory.(Upserter)
	if !ok {
		http.Error(w, "catalog is read-only", http.StatusNotImplemented)
		return
	}
	if err := up.UpsertSupplier(r.Context(), sup); err != nil {
		s.logger.Error("supplier upsert failed", "supplier_id", sup.ID, "error", err)
		http.Error(w, "catalog unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCourierLocation(w http.ResponseWriter, r *http.Request) {
	var c models.Courier
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c.Available = true
	// publish to kafka if configured; the consumer owns the Redis write path
	if s.Kafka != nil {
		if err := s.Kafka.PublishLocation(c); err != nil {
			s.logger.Warn("kafka publish failed", "courier_id", c.ID, "error", err)
		}
	}
	if up, ok := s.Directory.(Upserter); ok {
		if err := up.UpsertCourier(r.Context(), c); err != nil {
			s.logger.Warn("courier upsert failed", "courier_id", c.ID, "error", err)
		}
	}
	observability.CouriersOnline.Inc()
	w.WriteHeader(http.StatusNoContent)
}

var upgrader = websocket.Upgrader{}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["courier_id"]
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "upgrade failed", http.StatusBadRequest)
		return
	}
	s.WSReg.Add(id, conn)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newID() string { b := make([]byte, 8); _, _ = rand.Read(b); return hex.EncodeToString(b) }
