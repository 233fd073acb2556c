package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/gasrapido/internal/config"
	"github.com/example/gasrapido/internal/logging"
	"github.com/example/gasrapido/internal/models"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.ServerConfig{MatcherTopN: 8}
	return NewServer(cfg, logging.NewLogger("error"))
}

func postJSON(t *testing.T, srv http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, r io.Reader, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(r).Decode(v); err != nil {
		t.Fatal(err)
	}
}

func TestOrderMatchRouteFlow(t *testing.T) {
	srv := newTestServer(t)

	// register a supplier and a courier through the intake endpoints
	if w := postJSON(t, srv, "/internal/supplier/locations", models.Supplier{
		ID: "s1", Loc: models.GeoPoint{Lat: -8.839, Lng: 13.289}, Available: true,
		Rating: 4.5, Capacity: 10, Specialties: []string{"butane-13kg"},
	}); w.Code != http.StatusNoContent {
		t.Fatalf("supplier intake: %d %s", w.Code, w.Body.String())
	}
	if w := postJSON(t, srv, "/internal/courier/locations", models.Courier{
		ID: "k1", Loc: models.GeoPoint{Lat: -8.836, Lng: 13.290}, Rating: 4.8, Capacity: 3, VehicleType: "motorcycle",
	}); w.Code != http.StatusNoContent {
		t.Fatalf("courier intake: %d %s", w.Code, w.Body.String())
	}

	w := postJSON(t, srv, "/api/v1/orders", createOrderRequest{
		ClientID: "c1",
		Pickup:   models.GeoPoint{Lat: -8.839, Lng: 13.289},
		Delivery: models.GeoPoint{Lat: -8.835, Lng: 13.290},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create order: %d %s", w.Code, w.Body.String())
	}
	var order models.Order
	decode(t, w.Body, &order)
	if order.Status != "pending" || order.Priority != "medium" {
		t.Fatalf("unexpected order defaults: %+v", order)
	}

	w = postJSON(t, srv, "/api/v1/orders/"+order.ID+"/match", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("match: %d %s", w.Code, w.Body.String())
	}
	var res models.MatchResult
	decode(t, w.Body, &res)
	if res.SupplierID != "s1" || res.CourierID != "k1" || res.FallbackUsed {
		t.Fatalf("unexpected match: %+v", res)
	}

	req := httptest.NewRequest("GET", "/api/v1/orders/"+order.ID+"/route", nil)
	rw := httptest.NewRecorder()
	srv.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("route: %d %s", rw.Code, rw.Body.String())
	}
	var route models.RoutingResult
	decode(t, rw.Body, &route)
	if len(route.Waypoints) != 2 || route.Waypoints[0].Kind != "pickup" {
		t.Fatalf("unexpected route: %+v", route)
	}
}

func TestMatchUnknownOrderIs404(t *testing.T) {
	srv := newTestServer(t)
	if w := postJSON(t, srv, "/api/v1/orders/nope/match", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestMatchWithoutCapacityIs503(t *testing.T) {
	srv := newTestServer(t)
	w := postJSON(t, srv, "/api/v1/orders", createOrderRequest{ClientID: "c1"})
	var order models.Order
	decode(t, w.Body, &order)
	if w := postJSON(t, srv, "/api/v1/orders/"+order.ID+"/match", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestRouteBeforeAssignmentIs409(t *testing.T) {
	srv := newTestServer(t)
	w := postJSON(t, srv, "/api/v1/orders", createOrderRequest{ClientID: "c1"})
	var order models.Order
	decode(t, w.Body, &order)
	req := httptest.NewRequest("GET", "/api/v1/orders/"+order.ID+"/route", nil)
	rw := httptest.NewRecorder()
	srv.ServeHTTP(rw, req)
	if rw.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rw.Code)
	}
}

func TestPricingQuoteUnknownListingIs404(t *testing.T) {
	srv := newTestServer(t)
	if w := postJSON(t, srv, "/api/v1/pricing/quote", pricingQuoteRequest{ListingID: "nope"}); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
