package geo

import (
	"testing"

	"github.com/example/gasrapido/internal/models"
)

func TestDistanceZero(t *testing.T) {
	d := Distance(models.GeoPoint{}, models.GeoPoint{})
	if d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestDistanceLuandaBlocks(t *testing.T) {
	// two points in central Luanda roughly 450m apart
	a := models.GeoPoint{Lat: -8.839, Lng: 13.289}
	b := models.GeoPoint{Lat: -8.835, Lng: 13.290}
	d := Distance(a, b)
	if d < 400 || d > 500 {
		t.Fatalf("expected ~450m, got %f", d)
	}
}
