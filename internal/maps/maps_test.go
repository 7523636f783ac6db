package maps

import (
	"testing"

	"travelagency.app/bot/internal/model"
)

func TestDirectionsMode(t *testing.T) {
	tests := []struct {
		name string
		mode model.TransitMode
		want string
	}{
		{name: "public transport maps to transit", mode: model.ModePublicTransport, want: "transit"},
		{name: "drive or taxi maps to driving", mode: model.ModeDriveOrTaxi, want: "driving"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := directionsMode(tt.mode); got != tt.want {
				t.Errorf("directionsMode(%v) = %q, want %q", tt.mode, got, tt.want)
			}
		})
	}
}

func TestGeocodeReturnsMemoizedValueWithoutAnAPIKey(t *testing.T) {
	c := New("")
	c.geocoded["Kyoto Station"] = LatLng{Lat: 34.9858, Lng: 135.7588}

	got, err := c.Geocode(t.Context(), "Kyoto Station")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	if got != (LatLng{Lat: 34.9858, Lng: 135.7588}) {
		t.Errorf("Geocode() = %+v, want the memoized value", got)
	}
}

func TestGeocodeWithoutAPIKeyAndNoCacheHitErrors(t *testing.T) {
	c := New("")

	if _, err := c.Geocode(t.Context(), "somewhere new"); err == nil {
		t.Fatal("expected an error when no API key is configured and nothing is cached")
	}
}

func TestGeocodeCacheKeyIsTheRawString(t *testing.T) {
	c := New("")
	c.geocoded["Kyoto"] = LatLng{Lat: 1, Lng: 2}

	if _, err := c.Geocode(t.Context(), "kyoto"); err == nil {
		t.Fatal("cache lookups are exact-string, differently-cased input should miss")
	}
}

func TestDirectionsWithoutAPIKeyErrors(t *testing.T) {
	c := New("")

	if _, err := c.Directions(t.Context(), "Kyoto Station", "Fushimi Inari", model.ModePublicTransport, nil); err == nil {
		t.Fatal("expected an error when no API key is configured")
	}
}
