package geocoding

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ngmaloney/routewatch/internal/apperr"
	"github.com/ngmaloney/routewatch/internal/config"
)

func newTestGeocoder(url string) *Geocoder {
	g := NewGeocoder(config.ProviderConfig{BaseURL: url, Timeout: 5})
	g.minInterval = 0
	return g
}

func TestGeocoder_Geocode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("User-Agent header not set")
		}
		if r.URL.Path != "/search" || r.URL.Query().Get("q") != "Zeebrugge" {
			t.Errorf("unexpected request %s", r.URL)
		}
		w.Write([]byte(`[
			{"lat":"51.3300","lon":"3.2000","display_name":"Zeebrugge, Brugge","category":"place","type":"village","address":{"country_code":"be"}},
			{"lat":"51.3333","lon":"3.2167","display_name":"Port of Zeebrugge","category":"landuse","type":"port","address":{"country_code":"be"}}
		]`))
	}))
	defer server.Close()

	loc, err := newTestGeocoder(server.URL).Geocode(context.Background(), " Zeebrugge ")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	if loc.Latitude != 51.3333 || loc.Longitude != 3.2167 {
		t.Errorf("got %v,%v, want the harbour result", loc.Latitude, loc.Longitude)
	}
	if loc.CountryCode != "BE" || loc.Name != "Port of Zeebrugge" {
		t.Errorf("loc = %+v", loc)
	}
}

func TestGeocoder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		query   string
		wantErr error
	}{
		{"empty query", http.StatusOK, `[]`, "  ", apperr.ErrUnresolvableInput},
		{"no results", http.StatusOK, `[]`, "Atlantis", apperr.ErrNotFound},
		{"server error", http.StatusTooManyRequests, ``, "Rotterdam", apperr.ErrProviderUnavailable},
		{"bad json", http.StatusOK, `{`, "Rotterdam", apperr.ErrProviderUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestGeocoder(server.URL).Geocode(context.Background(), tt.query)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGeocoder_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat":"1","lon":"2","display_name":"x"}]`))
	}))
	defer server.Close()

	g := newTestGeocoder(server.URL)
	g.minInterval = 200 * time.Millisecond

	start := time.Now()
	for i := 0; i < 2; i++ {
		if _, err := g.Geocode(context.Background(), "x"); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed < 200*time.Millisecond {
		t.Errorf("two calls took %v, want spacing of at least 200ms", elapsed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Geocode(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
