package geo

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		want                   float64
		tol                    float64
	}{
		{"same point", 50, -1, 50, -1, 0, 1e-9},
		{"quarter great circle", 0, 0, 0, 90, 5403.7, 1},
		{"english channel to north sea", 50, -1, 51, 2, 129.34, 0.5},
		{"one degree of latitude", 10, 20, 11, 20, 60.04, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if !almostEqual(got, tt.want, tt.tol) {
				t.Errorf("Distance() = %.2f, want %.2f (+/- %.2f)", got, tt.want, tt.tol)
			}
		})
	}
}

func TestBearing(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		want                   float64
	}{
		{"due east on equator", 0, 0, 0, 90, 90},
		{"due north", 0, 0, 10, 0, 0},
		{"due south", 10, 0, 0, 0, 180},
		{"due west", 0, 10, 0, 0, 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if !almostEqual(got, tt.want, 1e-6) {
				t.Errorf("Bearing() = %.4f, want %.4f", got, tt.want)
			}
		})
	}
}

func TestProject_RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
		bearing  float64
		distance float64
	}{
		{"channel eastbound", 50, -1, 90, 60},
		{"north atlantic", 45, -30, 237, 60},
		{"near dateline", 10, 179.5, 80, 90},
		{"southern ocean", -50, 20, 315, 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat2, lng2 := Project(tt.lat, tt.lng, tt.bearing, tt.distance)

			if d := Distance(tt.lat, tt.lng, lat2, lng2); !almostEqual(d, tt.distance, 1e-6) {
				t.Errorf("projected distance = %.6f, want %.6f", d, tt.distance)
			}

			back := Bearing(lat2, lng2, tt.lat, tt.lng)
			want := NormalizeBearing(tt.bearing + 180)
			if AngleDiff(back, want) > 2 {
				t.Errorf("back bearing = %.3f, want ~%.3f", back, want)
			}
		})
	}
}

func TestAngleDiff(t *testing.T) {
	tests := []struct {
		a, b float64
		want float64
	}{
		{90, 90, 0},
		{10, 350, 20},
		{350, 10, 20},
		{0, 180, 180},
		{270, 45, 135},
		{-30, 30, 60},
		{720, 0, 0},
	}

	for _, tt := range tests {
		if got := AngleDiff(tt.a, tt.b); !almostEqual(got, tt.want, 1e-9) {
			t.Errorf("AngleDiff(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestNormalizeLongitude(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{190, -170},
		{-190, 170},
		{179.5, 179.5},
	}

	for _, tt := range tests {
		if got := NormalizeLongitude(tt.in); !almostEqual(got, tt.want, 1e-9) {
			t.Errorf("NormalizeLongitude(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
