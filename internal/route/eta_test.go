package route

import (
	"errors"
	"testing"
	"time"

	"github.com/ngmaloney/routewatch/internal/apperr"
)

func TestParseETA(t *testing.T) {
	now := time.Date(2024, 9, 27, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"rfc3339", "2024-10-16T22:00:00Z", time.Date(2024, 10, 16, 22, 0, 0, 0, time.UTC)},
		{"rfc3339 offset", "2024-10-16T22:00:00+02:00", time.Date(2024, 10, 16, 20, 0, 0, 0, time.UTC)},
		{"no zone", "2024-10-16T22:00:00", time.Date(2024, 10, 16, 22, 0, 0, 0, time.UTC)},
		{"fractional no zone", "2024-10-16T22:00:00.123456", time.Date(2024, 10, 16, 22, 0, 0, 123456000, time.UTC)},
		{"date only", "2024-10-16", time.Date(2024, 10, 16, 0, 0, 0, 0, time.UTC)},
		{"relative", "Oct 16, 22:00 (in 19 days)", time.Date(2024, 10, 16, 22, 0, 0, 0, time.UTC)},
		{"relative with prefix", "ETA: Oct 16, 22:00 (in 19 days)", time.Date(2024, 10, 16, 22, 0, 0, 0, time.UTC)},
		{"relative one day", "Sep 28, 06:30 (in 1 day)", time.Date(2024, 9, 28, 6, 30, 0, 0, time.UTC)},
		{"text with year", "ETA: Oct 16, 2024 22:00", time.Date(2024, 10, 16, 22, 0, 0, 0, time.UTC)},
		{"yearless", "Oct 16, 22:00", time.Date(2024, 10, 16, 22, 0, 0, 0, time.UTC)},
		{"yearless wraps", "Jan 3, 08:00", time.Date(2025, 1, 3, 8, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseETA(tt.raw, now)
			if err != nil {
				t.Fatalf("ParseETA(%q) error: %v", tt.raw, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseETA(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseETA_Unparseable(t *testing.T) {
	now := time.Date(2024, 9, 27, 10, 0, 0, 0, time.UTC)
	for _, raw := range []string{"", "   ", "soon", "ARRIVED", "Oct 99, 25:00"} {
		_, err := ParseETA(raw, now)
		if err == nil {
			t.Errorf("ParseETA(%q) expected error", raw)
			continue
		}
		if !errors.Is(err, apperr.ErrUnresolvableInput) {
			t.Errorf("ParseETA(%q) error %v is not ErrUnresolvableInput", raw, err)
		}
	}
}

func TestHorizon(t *testing.T) {
	now := time.Date(2024, 9, 27, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		eta  time.Time
		want time.Duration
	}{
		{"no eta", time.Time{}, MaxHorizon},
		{"past eta", now.Add(-time.Hour), MaxHorizon},
		{"partial day rounds up", now.Add(30 * time.Hour), 48 * time.Hour},
		{"exact days", now.Add(72 * time.Hour), 72 * time.Hour},
		{"beyond ceiling", now.Add(19 * 24 * time.Hour), MaxHorizon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Horizon(tt.eta, now); got != tt.want {
				t.Errorf("Horizon() = %v, want %v", got, tt.want)
			}
		})
	}
}
