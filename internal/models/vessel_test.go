package models

import (
	"math"
	"testing"
)

func TestVesselState_Validate(t *testing.T) {
	tests := []struct {
		name    string
		vessel  VesselState
		wantErr bool
	}{
		{"valid", VesselState{Name: "Ever Given", Latitude: 50, Longitude: -1, Speed: 12}, false},
		{"position unknown", VesselState{Name: "Ghost", PositionUnknown: true}, true},
		{"latitude out of range", VesselState{Latitude: 95, Longitude: 0}, true},
		{"longitude NaN", VesselState{Latitude: 10, Longitude: math.NaN()}, true},
		{"negative speed", VesselState{Latitude: 10, Longitude: 10, Speed: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.vessel.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestVesselState_DestinationQuery(t *testing.T) {
	tests := []struct {
		name   string
		vessel VesselState
		want   string
	}{
		{"locode preferred", VesselState{Destination: "Zeebrugge", DestinationLocode: "BEZEE"}, "BEZEE"},
		{"free text fallback", VesselState{Destination: " Rotterdam "}, "Rotterdam"},
		{"nothing", VesselState{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.vessel.DestinationQuery(); got != tt.want {
				t.Errorf("DestinationQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVesselState_IsStationary(t *testing.T) {
	tests := []struct {
		speed float64
		want  bool
	}{
		{0, true},
		{1, true},
		{1.1, false},
		{15, false},
	}

	for _, tt := range tests {
		v := VesselState{Speed: tt.speed}
		if got := v.IsStationary(); got != tt.want {
			t.Errorf("IsStationary() at %v kn = %v, want %v", tt.speed, got, tt.want)
		}
	}
}

func TestPort_MatchesName(t *testing.T) {
	p := Port{Name: "Portsmouth", AlternativeNames: []string{"Portsmouth Harbour"}}

	if !p.MatchesName("portsmouth") {
		t.Error("expected case-insensitive name match")
	}
	if !p.MatchesName("PORTSMOUTH HARBOUR") {
		t.Error("expected alternative name match")
	}
	if p.MatchesName("Southampton") {
		t.Error("unexpected match for Southampton")
	}
}
