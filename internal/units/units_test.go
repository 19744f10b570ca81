package units

import (
	"math"
	"testing"
)

func TestConvertAngle(t *testing.T) {
	tests := []struct {
		name     string
		rad      float64
		units    string
		expected float64
	}{
		{"pi to deg", math.Pi, Degrees, 180.0},
		{"half pi to deg", math.Pi / 2, Degrees, 90.0},
		{"pi to rad", math.Pi, Radians, math.Pi},
		{"unknown units default to rad", 1.0, "unknown", 1.0},
		{"zero to deg", 0.0, Degrees, 0.0},
		{"negative to deg", -math.Pi / 4, Degrees, -45.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertAngle(tt.rad, tt.units)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("ConvertAngle(%f, %s) = %f, want %f", tt.rad, tt.units, result, tt.expected)
			}
		})
	}
}

func TestDegreesRadiansRoundTrip(t *testing.T) {
	for _, deg := range []float64{0, 10, 45, 90, 180, 270, 359.5, -30} {
		got := RadiansToDegrees(DegreesToRadians(deg))
		if math.Abs(got-deg) > 1e-9 {
			t.Errorf("round trip of %v = %v", deg, got)
		}
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"valid rad", Radians, true},
		{"valid deg", Degrees, true},
		{"invalid unit", "grad", false},
		{"empty string", "", false},
		{"case sensitive", "DEG", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValid(tt.unit)
			if result != tt.expected {
				t.Errorf("IsValid(%s) = %v, want %v", tt.unit, result, tt.expected)
			}
		})
	}
}

func TestGetValidUnitsString(t *testing.T) {
	if got := GetValidUnitsString(); got != "rad, deg" {
		t.Errorf("GetValidUnitsString() = %q", got)
	}
}

func TestRoundSignificant(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		n    int
		want float64
	}{
		{"five figures", 3.14159265, 5, 3.1416},
		{"small value", 0.000123456, 3, 0.000123},
		{"large value", 123456.7, 2, 120000},
		{"negative", -2.718281828, 4, -2.718},
		{"zero", 0, 5, 0},
		{"no rounding", 1.23456789, 0, 1.23456789},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundSignificant(tt.v, tt.n)
			if math.Abs(got-tt.want) > 1e-12*math.Max(1, math.Abs(tt.want)) {
				t.Errorf("RoundSignificant(%v, %d) = %v, want %v", tt.v, tt.n, got, tt.want)
			}
		})
	}
}
