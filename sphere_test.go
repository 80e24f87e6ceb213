package cygrid

import (
	"math"
	"testing"
)

func TestTrueAngularDistance(t *testing.T) {
	testCases := []struct {
		name                   string
		lon1, lat1, lon2, lat2 float64
		want                   float64
	}{
		{"identical points", 0, 0, 0, 0, 0},
		{"quarter circle along equator", 0, 0, math.Pi / 2, 0, math.Pi / 2},
		{"pole to equator", 0, math.Pi / 2, 0, 0, math.Pi / 2},
		{"antipodal", 0, 0, math.Pi, 0, math.Pi},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := trueAngularDistance(tc.lon1, tc.lat1, tc.lon2, tc.lat2)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestGreatCircleBearingCardinalDirections(t *testing.T) {
	testCases := []struct {
		name                   string
		lon1, lat1, lon2, lat2 float64
		want                   float64
	}{
		{"due north", 0, 0, 0, 0.1, 0},
		{"due east", 0, 0, 0.1, 0, math.Pi / 2},
		{"due south", 0, 0.1, 0, 0, math.Pi},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := greatCircleBearing(tc.lon1, tc.lat1, tc.lon2, tc.lat2)
			if math.Abs(got-tc.want) > 1e-6 {
				t.Errorf("expected bearing %v, got %v", tc.want, got)
			}
		})
	}
}

func TestWrap2Pi(t *testing.T) {
	testCases := []struct {
		in, want float64
	}{
		{0, 0},
		{2 * math.Pi, 0},
		{-math.Pi / 2, 3 * math.Pi / 2},
		{5 * math.Pi, math.Pi},
	}
	for _, tc := range testCases {
		got := wrap2Pi(tc.in)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("wrap2Pi(%v): expected %v, got %v", tc.in, tc.want, got)
		}
	}
}
