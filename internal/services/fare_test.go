package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedDistance(t *testing.T) {
	distance := FixedDistance(100)
	assert.Equal(t, 100.0, distance("stn-a", "stn-b"))
	assert.Equal(t, 100.0, distance("stn-x", "stn-y"))
}

func TestTotalFare(t *testing.T) {
	calc := NewFareCalculator(FixedDistance(100))

	tests := []struct {
		name           string
		farePerKm      float64
		passengerCount int
		want           float64
	}{
		{"Single Passenger", 1.5, 1, 150},
		{"Party Of Four", 1.5, 4, 600},
		{"Premium Class", 4.0, 2, 800},
		{"Zero Passengers", 1.5, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.TotalFare("stn-a", "stn-b", tt.farePerKm, tt.passengerCount)
			assert.Equal(t, tt.want, got)
		})
	}
}
