package services

// DistanceFunc resolves the journey distance in kilometres between two
// stations. The production distance model is an open product question; the
// default implementation returns a configured fixed distance.
type DistanceFunc func(sourceStationID, destinationStationID string) float64

// FixedDistance returns a DistanceFunc that assumes the same distance for
// every journey
func FixedDistance(km float64) DistanceFunc {
	return func(_, _ string) float64 {
		return km
	}
}

// FareCalculator computes ticket fares from distance and per-km class rates
type FareCalculator struct {
	distance DistanceFunc
}

// NewFareCalculator creates a new FareCalculator
func NewFareCalculator(distance DistanceFunc) *FareCalculator {
	return &FareCalculator{distance: distance}
}

// TotalFare computes distance × fare-per-km × passenger count
func (c *FareCalculator) TotalFare(sourceStationID, destinationStationID string, farePerKm float64, passengerCount int) float64 {
	return c.distance(sourceStationID, destinationStationID) * farePerKm * float64(passengerCount)
}
