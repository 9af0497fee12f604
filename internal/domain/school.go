package domain

import (
	"math"
	"time"
)

type School struct {
	ID        int64
	Name      string
	Address   string
	ImageName string
	LandArea  float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ParkingCapacity derives the maximum number of concurrent active parking
// reservations from the school's land area. Zero or negative means the
// school cannot host parking at all.
func (s *School) ParkingCapacity() int {
	if s.LandArea <= 0 {
		return 0
	}
	return int(math.Floor(s.LandArea / ParkingAreaPerCar))
}
