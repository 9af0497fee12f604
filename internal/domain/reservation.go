package domain

import "time"

type ReserveType string

const (
	ReserveTypePlace   ReserveType = "PLACE"
	ReserveTypeParking ReserveType = "PARKING"
)

func (t ReserveType) Valid() bool {
	return t == ReserveTypePlace || t == ReserveTypeParking
}

type ReserveStatus string

const (
	ReserveStatusPending   ReserveStatus = "PENDING"
	ReserveStatusWaiting   ReserveStatus = "WAITING"
	ReserveStatusCompleted ReserveStatus = "COMPLETED"
	ReserveStatusCanceled  ReserveStatus = "CANCELED"
	ReserveStatusExpired   ReserveStatus = "EXPIRED"
)

// Pricing is fixed at creation time and never recomputed.
const (
	PlacePrice     = 50000
	PlaceDeposit   = 50000
	ParkingPrice   = 30000
	ParkingDeposit = 0

	// One parking slot per 100 square meters of school land.
	ParkingAreaPerCar = 100

	// Per-user limits on active (PENDING or COMPLETED) reservations.
	MaxActiveParkingPerUser = 1
	MaxActivePlacePerUser   = 2
)

type Reservation struct {
	ID           int64
	UserID       int64
	SchoolID     int64
	Type         ReserveType
	Status       ReserveStatus
	StartDate    time.Time
	EndDate      time.Time
	WaitingOrder *int
	Price        int
	Deposit      int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ParkingEndDate returns the end of a month-long parking reservation.
func ParkingEndDate(start time.Time) time.Time {
	return start.AddDate(0, 1, 0)
}

// ReserveEvent is a requested mutation of a reservation's status.
type ReserveEvent string

const (
	EventPay    ReserveEvent = "pay"
	EventCancel ReserveEvent = "cancel"
	EventExpire ReserveEvent = "expire"
)

// NextStatus returns the status a reservation moves to when event is applied,
// or ErrInvalidStateTransition if the move is not legal from current.
func NextStatus(current ReserveStatus, event ReserveEvent) (ReserveStatus, error) {
	switch event {
	case EventPay:
		if current == ReserveStatusPending {
			return ReserveStatusCompleted, nil
		}
	case EventCancel:
		switch current {
		case ReserveStatusPending, ReserveStatusWaiting, ReserveStatusCompleted:
			return ReserveStatusCanceled, nil
		}
	case EventExpire:
		if current == ReserveStatusCompleted {
			return ReserveStatusExpired, nil
		}
	}
	return "", ErrInvalidStateTransition
}

// Active reports whether the reservation counts against capacity and
// per-user limits.
func (r *Reservation) Active() bool {
	return r.Status == ReserveStatusPending || r.Status == ReserveStatusCompleted
}
