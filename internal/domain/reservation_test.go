package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextStatus(t *testing.T) {
	testCases := []struct {
		name    string
		current ReserveStatus
		event   ReserveEvent
		want    ReserveStatus
		wantErr bool
	}{
		{"pay pending", ReserveStatusPending, EventPay, ReserveStatusCompleted, false},
		{"pay waiting", ReserveStatusWaiting, EventPay, "", true},
		{"pay completed", ReserveStatusCompleted, EventPay, "", true},
		{"pay canceled", ReserveStatusCanceled, EventPay, "", true},
		{"cancel pending", ReserveStatusPending, EventCancel, ReserveStatusCanceled, false},
		{"cancel waiting", ReserveStatusWaiting, EventCancel, ReserveStatusCanceled, false},
		{"cancel completed", ReserveStatusCompleted, EventCancel, ReserveStatusCanceled, false},
		{"cancel canceled", ReserveStatusCanceled, EventCancel, "", true},
		{"cancel expired", ReserveStatusExpired, EventCancel, "", true},
		{"expire completed", ReserveStatusCompleted, EventExpire, ReserveStatusExpired, false},
		{"expire pending", ReserveStatusPending, EventExpire, "", true},
		{"expire waiting", ReserveStatusWaiting, EventExpire, "", true},
		{"expire expired", ReserveStatusExpired, EventExpire, "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			next, err := NextStatus(tc.current, tc.event)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidStateTransition)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, next)
		})
	}
}

func TestSchoolParkingCapacity(t *testing.T) {
	testCases := []struct {
		land float64
		want int
	}{
		{0, 0},
		{-50, 0},
		{99.9, 0},
		{100, 1},
		{250, 2},
		{1050, 10},
	}

	for _, tc := range testCases {
		s := &School{LandArea: tc.land}
		assert.Equal(t, tc.want, s.ParkingCapacity(), "land=%v", tc.land)
	}
}

func TestParkingEndDate(t *testing.T) {
	start := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC), ParkingEndDate(start))
}

func TestReservationActive(t *testing.T) {
	for status, active := range map[ReserveStatus]bool{
		ReserveStatusPending:   true,
		ReserveStatusCompleted: true,
		ReserveStatusWaiting:   false,
		ReserveStatusCanceled:  false,
		ReserveStatusExpired:   false,
	} {
		r := &Reservation{Status: status}
		assert.Equal(t, active, r.Active(), "status=%s", status)
	}
}
