package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPaid PaymentStatus = "PAID"
)

// Payment settles a reservation. ImpUID is the externally issued transaction
// identifier and the global idempotency key: at most one payment row ever
// exists per ImpUID.
type Payment struct {
	ID          int64
	ReserveID   int64
	ImpUID      string
	MerchantUID string
	PaymentType string
	Status      PaymentStatus
	Price       int
	CreatedAt   time.Time
}
