// Package domain defines the reservation and payment entities together with
// the sentinel errors shared by repositories, services and handlers. The
// sentinels let the HTTP layer translate business failures into status codes
// with errors.Is instead of string matching.
package domain

import "errors"

// ErrValidation is returned when a required input is missing or malformed.
var ErrValidation = errors.New("invalid input")

// ErrNotFound is returned when a referenced user, school or reservation
// does not exist.
var ErrNotFound = errors.New("not found")

// ErrLimitExceeded is returned when the user's active-reservation quota for
// the requested type is exhausted.
var ErrLimitExceeded = errors.New("reservation limit exceeded")

// ErrSlotTaken is returned when the requested PLACE date already has an
// active reservation.
var ErrSlotTaken = errors.New("slot already taken")

// ErrCapacityUnavailable is returned when a school has no computable or
// positive parking capacity.
var ErrCapacityUnavailable = errors.New("parking capacity unavailable")

// ErrInvalidStateTransition is returned when the requested mutation is not
// legal from the reservation's current status.
var ErrInvalidStateTransition = errors.New("invalid state transition")

// ErrAlreadyProcessed is returned for duplicate payments and for
// reservations that are not in a payable state.
var ErrAlreadyProcessed = errors.New("payment already processed")

// ErrDataIntegrity signals that an invariant assumed by an operation does
// not hold, such as a WAITING reservation without a waiting order. It
// indicates a prior bug, not a user error, and is never retried.
var ErrDataIntegrity = errors.New("data integrity violation")
