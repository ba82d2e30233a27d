// Package repository implements MySQL persistence for slots,
// appointments, the service catalog and back-office accounts.  Sentinel
// errors defined here let handlers map storage failures onto HTTP
// responses without string matching.
package repository

import (
	"errors"

	"github.com/rmstudio/salon-booking/internal/booking"
)

// ErrNotFound is returned when a requested row does not exist.  For
// cancellation-token lookups it deliberately also covers "token does
// not match", so callers cannot distinguish a wrong token from a
// missing appointment.  It is the booking package's sentinel, so the
// domain layer can match it without depending on this package.
var ErrNotFound = booking.ErrNotFound

// ErrConflict is returned when a delete or update cannot proceed
// because of dependent state, such as hard-deleting a service that
// still has appointments referencing it.  Handlers translate this into
// an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrDuplicate is returned when an insert violates a uniqueness
// constraint, e.g. two slots for the same stylist, date and time.
var ErrDuplicate = errors.New("duplicate entry")
