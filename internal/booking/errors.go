package booking

import "errors"

// ErrNotFound is returned when a requested record does not exist.
// For cancellation-token lookups it deliberately also covers "token
// does not match", so callers cannot distinguish a wrong token from a
// missing appointment.  The repository package reports the same value
// so errors.Is works across both layers.
var ErrNotFound = errors.New("not found")

// ErrSlotTaken is returned when the requested slot was claimed by a
// concurrent reservation.  Handlers translate it into a 409 response
// so the client can pick another time.
var ErrSlotTaken = errors.New("slot already taken")

// ErrSlotMismatch is returned when the requested slot does not belong
// to the requested stylist.
var ErrSlotMismatch = errors.New("slot does not belong to this stylist")

// ErrNotBookable is returned when the stylist or service is inactive
// and thus not offered for new bookings.
var ErrNotBookable = errors.New("not available for booking")
