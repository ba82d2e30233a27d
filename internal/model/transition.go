package model

import (
	"errors"
	"time"
)

// ErrIllegalTransition is returned when a lifecycle transition is not
// permitted from the appointment's current status, e.g. completing a
// cancelled appointment.  Handlers translate it into a 409 response.
var ErrIllegalTransition = errors.New("illegal status transition")

// ErrPastAppointment is returned when a transition would move an
// appointment into pendente or confirmado for a date/time that has
// already passed.
var ErrPastAppointment = errors.New("appointment date is in the past")

// SlotEffect tells the caller what to do with the linked slot after a
// transition or reconciliation decision.  The decision functions never
// touch storage themselves; the booking service applies the effect
// inside its transaction.
type SlotEffect int

const (
	// SlotNone leaves the slot untouched.
	SlotNone SlotEffect = iota
	// SlotLock sets the slot unavailable (unconditional, idempotent).
	SlotLock
	// SlotRelease sets the slot available again (idempotent).
	SlotRelease
)

// Transition applies one edge of the appointment state machine to a,
// mutating its Status, Confirmed flag and, on completion, its payment
// status.  It returns the slot effect the caller must apply.  All
// status/confirmed/slot coupling lives here; callers must never set
// those fields directly.
//
// The edges are:
//
//	pendente            -> confirmado  slot locked
//	pendente|confirmado -> cancelado   slot released (and unlinked by the caller)
//	pendente|confirmado -> concluido   payment promoted pendente -> aprovado
//
// Terminal states reject every transition.  Confirming an already
// confirmed appointment is a permitted no-op so that a staff click and
// an approved-payment webhook can race harmlessly.
func Transition(a *Appointment, to Status, now time.Time) (SlotEffect, error) {
	if a.Status.Terminal() {
		return SlotNone, ErrIllegalTransition
	}
	switch to {
	case StatusConfirmed:
		if a.Status != StatusPending && a.Status != StatusConfirmed {
			return SlotNone, ErrIllegalTransition
		}
		if starts, ok := a.StartsAt(); ok && starts.Before(now) {
			return SlotNone, ErrPastAppointment
		}
		a.Status = StatusConfirmed
		a.Confirmed = true
		return SlotLock, nil
	case StatusCancelled:
		a.Status = StatusCancelled
		a.Confirmed = false
		return SlotRelease, nil
	case StatusCompleted:
		a.Status = StatusCompleted
		a.Confirmed = false
		if a.PaymentStatus == PaymentPending {
			a.PaymentStatus = PaymentApproved
		}
		return SlotNone, nil
	default:
		// pendente is only ever set at creation time.
		return SlotNone, ErrIllegalTransition
	}
}
