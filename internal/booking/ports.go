// Package booking implements the reservation protocol, the appointment
// lifecycle operations and payment reconciliation.  It talks to storage
// through the narrow ports below so that the transactional rules can be
// exercised in tests without a database; the repository package
// provides the MySQL implementation.
package booking

import (
	"context"

	"github.com/rmstudio/salon-booking/internal/model"
)

// SlotStore is the slot persistence port.  Claim is the only way a
// slot may go from available to unavailable on behalf of a new
// reservation: it must be a single atomic conditional update, never a
// read followed by a write.
type SlotStore interface {
	// Get returns the slot or ErrNotFound.
	Get(ctx context.Context, id uint64) (*model.Slot, error)
	// Claim flips available true -> false for exactly the row that is
	// still available.  It returns true iff this caller won the slot.
	Claim(ctx context.Context, id uint64) (bool, error)
	// Release sets the slot available unconditionally.  Idempotent.
	Release(ctx context.Context, id uint64) error
	// Lock sets the slot unavailable unconditionally.  Used when an
	// appointment that already owns the slot is confirmed.  Idempotent.
	Lock(ctx context.Context, id uint64) error
}

// AppointmentStore is the appointment persistence port.
type AppointmentStore interface {
	Create(ctx context.Context, a *model.Appointment) error
	// Get returns the appointment or ErrNotFound.
	Get(ctx context.Context, id uint64) (*model.Appointment, error)
	// GetByToken returns the appointment only when both the id and the
	// cancellation token match; any mismatch is ErrNotFound.
	GetByToken(ctx context.Context, id uint64, token string) (*model.Appointment, error)
	// GetByPaymentID resolves a stored provider payment identifier
	// back to its appointment, or ErrNotFound.
	GetByPaymentID(ctx context.Context, paymentID string) (*model.Appointment, error)
	// Update persists every mutable field of a, including a cleared
	// slot link when a.SlotID is nil.
	Update(ctx context.Context, a *model.Appointment) error
}

// ServiceStore exposes the catalog reads the reservation flow needs.
type ServiceStore interface {
	Get(ctx context.Context, id uint64) (*model.Service, error)
}

// StylistStore exposes the stylist reads the reservation flow needs.
type StylistStore interface {
	Get(ctx context.Context, id uint64) (*model.Stylist, error)
}

// Stores bundles the ports visible inside one unit of work.
type Stores interface {
	Slots() SlotStore
	Appointments() AppointmentStore
	Services() ServiceStore
	Stylists() StylistStore
}

// Mailer sends the client-facing notification emails.  Calls happen
// after the surrounding transaction has committed and are best effort:
// the service logs failures but never rolls back a booking because an
// email did not go out.
type Mailer interface {
	AppointmentReceived(a *model.Appointment) error
	AppointmentConfirmed(a *model.Appointment) error
	AppointmentCancelled(a *model.Appointment) error
	AppointmentCompleted(a *model.Appointment) error
}

// Publisher emits domain events after commit, also best effort.
type Publisher interface {
	AppointmentConfirmed(a *model.Appointment) error
}

// DB runs a function within a single transaction.  When fn returns an
// error the transaction rolls back completely: a claim taken earlier in
// fn is undone along with everything else, so no slot is ever left
// claimed without its appointment.
type DB interface {
	InTx(ctx context.Context, fn func(s Stores) error) error
}
