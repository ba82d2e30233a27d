package model

import "time"

// Status is the lifecycle state of an appointment.  The values are the
// ones used by the salon's data; cancelled and completed are terminal.
type Status string

const (
	StatusPending   Status = "pendente"
	StatusConfirmed Status = "confirmado"
	StatusCancelled Status = "cancelado"
	StatusCompleted Status = "concluido"
)

// Terminal reports whether the status admits no further lifecycle
// transitions.  Payment reconciliation may still record a late payment
// status on a terminal appointment without touching the lifecycle.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// PaymentStatus tracks the state of the payment attached to an
// appointment, as reported by the payment provider.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pendente"
	PaymentApproved   PaymentStatus = "aprovado"
	PaymentRejected   PaymentStatus = "rejeitado"
	PaymentProcessing PaymentStatus = "processando"
)

// Appointment is one booking request.  The service name and price are
// snapshots captured at creation time and never rewritten, so the row
// stays meaningful even after the catalog entry is edited or deleted.
// SlotID is a weak reference: when the slot is deleted or the
// appointment is cancelled the link is cleared and Date/BackupTime
// remain as the record of when the appointment was for.
//
// Fields:
//  ID                  – primary key identifier.
//  StylistID           – stylist performing the service.
//  ClientName          – client's name as entered in the booking form.
//  ClientPhone         – contact phone.
//  ClientEmail         – contact email, target of all notifications.
//  ServiceID           – catalog reference (nullable, weak).
//  ServiceName         – snapshot of the service name at creation.
//  ServicePriceCents   – snapshot of the service price at creation.
//  Date                – appointment day.
//  SlotID              – claimed schedule slot (nullable).
//  BackupTime          – time of day kept alongside the slot link so the
//                        appointment survives slot deletion ("HH:MM:SS").
//  Notes               – free text from the client.
//  Status              – lifecycle status.
//  Confirmed           – derived flag, always Status == confirmado.
//  PaymentID           – provider payment/preference identifier.
//  PaymentStatus       – provider payment state.
//  TotalCents          – amount charged; defaults to the service price.
//  Billable            – whether the row counts toward revenue reports.
//  MaintenanceReminded – whether the post-visit reminder was sent.
//  Token               – unguessable cancellation credential (uuid).
//  CreatedAt           – creation timestamp.
type Appointment struct {
	ID                  uint64        // appointments.id
	StylistID           uint64        // appointments.stylist_id
	ClientName          string        // appointments.client_name
	ClientPhone         string        // appointments.client_phone
	ClientEmail         string        // appointments.client_email
	ServiceID           *uint64       // appointments.service_id (nullable)
	ServiceName         string        // appointments.service_name_snapshot
	ServicePriceCents   int64         // appointments.service_price_snapshot
	Date                time.Time     // appointments.appt_date
	SlotID              *uint64       // appointments.slot_id (nullable)
	BackupTime          string        // appointments.backup_time (nullable, "" when unset)
	Notes               string        // appointments.notes
	Status              Status        // appointments.status
	Confirmed           bool          // appointments.confirmed
	PaymentID           string        // appointments.payment_id
	PaymentStatus       PaymentStatus // appointments.payment_status
	TotalCents          int64         // appointments.total_cents
	Billable            bool          // appointments.billable
	MaintenanceReminded bool          // appointments.maintenance_reminded
	Token               string        // appointments.token
	CreatedAt           time.Time     // appointments.created_at
}

// StartsAt resolves the effective date/time of the appointment from the
// backup time field.  The backup time is written whenever a slot is
// linked, so it is valid whether or not the slot still exists.
func (a *Appointment) StartsAt() (time.Time, bool) {
	if a.BackupTime == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("15:04:05", a.BackupTime)
	if err != nil {
		if t, err = time.Parse("15:04", a.BackupTime); err != nil {
			return time.Time{}, false
		}
	}
	d := a.Date
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC), true
}
