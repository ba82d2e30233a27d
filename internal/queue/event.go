// Package queue defines message payloads exchanged over the message broker.
package queue

// AppointmentConfirmedEvent is published when an appointment reaches
// confirmado, whether by staff or by an approved payment. It carries
// enough for downstream consumers to log or notify without querying
// the primary database.
type AppointmentConfirmedEvent struct {
	AppointmentID uint64 `json:"appointment_id"`
	StylistID     uint64 `json:"stylist_id"`
	ClientName    string `json:"client_name"`
	ClientEmail   string `json:"client_email"`
	ServiceName   string `json:"service_name"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	TotalCents    int64  `json:"total_cents"`
	PaymentStatus string `json:"payment_status"`
	ConfirmedAt   string `json:"confirmed_at"`
}
