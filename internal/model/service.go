package model

import "time"

// Service is a catalog entry for something the salon offers.  Inactive
// services are hidden from the public booking flow but kept for the
// history of appointments that reference them.  Services referenced by
// pending or confirmed appointments must be deactivated rather than
// deleted.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – unique service name.
//  PriceCents   – price in cents.
//  Description  – optional free text shown to clients.
//  Active       – whether the service is offered for new bookings.
//  DisplayOrder – ordering in listings (lower first).
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Service struct {
	ID           uint64    // services.id
	Name         string    // services.name
	PriceCents   int64     // services.price_cents
	Description  string    // services.description
	Active       bool      // services.active
	DisplayOrder int       // services.display_order
	CreatedAt    time.Time // services.created_at
	UpdatedAt    time.Time // services.updated_at
}
