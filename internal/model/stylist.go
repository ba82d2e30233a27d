package model

// Stylist is a professional whose schedule slots can be booked.  The
// slug is a URL-safe identifier used by the public booking pages.
//
// Fields:
//  ID     – primary key identifier.
//  Name   – display name.
//  Slug   – unique URL-safe identifier.
//  Active – inactive stylists are hidden from booking.
type Stylist struct {
	ID     uint64 // stylists.id
	Name   string // stylists.name
	Slug   string // stylists.slug
	Active bool   // stylists.active
}
