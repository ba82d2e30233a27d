package model

import (
	"fmt"
	"time"
)

// Slot is a bookable unit of a stylist's schedule.  Each (stylist,
// date, time) combination is unique.  Availability is only ever flipped
// through the repository's atomic claim/release/lock operations;
// nothing writes the flag directly.
//
// Fields:
//  ID        – primary key identifier.
//  StylistID – owner of the schedule this slot belongs to.
//  Date      – calendar day (time component is zero).
//  TimeOfDay – time of day as "HH:MM:SS".
//  Available – whether the slot can still be claimed.
type Slot struct {
	ID        uint64    // slots.id
	StylistID uint64    // slots.stylist_id
	Date      time.Time // slots.slot_date
	TimeOfDay string    // slots.slot_time
	Available bool      // slots.available
}

// CombineDayTime merges a calendar day with an "HH:MM[:SS]" time of
// day into a single UTC timestamp.  Used for the past-date checks
// during reservation and state transitions.
func CombineDayTime(day time.Time, timeOfDay string) (time.Time, error) {
	t, err := time.Parse("15:04:05", timeOfDay)
	if err != nil {
		// Some MySQL drivers return TIME columns without seconds.
		t, err = time.Parse("15:04", timeOfDay)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid time of day %q: %w", timeOfDay, err)
		}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC), nil
}

// StartsAt combines the slot's date and time-of-day into a single
// timestamp in UTC.
func (s *Slot) StartsAt() (time.Time, error) {
	return CombineDayTime(s.Date, s.TimeOfDay)
}
