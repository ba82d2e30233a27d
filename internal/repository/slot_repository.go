package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/rmstudio/salon-booking/internal/model"
)

// SlotRepo persists schedule slots.  The availability flag is only
// ever written through Claim, Release and Lock; everything else treats
// it as read-only.
type SlotRepo struct {
	q querier
}

// NewSlotRepo builds the repo over a live database handle.  Inside a
// transaction the Store hands out tx-bound instances instead.
func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{q: db} }

// Get fetches one slot by id.
func (r *SlotRepo) Get(ctx context.Context, id uint64) (*model.Slot, error) {
	const q = `SELECT id, stylist_id, slot_date, slot_time, available
	           FROM slots WHERE id = ?`
	var s model.Slot
	err := r.q.QueryRowContext(ctx, q, id).
		Scan(&s.ID, &s.StylistID, &s.Date, &s.TimeOfDay, &s.Available)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Claim atomically flips the slot from available to taken.  The WHERE
// clause carries the availability condition, so under concurrent
// requests the database serializes the updates and exactly one caller
// sees one affected row.  A read-then-write here would reintroduce the
// double-booking race.
func (r *SlotRepo) Claim(ctx context.Context, id uint64) (bool, error) {
	const q = `UPDATE slots SET available = 0 WHERE id = ? AND available = 1`
	res, err := r.q.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Release makes the slot bookable again.  Unconditional, so releasing
// an already-available slot is a harmless no-op.
func (r *SlotRepo) Release(ctx context.Context, id uint64) error {
	_, err := r.q.ExecContext(ctx, `UPDATE slots SET available = 1 WHERE id = ?`, id)
	return err
}

// Lock marks the slot taken without the availability condition.  Used
// when confirming an appointment that already owns the slot.
func (r *SlotRepo) Lock(ctx context.Context, id uint64) error {
	_, err := r.q.ExecContext(ctx, `UPDATE slots SET available = 0 WHERE id = ?`, id)
	return err
}

// Create inserts a single slot.  A (stylist, date, time) duplicate
// maps to ErrDuplicate via the unique key.
func (r *SlotRepo) Create(ctx context.Context, s *model.Slot) error {
	const q = `INSERT INTO slots (stylist_id, slot_date, slot_time, available)
	           VALUES (?, ?, ?, ?)`
	res, err := r.q.ExecContext(ctx, q, s.StylistID, s.Date.Format("2006-01-02"), s.TimeOfDay, s.Available)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GenerateRange bulk-creates available slots for a stylist between two
// dates inclusive.  weekdays selects which days of the week get slots;
// times is the list of "HH:MM:SS" times to create on each selected
// day.  Existing (stylist, date, time) rows are skipped, so the
// operation can be re-run to fill gaps without disturbing slots that
// were claimed in the meantime.  It returns the number of slots
// actually created.
func (r *SlotRepo) GenerateRange(ctx context.Context, stylistID uint64, from, to time.Time, weekdays map[time.Weekday]bool, times []string) (int, error) {
	const q = `INSERT IGNORE INTO slots (stylist_id, slot_date, slot_time, available)
	           VALUES (?, ?, ?, 1)`
	created := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if !weekdays[d.Weekday()] {
			continue
		}
		for _, tm := range times {
			res, err := r.q.ExecContext(ctx, q, stylistID, d.Format("2006-01-02"), tm)
			if err != nil {
				return created, err
			}
			if n, err := res.RowsAffected(); err == nil && n == 1 {
				created++
			}
		}
	}
	return created, nil
}

// Delete removes one slot.  Appointments pointing at it keep their
// date and backup time, so the reference is cleared first.
func (r *SlotRepo) Delete(ctx context.Context, id uint64) error {
	if _, err := r.q.ExecContext(ctx, `UPDATE appointments SET slot_id = NULL WHERE slot_id = ?`, id); err != nil {
		return err
	}
	res, err := r.q.ExecContext(ctx, `DELETE FROM slots WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AvailableDates lists the distinct upcoming days on which the stylist
// still has at least one open slot.
func (r *SlotRepo) AvailableDates(ctx context.Context, stylistID uint64, from time.Time) ([]time.Time, error) {
	const q = `SELECT DISTINCT slot_date FROM slots
	           WHERE stylist_id = ? AND available = 1 AND slot_date >= ?
	           ORDER BY slot_date`
	rows, err := r.q.QueryContext(ctx, q, stylistID, from.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// AvailableTimes lists the open slots of one stylist on one day,
// ordered by time.
func (r *SlotRepo) AvailableTimes(ctx context.Context, stylistID uint64, date time.Time) ([]model.Slot, error) {
	const q = `SELECT id, stylist_id, slot_date, slot_time, available
	           FROM slots
	           WHERE stylist_id = ? AND slot_date = ? AND available = 1
	           ORDER BY slot_time`
	return r.querySlots(ctx, q, stylistID, date.Format("2006-01-02"))
}

// ListForDay lists every slot of one stylist on one day, taken ones
// included.  Used by the back-office schedule view.
func (r *SlotRepo) ListForDay(ctx context.Context, stylistID uint64, date time.Time) ([]model.Slot, error) {
	const q = `SELECT id, stylist_id, slot_date, slot_time, available
	           FROM slots
	           WHERE stylist_id = ? AND slot_date = ?
	           ORDER BY slot_time`
	return r.querySlots(ctx, q, stylistID, date.Format("2006-01-02"))
}

func (r *SlotRepo) querySlots(ctx context.Context, q string, args ...any) ([]model.Slot, error) {
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []model.Slot
	for rows.Next() {
		var s model.Slot
		if err := rows.Scan(&s.ID, &s.StylistID, &s.Date, &s.TimeOfDay, &s.Available); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// DeleteSlots bulk-deletes slots matching the optional filters, in one
// transaction.  stylistID narrows to one stylist; before and until
// bound the date range (before is exclusive, until inclusive).
// Appointment references to the deleted slots are cleared first so the
// bookings keep their date and backup time.  It returns the number of
// slots removed.
func (s *Store) DeleteSlots(ctx context.Context, stylistID *uint64, before, until *time.Time) (int64, error) {
	where := "1 = 1"
	var args []any
	if stylistID != nil {
		where += " AND s.stylist_id = ?"
		args = append(args, *stylistID)
	}
	if before != nil {
		where += " AND s.slot_date < ?"
		args = append(args, before.Format("2006-01-02"))
	}
	if until != nil {
		where += " AND s.slot_date <= ?"
		args = append(args, until.Format("2006-01-02"))
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	detach := `UPDATE appointments a JOIN slots s ON a.slot_id = s.id
	           SET a.slot_id = NULL WHERE ` + where
	if _, err := tx.ExecContext(ctx, detach, args...); err != nil {
		return 0, err
	}

	del := `DELETE s FROM slots s WHERE ` + where
	res, err := tx.ExecContext(ctx, del, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return n, nil
}
