package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rmstudio/salon-booking/internal/model"
)

// AppointmentRepo persists appointments.  Writes always go through a
// transaction-bound instance obtained from Store.InTx; the *sql.DB
// constructor exists for the read paths.
type AppointmentRepo struct {
	q       querier
	locking bool
}

// NewAppointmentRepo builds the repo over a live database handle.
func NewAppointmentRepo(db *sql.DB) *AppointmentRepo { return &AppointmentRepo{q: db} }

// forUpdate appends the row-locking clause on transaction-bound
// instances.  Two transactions working on the same appointment, such
// as concurrent deliveries of one webhook, then serialize on the row
// and the second decision sees the committed outcome of the first.
func (r *AppointmentRepo) forUpdate() string {
	if r.locking {
		return " FOR UPDATE"
	}
	return ""
}

const appointmentColumns = `id, stylist_id, client_name, client_phone, client_email,
	service_id, service_name_snapshot, service_price_snapshot,
	appt_date, slot_id, backup_time, notes, status, confirmed,
	payment_id, payment_status, total_cents, billable,
	maintenance_reminded, token, created_at`

// Create inserts the appointment and fills in its generated id.
func (r *AppointmentRepo) Create(ctx context.Context, a *model.Appointment) error {
	const q = `INSERT INTO appointments
		(stylist_id, client_name, client_phone, client_email,
		 service_id, service_name_snapshot, service_price_snapshot,
		 appt_date, slot_id, backup_time, notes, status, confirmed,
		 payment_id, payment_status, total_cents, billable,
		 maintenance_reminded, token)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.q.ExecContext(ctx, q,
		a.StylistID, a.ClientName, a.ClientPhone, a.ClientEmail,
		a.ServiceID, a.ServiceName, a.ServicePriceCents,
		a.Date.Format("2006-01-02"), a.SlotID, nullStr(a.BackupTime), a.Notes, a.Status, a.Confirmed,
		a.PaymentID, a.PaymentStatus, a.TotalCents, a.Billable,
		a.MaintenanceReminded, a.Token)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// Get fetches one appointment by id.
func (r *AppointmentRepo) Get(ctx context.Context, id uint64) (*model.Appointment, error) {
	q := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = ?` + r.forUpdate()
	return r.scanOne(r.q.QueryRowContext(ctx, q, id))
}

// GetByToken fetches one appointment by id and cancellation token.  A
// token that does not match yields the same ErrNotFound as a missing
// row, so callers cannot tell which ids exist.
func (r *AppointmentRepo) GetByToken(ctx context.Context, id uint64, token string) (*model.Appointment, error) {
	q := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = ? AND token = ?` + r.forUpdate()
	return r.scanOne(r.q.QueryRowContext(ctx, q, id, token))
}

// GetByPaymentID fetches the appointment linked to a stored provider
// payment identifier.
func (r *AppointmentRepo) GetByPaymentID(ctx context.Context, paymentID string) (*model.Appointment, error) {
	q := `SELECT ` + appointmentColumns + ` FROM appointments WHERE payment_id = ?` + r.forUpdate()
	return r.scanOne(r.q.QueryRowContext(ctx, q, paymentID))
}

// Update writes every mutable column back.  A nil SlotID clears the
// slot link; the backup time is preserved independently of it.
func (r *AppointmentRepo) Update(ctx context.Context, a *model.Appointment) error {
	const q = `UPDATE appointments SET
		stylist_id = ?, client_name = ?, client_phone = ?, client_email = ?,
		service_id = ?, service_name_snapshot = ?, service_price_snapshot = ?,
		appt_date = ?, slot_id = ?, backup_time = ?, notes = ?,
		status = ?, confirmed = ?, payment_id = ?, payment_status = ?,
		total_cents = ?, billable = ?, maintenance_reminded = ?
		WHERE id = ?`
	res, err := r.q.ExecContext(ctx, q,
		a.StylistID, a.ClientName, a.ClientPhone, a.ClientEmail,
		a.ServiceID, a.ServiceName, a.ServicePriceCents,
		a.Date.Format("2006-01-02"), a.SlotID, nullStr(a.BackupTime), a.Notes,
		a.Status, a.Confirmed, a.PaymentID, a.PaymentStatus,
		a.TotalCents, a.Billable, a.MaintenanceReminded,
		a.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// RowsAffected is also 0 on a no-change update, so confirm the
		// row really is gone before reporting it missing.
		var exists int
		if err := r.q.QueryRowContext(ctx, `SELECT 1 FROM appointments WHERE id = ?`, a.ID).Scan(&exists); errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
	}
	return nil
}

// Filter narrows List.  Zero values mean "no restriction".
//
// Fields:
//  ClientName  – substring match on the client name.
//  From, To    – inclusive date bounds.
//  ServiceID   – exact catalog reference.
//  Status      – exact lifecycle status.
//  StylistSlug – stylist selection by slug.
type Filter struct {
	ClientName  string
	From        *time.Time
	To          *time.Time
	ServiceID   *uint64
	Status      model.Status
	StylistSlug string
}

// List returns appointments matching the filter, newest day first and
// earliest time first within a day.
func (r *AppointmentRepo) List(ctx context.Context, f Filter) ([]model.Appointment, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT `)
	sb.WriteString(prefixColumns("a"))
	sb.WriteString(` FROM appointments a`)
	var args []any
	var conds []string
	if f.StylistSlug != "" {
		sb.WriteString(` JOIN stylists st ON st.id = a.stylist_id`)
		conds = append(conds, "st.slug = ?")
		args = append(args, f.StylistSlug)
	}
	if f.ClientName != "" {
		conds = append(conds, "a.client_name LIKE ?")
		args = append(args, "%"+f.ClientName+"%")
	}
	if f.From != nil {
		conds = append(conds, "a.appt_date >= ?")
		args = append(args, f.From.Format("2006-01-02"))
	}
	if f.To != nil {
		conds = append(conds, "a.appt_date <= ?")
		args = append(args, f.To.Format("2006-01-02"))
	}
	if f.ServiceID != nil {
		conds = append(conds, "a.service_id = ?")
		args = append(args, *f.ServiceID)
	}
	if f.Status != "" {
		conds = append(conds, "a.status = ?")
		args = append(args, f.Status)
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY a.appt_date DESC, a.backup_time ASC")
	return r.queryMany(ctx, sb.String(), args...)
}

// ListForDay returns the appointments of one calendar day across all
// stylists, ordered by time.  Used by the back-office dashboard.
func (r *AppointmentRepo) ListForDay(ctx context.Context, date time.Time) ([]model.Appointment, error) {
	const q = `SELECT ` + appointmentColumns + ` FROM appointments
	           WHERE appt_date = ? ORDER BY backup_time ASC`
	return r.queryMany(ctx, q, date.Format("2006-01-02"))
}

// CountByStatus returns how many appointments sit in each lifecycle
// status for the dashboard counters.
func (r *AppointmentRepo) CountByStatus(ctx context.Context) (map[model.Status]int, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT status, COUNT(*) FROM appointments GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.Status]int)
	for rows.Next() {
		var st model.Status
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		counts[st] = n
	}
	return counts, rows.Err()
}

// HistoryByEmail returns every appointment booked under an email,
// newest first.  Back-office only; clients never list by email.
func (r *AppointmentRepo) HistoryByEmail(ctx context.Context, email string) ([]model.Appointment, error) {
	const q = `SELECT ` + appointmentColumns + ` FROM appointments
	           WHERE client_email = ? ORDER BY appt_date DESC, backup_time DESC`
	return r.queryMany(ctx, q, email)
}

// DueReminders returns confirmed appointments scheduled for the given
// day, for the day-before reminder run.
func (r *AppointmentRepo) DueReminders(ctx context.Context, date time.Time) ([]model.Appointment, error) {
	const q = `SELECT ` + appointmentColumns + ` FROM appointments
	           WHERE status = ? AND appt_date = ? ORDER BY backup_time ASC`
	return r.queryMany(ctx, q, model.StatusConfirmed, date.Format("2006-01-02"))
}

// DueMaintenance returns completed appointments at least the given
// number of days old whose maintenance reminder has not been sent yet.
func (r *AppointmentRepo) DueMaintenance(ctx context.Context, olderThan time.Time) ([]model.Appointment, error) {
	const q = `SELECT ` + appointmentColumns + ` FROM appointments
	           WHERE status = ? AND maintenance_reminded = 0 AND appt_date <= ?
	           ORDER BY appt_date ASC`
	return r.queryMany(ctx, q, model.StatusCompleted, olderThan.Format("2006-01-02"))
}

// MarkMaintenanceReminded flags the appointment so the maintenance
// reminder is sent at most once.
func (r *AppointmentRepo) MarkMaintenanceReminded(ctx context.Context, id uint64) error {
	_, err := r.q.ExecContext(ctx, `UPDATE appointments SET maintenance_reminded = 1 WHERE id = ?`, id)
	return err
}

func (r *AppointmentRepo) queryMany(ctx context.Context, q string, args ...any) ([]model.Appointment, error) {
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *AppointmentRepo) scanOne(row *sql.Row) (*model.Appointment, error) {
	a, err := scanAppointment(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func scanAppointment(scan func(...any) error) (*model.Appointment, error) {
	var a model.Appointment
	var backup sql.NullString
	err := scan(
		&a.ID, &a.StylistID, &a.ClientName, &a.ClientPhone, &a.ClientEmail,
		&a.ServiceID, &a.ServiceName, &a.ServicePriceCents,
		&a.Date, &a.SlotID, &backup, &a.Notes, &a.Status, &a.Confirmed,
		&a.PaymentID, &a.PaymentStatus, &a.TotalCents, &a.Billable,
		&a.MaintenanceReminded, &a.Token, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.BackupTime = backup.String
	return &a, nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func prefixColumns(alias string) string {
	cols := strings.Split(appointmentColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}
