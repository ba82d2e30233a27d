package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/rmstudio/salon-booking/internal/model"
)

// ServiceRepo persists the service catalog.
type ServiceRepo struct {
	q querier
}

// NewServiceRepo builds the repo over a live database handle.
func NewServiceRepo(db *sql.DB) *ServiceRepo { return &ServiceRepo{q: db} }

const serviceColumns = `id, name, price_cents, description, active, display_order, created_at, updated_at`

// Get fetches one service by id, active or not.
func (r *ServiceRepo) Get(ctx context.Context, id uint64) (*model.Service, error) {
	const q = `SELECT ` + serviceColumns + ` FROM services WHERE id = ?`
	var s model.Service
	err := r.q.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.Name, &s.PriceCents, &s.Description, &s.Active,
		&s.DisplayOrder, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns services in display order.  With activeOnly set only
// the ones offered for new bookings are included.
func (r *ServiceRepo) List(ctx context.Context, activeOnly bool) ([]model.Service, error) {
	q := `SELECT ` + serviceColumns + ` FROM services`
	if activeOnly {
		q += ` WHERE active = 1`
	}
	q += ` ORDER BY display_order ASC, name ASC`

	rows, err := r.q.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []model.Service
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.PriceCents, &s.Description,
			&s.Active, &s.DisplayOrder, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

// Create inserts a catalog entry.  A duplicate name maps to
// ErrDuplicate.
func (r *ServiceRepo) Create(ctx context.Context, s *model.Service) error {
	const q = `INSERT INTO services (name, price_cents, description, active, display_order)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := r.q.ExecContext(ctx, q, s.Name, s.PriceCents, s.Description, s.Active, s.DisplayOrder)
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

// Update rewrites the catalog entry.  Appointments are not touched;
// their snapshots keep the values from booking time.
func (r *ServiceRepo) Update(ctx context.Context, s *model.Service) error {
	const q = `UPDATE services
	           SET name = ?, price_cents = ?, description = ?, active = ?, display_order = ?
	           WHERE id = ?`
	res, err := r.q.ExecContext(ctx, q, s.Name, s.PriceCents, s.Description, s.Active, s.DisplayOrder, s.ID)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return ErrDuplicate
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := r.q.QueryRowContext(ctx, `SELECT 1 FROM services WHERE id = ?`, s.ID).Scan(&exists); errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
	}
	return nil
}

// HasBlockingAppointments reports whether any pending or confirmed
// appointment still references the service.  Such a service may only
// be deactivated, never hard-deleted.
func (r *ServiceRepo) HasBlockingAppointments(ctx context.Context, id uint64) (bool, error) {
	const q = `SELECT COUNT(*) FROM appointments
	           WHERE service_id = ? AND status IN (?, ?)`
	var n int
	err := r.q.QueryRowContext(ctx, q, id, model.StatusPending, model.StatusConfirmed).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Deactivate hides the service from new bookings without touching any
// appointment that references it.
func (r *ServiceRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.q.ExecContext(ctx, `UPDATE services SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := r.q.QueryRowContext(ctx, `SELECT 1 FROM services WHERE id = ?`, id).Scan(&exists); errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
	}
	return nil
}

// Delete hard-removes the service.  It fails with ErrConflict while
// pending or confirmed appointments still reference it; historical
// references are detached, the snapshots on the appointment rows keep
// the name and price.
func (r *ServiceRepo) Delete(ctx context.Context, id uint64) error {
	blocked, err := r.HasBlockingAppointments(ctx, id)
	if err != nil {
		return err
	}
	if blocked {
		return ErrConflict
	}
	if _, err := r.q.ExecContext(ctx, `UPDATE appointments SET service_id = NULL WHERE service_id = ?`, id); err != nil {
		return err
	}
	res, err := r.q.ExecContext(ctx, `DELETE FROM services WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
