package repository

import (
	"context"
	"database/sql"

	"github.com/rmstudio/salon-booking/internal/booking"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Repositories are written against it so the same code serves both
// direct reads and transactional writes.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store owns the database handle and provides the booking package's
// transactional unit of work.  Handlers that only read may use the
// individual repositories directly.
type Store struct {
	DB *sql.DB
}

// NewStore returns a Store bound to the given database.
func NewStore(db *sql.DB) *Store { return &Store{DB: db} }

// InTx begins a transaction, hands transaction-bound stores to fn and
// commits when fn succeeds.  Any error rolls the whole transaction
// back, including a slot claim taken earlier in fn, so no partial
// reservation state can survive a failure.
func (s *Store) InTx(ctx context.Context, fn func(st booking.Stores) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(txStores{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// txStores adapts one *sql.Tx to the booking.Stores ports.
type txStores struct {
	tx *sql.Tx
}

func (s txStores) Slots() booking.SlotStore { return &SlotRepo{q: s.tx} }

// Transaction-bound appointment reads take row locks, so concurrent
// units of work on one appointment serialize instead of both acting on
// the same stale snapshot.
func (s txStores) Appointments() booking.AppointmentStore { return &AppointmentRepo{q: s.tx, locking: true} }
func (s txStores) Services() booking.ServiceStore         { return &ServiceRepo{q: s.tx} }
func (s txStores) Stylists() booking.StylistStore         { return &StylistRepo{q: s.tx} }
