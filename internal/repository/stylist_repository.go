package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rmstudio/salon-booking/internal/model"
)

// StylistRepo persists stylists.
type StylistRepo struct {
	q querier
}

// NewStylistRepo builds the repo over a live database handle.
func NewStylistRepo(db *sql.DB) *StylistRepo { return &StylistRepo{q: db} }

// Get fetches one stylist by id.
func (r *StylistRepo) Get(ctx context.Context, id uint64) (*model.Stylist, error) {
	const q = `SELECT id, name, slug, active FROM stylists WHERE id = ?`
	return r.scanOne(r.q.QueryRowContext(ctx, q, id))
}

// GetBySlug fetches one stylist by its URL slug.
func (r *StylistRepo) GetBySlug(ctx context.Context, slug string) (*model.Stylist, error) {
	const q = `SELECT id, name, slug, active FROM stylists WHERE slug = ?`
	return r.scanOne(r.q.QueryRowContext(ctx, q, slug))
}

// ListActive returns the stylists offered on the public booking pages.
func (r *StylistRepo) ListActive(ctx context.Context) ([]model.Stylist, error) {
	const q = `SELECT id, name, slug, active FROM stylists WHERE active = 1 ORDER BY name`
	rows, err := r.q.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stylists []model.Stylist
	for rows.Next() {
		var s model.Stylist
		if err := rows.Scan(&s.ID, &s.Name, &s.Slug, &s.Active); err != nil {
			return nil, err
		}
		stylists = append(stylists, s)
	}
	return stylists, rows.Err()
}

func (r *StylistRepo) scanOne(row *sql.Row) (*model.Stylist, error) {
	var s model.Stylist
	err := row.Scan(&s.ID, &s.Name, &s.Slug, &s.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
