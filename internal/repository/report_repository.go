package repository

import (
	"context"
	"database/sql"
)

// ServiceRevenue is one line of the monthly revenue report, grouped by
// the service name snapshot so deleted services still show up.
//
// Fields:
//  ServiceName – snapshot name at booking time.
//  Count       – number of billable appointments.
//  TotalCents  – revenue attributed to the service.
type ServiceRevenue struct {
	ServiceName string
	Count       int
	TotalCents  int64
}

// MonthlyRevenue aggregates one month's billable revenue.
//
// Fields:
//  Year, Month – the reported period.
//  Count       – billable appointments in the period.
//  TotalCents  – sum of their charged amounts.
//  PerService  – breakdown by service name snapshot.
type MonthlyRevenue struct {
	Year       int
	Month      int
	Count      int
	TotalCents int64
	PerService []ServiceRevenue
}

// ReportRepo runs the read-only reporting aggregations.
type ReportRepo struct {
	db *sql.DB
}

// NewReportRepo builds the repo over a live database handle.
func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{db: db} }

// Revenue computes the revenue report for one calendar month.
// Cancelled and non-billable appointments are excluded; everything
// else counts at its charged amount, which defaults to the price
// snapshot taken at booking time.
func (r *ReportRepo) Revenue(ctx context.Context, year, month int) (*MonthlyRevenue, error) {
	rep := &MonthlyRevenue{Year: year, Month: month}

	const q = `SELECT service_name_snapshot, COUNT(*), COALESCE(SUM(total_cents), 0)
	           FROM appointments
	           WHERE billable = 1 AND status <> 'cancelado'
	             AND YEAR(appt_date) = ? AND MONTH(appt_date) = ?
	           GROUP BY service_name_snapshot
	           ORDER BY SUM(total_cents) DESC`
	rows, err := r.db.QueryContext(ctx, q, year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line ServiceRevenue
		if err := rows.Scan(&line.ServiceName, &line.Count, &line.TotalCents); err != nil {
			return nil, err
		}
		rep.PerService = append(rep.PerService, line)
		rep.Count += line.Count
		rep.TotalCents += line.TotalCents
	}
	return rep, rows.Err()
}
