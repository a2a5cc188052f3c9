package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/jmoiron/sqlx"
)

type Totals struct {
	Users    int64 `db:"users"`
	Tours    int64 `db:"tours"`
	Bookings int64 `db:"bookings"`
	Reviews  int64 `db:"reviews"`
}

// DashboardRepository serves the read-only aggregates of the admin dashboard.
type DashboardRepository interface {
	Totals(ctx context.Context) (Totals, error)
	MonthlyRevenue(ctx context.Context, year int) ([12]int64, error)
	RevenueBetween(ctx context.Context, from, to time.Time) (int64, error)
	CountCreatedBetween(ctx context.Context, table string, from, to time.Time) (int64, error)
	RecentBookings(ctx context.Context, limit int) ([]domain.RecentBooking, error)
}

type SQLXDashboardRepository struct {
	db *sqlx.DB
}

func NewDashboardRepository(db *sqlx.DB) *SQLXDashboardRepository {
	return &SQLXDashboardRepository{db: db}
}

var countableTables = map[string]bool{
	"users":    true,
	"tours":    true,
	"bookings": true,
	"reviews":  true,
}

func (r *SQLXDashboardRepository) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	err := r.db.GetContext(ctx, &t, `SELECT
		(SELECT count(*) FROM users) AS users,
		(SELECT count(*) FROM tours) AS tours,
		(SELECT count(*) FROM bookings) AS bookings,
		(SELECT count(*) FROM reviews) AS reviews`)
	if err != nil {
		return Totals{}, fmt.Errorf("dashboard totals: %w", err)
	}
	return t, nil
}

type monthTotal struct {
	Month int   `db:"month"`
	Total int64 `db:"total"`
}

// MonthlyRevenue sums booking prices per creation month of year, Jan at index 0.
// Cancelled bookings do not count as revenue.
func (r *SQLXDashboardRepository) MonthlyRevenue(ctx context.Context, year int) ([12]int64, error) {
	var out [12]int64
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	var rows []monthTotal
	query := sqlx.Rebind(sqlx.DOLLAR, `SELECT EXTRACT(MONTH FROM created_at)::int AS month,
		COALESCE(SUM(price_cents), 0)::bigint AS total
		FROM bookings
		WHERE created_at >= ? AND created_at < ? AND status <> ?
		GROUP BY 1 ORDER BY 1`)
	if err := r.db.SelectContext(ctx, &rows, query, from, to, domain.BookingStatusCancelled); err != nil {
		return out, fmt.Errorf("monthly revenue: %w", err)
	}
	for _, row := range rows {
		if row.Month >= 1 && row.Month <= 12 {
			out[row.Month-1] = row.Total
		}
	}
	return out, nil
}

func (r *SQLXDashboardRepository) RevenueBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var total int64
	err := r.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(price_cents), 0)::bigint FROM bookings
		WHERE created_at >= $1 AND created_at < $2 AND status <> $3`, from, to, domain.BookingStatusCancelled)
	if err != nil {
		return 0, fmt.Errorf("revenue between: %w", err)
	}
	return total, nil
}

func (r *SQLXDashboardRepository) CountCreatedBetween(ctx context.Context, table string, from, to time.Time) (int64, error) {
	if !countableTables[table] {
		return 0, fmt.Errorf("count created: unsupported table %q", table)
	}
	var count int64
	query := fmt.Sprintf(`SELECT count(*) FROM %s WHERE created_at >= $1 AND created_at < $2`, table)
	if err := r.db.GetContext(ctx, &count, query, from, to); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}

func (r *SQLXDashboardRepository) RecentBookings(ctx context.Context, limit int) ([]domain.RecentBooking, error) {
	recent := make([]domain.RecentBooking, 0, limit)
	err := r.db.SelectContext(ctx, &recent, `SELECT b.id, b.user_id, u.name AS user_name, b.tour_id,
		t.title AS tour_title, b.price_cents, b.status, b.created_at
		FROM bookings b
		JOIN users u ON u.id = b.user_id
		JOIN tours t ON t.id = b.tour_id
		ORDER BY b.created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent bookings: %w", err)
	}
	return recent, nil
}

var _ DashboardRepository = (*SQLXDashboardRepository)(nil)
