package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDashboardTestRepository(t *testing.T) (*SQLXDashboardRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewDashboardRepository(sqlx.NewDb(db, "sqlmock"))
	return repo, mock, func() { db.Close() }
}

func TestDashboardRepository_Totals(t *testing.T) {
	repo, mock, cleanup := setupDashboardTestRepository(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT\s+\(SELECT count\(\*\) FROM users\) AS users`).
		WillReturnRows(sqlmock.NewRows([]string{"users", "tours", "bookings", "reviews"}).AddRow(10, 4, 25, 7))

	totals, err := repo.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Totals{Users: 10, Tours: 4, Bookings: 25, Reviews: 7}, totals)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardRepository_MonthlyRevenue(t *testing.T) {
	repo, mock, cleanup := setupDashboardTestRepository(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT EXTRACT\(MONTH FROM created_at\)::int AS month`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "cancelled").
		WillReturnRows(sqlmock.NewRows([]string{"month", "total"}).
			AddRow(1, 1000).
			AddRow(3, 2500).
			AddRow(12, 700))

	revenue, err := repo.MonthlyRevenue(context.Background(), 2026)
	require.NoError(t, err)
	assert.Equal(t, [12]int64{1000, 0, 2500, 0, 0, 0, 0, 0, 0, 0, 0, 700}, revenue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardRepository_CountCreatedBetween(t *testing.T) {
	from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	t.Run("known table", func(t *testing.T) {
		repo, mock, cleanup := setupDashboardTestRepository(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT count\(\*\) FROM users WHERE created_at >= \$1 AND created_at < \$2`).
			WithArgs(from, to).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

		count, err := repo.CountCreatedBetween(context.Background(), "users", from, to)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown table", func(t *testing.T) {
		repo, mock, cleanup := setupDashboardTestRepository(t)
		defer cleanup()

		_, err := repo.CountCreatedBetween(context.Background(), "users; DROP TABLE users", from, to)
		assert.ErrorContains(t, err, "unsupported table")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDashboardRepository_RecentBookings(t *testing.T) {
	repo, mock, cleanup := setupDashboardTestRepository(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(`FROM bookings b\s+JOIN users u`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "user_name", "tour_id", "tour_title", "price_cents", "status", "created_at"}).
			AddRow(1, 9, "Jane", 5, "Alps Trek", 49900, "paid", now))
	mock.ExpectQuery(`FROM bookings b\s+JOIN users u`).
		WithArgs(5).
		WillReturnError(errors.New("db down"))

	recent, err := repo.RecentBookings(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "Alps Trek", recent[0].TourTitle)

	_, err = repo.RecentBookings(context.Background(), 5)
	assert.ErrorContains(t, err, "recent bookings")
	assert.NoError(t, mock.ExpectationsWereMet())
}
