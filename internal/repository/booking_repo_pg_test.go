package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingCols = []string{
	"id", "tour_id", "user_id", "price_cents", "date", "participants", "status",
	"cancellation_requested", "version", "created_at", "updated_at",
	"t_id", "title", "slug", "max_group_size", "t_price_cents", "cover_image",
	"u_id", "name", "email", "role",
}

func addBookingRow(rows *pgxmock.Rows, id int64, status domain.BookingStatus, date time.Time) *pgxmock.Rows {
	now := time.Now()
	return rows.AddRow(id, int64(5), int64(9), int64(49900), date, 2, status,
		false, 1, now, now,
		int64(5), "Alps Trek", "alps-trek", 4, int64(49900), "",
		int64(9), "Jane", "jane@example.com", domain.RoleUser)
}

func TestNewBookingRepository(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewBookingRepository(mock)
	assert.NotNil(t, repo)
}

func TestPGBookingRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	date := time.Now().Add(72 * time.Hour)
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO bookings`).
		WithArgs(int64(5), int64(9), int64(49900), date, 2, domain.BookingStatusPending).
		WillReturnRows(pgxmock.NewRows([]string{"id", "cancellation_requested", "version", "created_at", "updated_at"}).
			AddRow(int64(11), false, 1, now, now))

	repo := NewBookingRepository(mock)
	b := &domain.Booking{TourID: 5, UserID: 9, PriceCents: 49900, Date: date, Participants: 2}
	require.NoError(t, repo.Create(context.Background(), b))

	assert.Equal(t, int64(11), b.ID)
	assert.Equal(t, domain.BookingStatusPending, b.Status)
	assert.Equal(t, 1, b.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGBookingRepository_GetByID(t *testing.T) {
	testCases := []struct {
		name      string
		setupMock func(m pgxmock.PgxPoolIface)
		wantKind  error
	}{
		{
			name: "found with tour and user",
			setupMock: func(m pgxmock.PgxPoolIface) {
				m.ExpectQuery(`SELECT .* FROM bookings b JOIN tours t .* WHERE b.id = \$1`).
					WithArgs(int64(11)).
					WillReturnRows(addBookingRow(pgxmock.NewRows(bookingCols), 11, domain.BookingStatusPaid, time.Now()))
			},
		},
		{
			name: "not found",
			setupMock: func(m pgxmock.PgxPoolIface) {
				m.ExpectQuery(`SELECT .* FROM bookings b`).
					WithArgs(int64(11)).
					WillReturnError(pgx.ErrNoRows)
			},
			wantKind: domain.ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()
			tc.setupMock(mock)

			b, err := NewBookingRepository(mock).GetByID(context.Background(), 11)
			if tc.wantKind != nil {
				assert.ErrorIs(t, err, tc.wantKind)
				assert.Nil(t, b)
			} else {
				require.NoError(t, err)
				assert.Equal(t, domain.BookingStatusPaid, b.Status)
				require.NotNil(t, b.Tour)
				assert.Equal(t, 4, b.Tour.MaxGroupSize)
				require.NotNil(t, b.User)
				assert.Equal(t, "jane@example.com", b.User.Email)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPGBookingRepository_Update(t *testing.T) {
	date := time.Now().Add(24 * time.Hour)

	t.Run("bumps version", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`UPDATE bookings`).
			WithArgs(int64(49900), date, 3, domain.BookingStatusPaid, false, int64(11), 1).
			WillReturnRows(pgxmock.NewRows([]string{"version", "updated_at"}).AddRow(2, time.Now()))

		b := &domain.Booking{ID: 11, PriceCents: 49900, Date: date, Participants: 3, Status: domain.BookingStatusPaid, Version: 1}
		require.NoError(t, NewBookingRepository(mock).Update(context.Background(), b))
		assert.Equal(t, 2, b.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version is a conflict", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`UPDATE bookings`).
			WithArgs(int64(49900), date, 3, domain.BookingStatusPaid, false, int64(11), 1).
			WillReturnError(pgx.ErrNoRows)

		b := &domain.Booking{ID: 11, PriceCents: 49900, Date: date, Participants: 3, Status: domain.BookingStatusPaid, Version: 1}
		err = NewBookingRepository(mock).Update(context.Background(), b)
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.Equal(t, 1, b.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPGBookingRepository_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM bookings WHERE id = \$1`).WithArgs(int64(11)).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM bookings WHERE id = \$1`).WithArgs(int64(12)).WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewBookingRepository(mock)
	assert.NoError(t, repo.Delete(context.Background(), 11))
	assert.ErrorIs(t, repo.Delete(context.Background(), 12), domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGBookingRepository_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows(bookingCols)
	addBookingRow(rows, 2, domain.BookingStatusPending, time.Now().Add(48*time.Hour))
	addBookingRow(rows, 1, domain.BookingStatusPaid, time.Now().Add(24*time.Hour))
	mock.ExpectQuery(`WHERE b.user_id = \$1 ORDER BY b.date DESC`).WithArgs(int64(9)).WillReturnRows(rows)

	userID := int64(9)
	bookings, err := NewBookingRepository(mock).List(context.Background(), BookingFilter{UserID: &userID})
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, int64(2), bookings[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGTransactor_WithinTx(t *testing.T) {
	t.Run("commits and routes queries through the tx", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM bookings`).WithArgs(int64(1)).WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectCommit()

		repo := NewBookingRepository(mock)
		err = NewTransactor(mock).WithinTx(context.Background(), func(ctx context.Context) error {
			return repo.Delete(ctx, 1)
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err = NewTransactor(mock).WithinTx(context.Background(), func(ctx context.Context) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nested call joins the outer tx", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectCommit()

		tr := NewTransactor(mock)
		err = tr.WithinTx(context.Background(), func(ctx context.Context) error {
			return tr.WithinTx(ctx, func(context.Context) error { return nil })
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
