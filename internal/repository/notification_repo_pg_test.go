package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var notificationCols = []string{"id", "user_id", "booking_id", "message", "type", "for_admin", "is_read", "created_at", "updated_at"}

func TestPGNotificationRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	bookingID := int64(11)
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO notifications`).
		WithArgs(int64(1), &bookingID, "New booking", domain.NotificationTypeBooking, true).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(100), now, now))

	n := &domain.Notification{UserID: 1, BookingID: &bookingID, Message: "New booking", Type: domain.NotificationTypeBooking, ForAdmin: true, IsRead: true}
	require.NoError(t, NewNotificationRepository(mock).Create(context.Background(), n))
	assert.Equal(t, int64(100), n.ID)
	assert.False(t, n.IsRead)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGNotificationRepository_MarkRead(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// Postgres reports a matched row even when is_read was already true.
	mock.ExpectExec(`UPDATE notifications SET is_read=true`).WithArgs(int64(7)).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE notifications SET is_read=true`).WithArgs(int64(7)).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE notifications SET is_read=true`).WithArgs(int64(8)).WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewNotificationRepository(mock)
	assert.NoError(t, repo.MarkRead(context.Background(), 7))
	assert.NoError(t, repo.MarkRead(context.Background(), 7))
	assert.ErrorIs(t, repo.MarkRead(context.Background(), 8), domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGNotificationRepository_List(t *testing.T) {
	forAdmin := false
	testCases := []struct {
		name   string
		filter domain.NotificationFilter
		query  string
		args   []any
	}{
		{
			name:   "user page",
			filter: domain.NotificationFilter{UserID: 9, ForAdmin: &forAdmin, Limit: 20, Offset: 40},
			query:  `WHERE user_id=\$1 AND for_admin=\$2 ORDER BY created_at DESC, id DESC LIMIT \$3 OFFSET \$4`,
			args:   []any{int64(9), false, 20, 40},
		},
		{
			name:   "unread only",
			filter: domain.NotificationFilter{UserID: 9, UnreadOnly: true},
			query:  `WHERE user_id=\$1 AND NOT is_read ORDER BY`,
			args:   []any{int64(9)},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			now := time.Now()
			rows := pgxmock.NewRows(notificationCols).
				AddRow(int64(1), int64(9), (*int64)(nil), "Booking paid", domain.NotificationTypeBooking, false, false, now, now)
			mock.ExpectQuery(tc.query).WithArgs(tc.args...).WillReturnRows(rows)

			got, err := NewNotificationRepository(mock).List(context.Background(), tc.filter)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Nil(t, got[0].BookingID)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPGNotificationRepository_CountAndSweep(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cutoff := time.Now().AddDate(0, 0, -90)
	mock.ExpectQuery(`SELECT count\(\*\) FROM notifications WHERE user_id=\$1 AND NOT is_read`).
		WithArgs(int64(9)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))
	mock.ExpectExec(`DELETE FROM notifications WHERE is_read AND created_at < \$1`).
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 12))
	mock.ExpectExec(`UPDATE notifications SET is_read=true, updated_at=now\(\)\s+WHERE user_id=\$1 AND for_admin=\$2`).
		WithArgs(int64(1), true).
		WillReturnResult(pgxmock.NewResult("UPDATE", 4))

	repo := NewNotificationRepository(mock)
	count, err := repo.Count(context.Background(), domain.NotificationFilter{UserID: 9, UnreadOnly: true})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	deleted, err := repo.DeleteReadBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(12), deleted)

	marked, err := repo.MarkAllRead(context.Background(), 1, true)
	require.NoError(t, err)
	assert.Equal(t, int64(4), marked)
	assert.NoError(t, mock.ExpectationsWereMet())
}
