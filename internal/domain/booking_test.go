package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateParticipants(t *testing.T) {
	testCases := []struct {
		name         string
		participants int
		max          int
		wantErr      bool
	}{
		{name: "lower bound", participants: 1, max: 4},
		{name: "upper bound", participants: 4, max: 4},
		{name: "zero", participants: 0, max: 4, wantErr: true},
		{name: "over capacity", participants: 5, max: 4, wantErr: true},
		{name: "negative", participants: -1, max: 4, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateParticipants(tc.participants, tc.max)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateFutureDate(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.NoError(t, ValidateFutureDate(now.Add(time.Second), now))
	assert.ErrorIs(t, ValidateFutureDate(now, now), ErrValidation)
	assert.ErrorIs(t, ValidateFutureDate(now.Add(-time.Hour), now), ErrValidation)
}

func TestBooking_RequestCancellation(t *testing.T) {
	t.Run("paid booking", func(t *testing.T) {
		b := &Booking{Status: BookingStatusPaid}
		assert.NoError(t, b.RequestCancellation())
		assert.True(t, b.CancellationRequested)
	})

	t.Run("second request is a conflict", func(t *testing.T) {
		b := &Booking{Status: BookingStatusPaid, CancellationRequested: true}
		assert.ErrorIs(t, b.RequestCancellation(), ErrConflict)
		assert.True(t, b.CancellationRequested)
	})

	t.Run("pending booking", func(t *testing.T) {
		b := &Booking{Status: BookingStatusPending}
		assert.ErrorIs(t, b.RequestCancellation(), ErrValidation)
		assert.False(t, b.CancellationRequested)
	})
}

func TestBooking_ResolveCancellation(t *testing.T) {
	t.Run("approve", func(t *testing.T) {
		b := &Booking{Status: BookingStatusPaid, CancellationRequested: true}
		assert.NoError(t, b.ResolveCancellation(CancellationApprove))
		assert.Equal(t, BookingStatusCancelled, b.Status)
		assert.False(t, b.CancellationRequested)
	})

	t.Run("reject", func(t *testing.T) {
		b := &Booking{Status: BookingStatusPaid, CancellationRequested: true}
		assert.NoError(t, b.ResolveCancellation(CancellationReject))
		assert.Equal(t, BookingStatusPaid, b.Status)
		assert.False(t, b.CancellationRequested)
	})

	t.Run("no request", func(t *testing.T) {
		b := &Booking{Status: BookingStatusPaid}
		assert.ErrorIs(t, b.ResolveCancellation(CancellationApprove), ErrValidation)
		assert.Equal(t, BookingStatusPaid, b.Status)
	})

	t.Run("unknown action", func(t *testing.T) {
		b := &Booking{Status: BookingStatusPaid, CancellationRequested: true}
		assert.ErrorIs(t, b.ResolveCancellation("maybe"), ErrValidation)
		assert.True(t, b.CancellationRequested)
	})
}

func TestError_Message(t *testing.T) {
	err := NotFoundf("tour %d not found", 5)

	var derr *Error
	assert.True(t, errors.As(err, &derr))
	assert.Equal(t, "tour 5 not found", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, errors.Is(err, ErrConflict))
}
