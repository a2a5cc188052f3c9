package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusPaid      BookingStatus = "paid"
	BookingStatusCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusPaid, BookingStatusCancelled:
		return true
	}
	return false
}

type CancellationAction string

const (
	CancellationApprove CancellationAction = "approve"
	CancellationReject  CancellationAction = "reject"
)

type Booking struct {
	ID                    int64         `json:"id"`
	TourID                int64         `json:"tour_id"`
	UserID                int64         `json:"user_id"`
	PriceCents            int64         `json:"price_cents"`
	Date                  time.Time     `json:"date"`
	Participants          int           `json:"participants"`
	Status                BookingStatus `json:"status"`
	CancellationRequested bool          `json:"cancellation_requested"`
	Version               int           `json:"version"`
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`

	Tour *TourSummary `json:"tour,omitempty"`
	User *UserSummary `json:"user,omitempty"`
}

// ValidateParticipants checks 1 <= participants <= maxGroupSize.
func ValidateParticipants(participants, maxGroupSize int) error {
	if participants < 1 || participants > maxGroupSize {
		return Validationf("participants must be between 1 and %d", maxGroupSize)
	}
	return nil
}

// ValidateFutureDate rejects any date that is not strictly after now.
func ValidateFutureDate(date, now time.Time) error {
	if !date.After(now) {
		return Validationf("booking date must be in the future")
	}
	return nil
}

// RequestCancellation flips the cancellation flag on a paid booking.
func (b *Booking) RequestCancellation() error {
	if b.Status != BookingStatusPaid {
		return Validationf("only paid bookings can request cancellation")
	}
	if b.CancellationRequested {
		return Conflictf("cancellation already requested")
	}
	b.CancellationRequested = true
	return nil
}

// ResolveCancellation applies an admin decision to a pending cancellation request.
func (b *Booking) ResolveCancellation(action CancellationAction) error {
	if action != CancellationApprove && action != CancellationReject {
		return Validationf("action must be %q or %q", CancellationApprove, CancellationReject)
	}
	if !b.CancellationRequested {
		return Validationf("no pending cancellation request for this booking")
	}
	if action == CancellationApprove {
		b.Status = BookingStatusCancelled
	}
	b.CancellationRequested = false
	return nil
}
