package domain

import "time"

type NotificationType string

const (
	NotificationTypeBooking      NotificationType = "booking"
	NotificationTypeCancellation NotificationType = "cancellation"
)

type Notification struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"user_id"`
	BookingID *int64           `json:"booking_id,omitempty"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	ForAdmin  bool             `json:"for_admin"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// NotificationFilter narrows notification queries to one recipient.
type NotificationFilter struct {
	UserID     int64
	ForAdmin   *bool
	UnreadOnly bool
	Limit      int
	Offset     int
}
