package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/Domenick1991/tourbooking/internal/realtime"
	"go.uber.org/zap"
)

type Store interface {
	Create(ctx context.Context, n *domain.Notification) error
}

type AdminLister interface {
	ListAdmins(ctx context.Context) ([]domain.User, error)
}

type Pusher interface {
	Push(ctx context.Context, userID int64, event string, payload any) error
}

// Notice describes one notification to write.
type Notice struct {
	UserID    int64
	BookingID *int64
	Message   string
	Type      domain.NotificationType
	ForAdmin  bool
	Status    domain.BookingStatus
}

// Sent is a persisted notice waiting for its live push.
type Sent struct {
	Notification domain.Notification
	Status       domain.BookingStatus
}

type Payload struct {
	ID        int64                   `json:"id"`
	Message   string                  `json:"message"`
	Type      domain.NotificationType `json:"type"`
	BookingID *int64                  `json:"bookingId,omitempty"`
	Status    domain.BookingStatus    `json:"status,omitempty"`
	CreatedAt time.Time               `json:"createdAt"`
	IsRead    bool                    `json:"isRead"`
}

type Dispatcher struct {
	store  Store
	admins AdminLister
	pusher Pusher
	logger *zap.Logger
}

func NewDispatcher(store Store, admins AdminLister, pusher Pusher, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{store: store, admins: admins, pusher: pusher, logger: logger}
}

// Persist writes one row per notice. Called inside a transaction, the rows
// commit together with the caller's other writes.
func (d *Dispatcher) Persist(ctx context.Context, notices ...Notice) ([]Sent, error) {
	sent := make([]Sent, 0, len(notices))
	for _, n := range notices {
		row := domain.Notification{
			UserID:    n.UserID,
			BookingID: n.BookingID,
			Message:   n.Message,
			Type:      n.Type,
			ForAdmin:  n.ForAdmin,
		}
		if row.Type == "" {
			row.Type = domain.NotificationTypeBooking
		}
		if err := d.store.Create(ctx, &row); err != nil {
			return nil, fmt.Errorf("persist notification for user %d: %w", n.UserID, err)
		}
		sent = append(sent, Sent{Notification: row, Status: n.Status})
	}
	return sent, nil
}

// Deliver attempts a live push for each persisted notice. Failures are
// logged and dropped; the stored row stays the durable record.
func (d *Dispatcher) Deliver(ctx context.Context, sent ...Sent) {
	for _, s := range sent {
		n := s.Notification
		event := realtime.EventBookingStatusChanged
		if n.ForAdmin {
			event = realtime.EventNewNotification
		}

		err := d.pusher.Push(ctx, n.UserID, event, Payload{
			ID:        n.ID,
			Message:   n.Message,
			Type:      n.Type,
			BookingID: n.BookingID,
			Status:    s.Status,
			CreatedAt: n.CreatedAt,
			IsRead:    false,
		})
		switch {
		case err == nil:
		case errors.Is(err, realtime.ErrNotConnected):
			d.logger.Debug("recipient offline, notification kept", zap.Int64("user_id", n.UserID), zap.Int64("notification_id", n.ID))
		default:
			d.logger.Warn("live push failed", zap.Int64("user_id", n.UserID), zap.String("event", event), zap.Error(err))
		}
	}
}

func (d *Dispatcher) Notify(ctx context.Context, n Notice) (*domain.Notification, error) {
	sent, err := d.Persist(ctx, n)
	if err != nil {
		return nil, err
	}
	d.Deliver(ctx, sent...)
	return &sent[0].Notification, nil
}

// AdminNotices copies template once per admin user, addressed as admin-facing.
func (d *Dispatcher) AdminNotices(ctx context.Context, template Notice) ([]Notice, error) {
	admins, err := d.admins.ListAdmins(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	notices := make([]Notice, 0, len(admins))
	for _, admin := range admins {
		n := template
		n.UserID = admin.ID
		n.ForAdmin = true
		notices = append(notices, n)
	}
	return notices, nil
}

func (d *Dispatcher) NotifyAdmins(ctx context.Context, template Notice) ([]domain.Notification, error) {
	notices, err := d.AdminNotices(ctx, template)
	if err != nil {
		return nil, err
	}
	sent, err := d.Persist(ctx, notices...)
	if err != nil {
		return nil, err
	}
	d.Deliver(ctx, sent...)

	out := make([]domain.Notification, 0, len(sent))
	for _, s := range sent {
		out = append(out, s.Notification)
	}
	return out, nil
}
