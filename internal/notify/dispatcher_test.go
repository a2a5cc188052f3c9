package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/Domenick1991/tourbooking/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	if args.Error(0) == nil {
		n.ID = int64(len(m.Calls))
		n.CreatedAt = time.Now()
	}
	return args.Error(0)
}

type MockAdminLister struct {
	mock.Mock
}

func (m *MockAdminLister) ListAdmins(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

type MockPusher struct {
	mock.Mock
}

func (m *MockPusher) Push(ctx context.Context, userID int64, event string, payload any) error {
	args := m.Called(ctx, userID, event, payload)
	return args.Error(0)
}

func TestDispatcher_Notify_OfflineRecipientStillPersisted(t *testing.T) {
	store := new(MockStore)
	pusher := new(MockPusher)
	store.On("Create", mock.Anything, mock.AnythingOfType("*domain.Notification")).Return(nil)
	pusher.On("Push", mock.Anything, int64(9), realtime.EventBookingStatusChanged, mock.Anything).Return(realtime.ErrNotConnected)

	d := NewDispatcher(store, new(MockAdminLister), pusher, zap.NewNop())
	bookingID := int64(11)
	n, err := d.Notify(context.Background(), Notice{UserID: 9, BookingID: &bookingID, Message: "Your booking is paid", Status: domain.BookingStatusPaid})

	require.NoError(t, err)
	assert.Equal(t, domain.NotificationTypeBooking, n.Type)
	assert.False(t, n.ForAdmin)
	assert.False(t, n.IsRead)
	store.AssertNumberOfCalls(t, "Create", 1)
	pusher.AssertExpectations(t)
}

func TestDispatcher_Notify_PushPayload(t *testing.T) {
	store := new(MockStore)
	pusher := new(MockPusher)
	store.On("Create", mock.Anything, mock.Anything).Return(nil)
	pusher.On("Push", mock.Anything, int64(9), realtime.EventBookingStatusChanged, mock.MatchedBy(func(p Payload) bool {
		return p.Status == domain.BookingStatusCancelled && p.BookingID != nil && *p.BookingID == 11 && !p.IsRead
	})).Return(nil)

	d := NewDispatcher(store, new(MockAdminLister), pusher, zap.NewNop())
	bookingID := int64(11)
	_, err := d.Notify(context.Background(), Notice{UserID: 9, BookingID: &bookingID, Message: "Cancelled", Status: domain.BookingStatusCancelled})
	require.NoError(t, err)
	pusher.AssertExpectations(t)
}

func TestDispatcher_NotifyAdmins(t *testing.T) {
	store := new(MockStore)
	admins := new(MockAdminLister)
	pusher := new(MockPusher)

	admins.On("ListAdmins", mock.Anything).Return([]domain.User{{ID: 1}, {ID: 2}, {ID: 3}}, nil)
	store.On("Create", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.ForAdmin && n.Type == domain.NotificationTypeBooking
	})).Return(nil)
	pusher.On("Push", mock.Anything, int64(1), realtime.EventNewNotification, mock.Anything).Return(nil)
	pusher.On("Push", mock.Anything, int64(2), realtime.EventNewNotification, mock.Anything).Return(realtime.ErrNotConnected)
	pusher.On("Push", mock.Anything, int64(3), realtime.EventNewNotification, mock.Anything).Return(errors.New("socket broken"))

	d := NewDispatcher(store, admins, pusher, zap.NewNop())
	sent, err := d.NotifyAdmins(context.Background(), Notice{Message: "New booking", Type: domain.NotificationTypeBooking})

	require.NoError(t, err)
	require.Len(t, sent, 3)
	for _, n := range sent {
		assert.True(t, n.ForAdmin)
	}
	store.AssertNumberOfCalls(t, "Create", 3)
	pusher.AssertNumberOfCalls(t, "Push", 3)
}

func TestDispatcher_PersistError(t *testing.T) {
	store := new(MockStore)
	store.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	d := NewDispatcher(store, new(MockAdminLister), new(MockPusher), zap.NewNop())
	_, err := d.Notify(context.Background(), Notice{UserID: 9, Message: "x"})
	assert.ErrorContains(t, err, "db down")
}
