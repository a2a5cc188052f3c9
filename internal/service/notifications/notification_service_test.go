package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationRepository) GetByID(ctx context.Context, id int64) (*domain.Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID int64, forAdmin bool) (int64, error) {
	args := m.Called(ctx, userID, forAdmin)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) List(ctx context.Context, filter domain.NotificationFilter) ([]domain.Notification, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Notification), args.Error(1)
}

func (m *MockNotificationRepository) Count(ctx context.Context, filter domain.NotificationFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

var (
	customer = domain.Principal{ID: 7, Role: domain.RoleUser}
	admin    = domain.Principal{ID: 1, Role: domain.RoleAdmin}
)

func TestNotificationService_AdminList(t *testing.T) {
	repo := new(MockNotificationRepository)
	service := NewNotificationService(repo)
	expected := domain.NotificationFilter{UserID: admin.ID, ForAdmin: boolPtr(true), Limit: 50}
	repo.On("List", mock.Anything, expected).Return([]domain.Notification{{ID: 1, ForAdmin: true}}, nil).Once()

	items, err := service.AdminList(context.Background(), admin)

	require.NoError(t, err)
	assert.Len(t, items, 1)
	repo.AssertExpectations(t)

	_, err = service.AdminList(context.Background(), customer)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestNotificationService_MarkRead(t *testing.T) {
	testCases := []struct {
		name      string
		actor     domain.Principal
		stored    *domain.Notification
		wantErr   error
		wantWrite bool
	}{
		{name: "owner", actor: customer, stored: &domain.Notification{ID: 5, UserID: customer.ID}, wantWrite: true},
		{name: "admin for someone else", actor: admin, stored: &domain.Notification{ID: 5, UserID: customer.ID}, wantWrite: true},
		{name: "already read", actor: customer, stored: &domain.Notification{ID: 5, UserID: customer.ID, IsRead: true}},
		{name: "stranger", actor: domain.Principal{ID: 8, Role: domain.RoleUser}, stored: &domain.Notification{ID: 5, UserID: customer.ID}, wantErr: domain.ErrForbidden},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(MockNotificationRepository)
			repo.On("GetByID", mock.Anything, int64(5)).Return(tc.stored, nil)
			repo.On("MarkRead", mock.Anything, int64(5)).Return(nil)

			err := NewNotificationService(repo).MarkRead(context.Background(), tc.actor, 5)

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
			if tc.wantWrite {
				repo.AssertCalled(t, "MarkRead", mock.Anything, int64(5))
			} else {
				repo.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestNotificationService_MarkRead_NotFound(t *testing.T) {
	repo := new(MockNotificationRepository)
	repo.On("GetByID", mock.Anything, int64(5)).Return(nil, domain.NotFoundf("notification not found"))

	err := NewNotificationService(repo).MarkRead(context.Background(), customer, 5)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNotificationService_MarkAll(t *testing.T) {
	repo := new(MockNotificationRepository)
	service := NewNotificationService(repo)
	repo.On("MarkAllRead", mock.Anything, admin.ID, true).Return(int64(4), nil).Once()
	repo.On("MarkAllRead", mock.Anything, customer.ID, false).Return(int64(2), nil).Once()

	n, err := service.MarkAllAdminRead(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	n, err = service.MarkAllUserRead(context.Background(), customer)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = service.MarkAllAdminRead(context.Background(), customer)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	repo.AssertExpectations(t)
}

func TestNotificationService_UserPage(t *testing.T) {
	testCases := []struct {
		name        string
		limit       int
		offset      int
		total       int64
		wantLimit   int
		wantOffset  int
		wantHasMore bool
	}{
		{name: "defaults", total: 45, wantLimit: 20, wantHasMore: true},
		{name: "last page", limit: 20, offset: 40, total: 45, wantLimit: 20, wantOffset: 40},
		{name: "exact fit", limit: 10, offset: 10, total: 20, wantLimit: 10, wantOffset: 10},
		{name: "limit capped", limit: 1000, total: 150, wantLimit: 100, wantHasMore: true},
		{name: "negative offset", limit: 5, offset: -3, total: 3, wantLimit: 5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(MockNotificationRepository)
			countFilter := domain.NotificationFilter{UserID: customer.ID, ForAdmin: boolPtr(false)}
			listFilter := countFilter
			listFilter.Limit, listFilter.Offset = tc.wantLimit, tc.wantOffset
			repo.On("Count", mock.Anything, countFilter).Return(tc.total, nil)
			repo.On("List", mock.Anything, listFilter).Return([]domain.Notification{{ID: 1}}, nil)

			page, err := NewNotificationService(repo).UserPage(context.Background(), customer, tc.limit, tc.offset)

			require.NoError(t, err)
			assert.Equal(t, tc.total, page.Total)
			assert.Equal(t, tc.wantHasMore, page.HasMore)
			repo.AssertExpectations(t)
		})
	}
}

func TestNotificationService_Unread(t *testing.T) {
	repo := new(MockNotificationRepository)
	service := NewNotificationService(repo)
	filter := domain.NotificationFilter{UserID: customer.ID, UnreadOnly: true}
	repo.On("Count", mock.Anything, filter).Return(int64(3), nil)
	repo.On("List", mock.Anything, filter).Return([]domain.Notification{{ID: 1}, {ID: 2}, {ID: 3}}, nil)

	count, err := service.UnreadCount(context.Background(), customer)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	items, err := service.Unread(context.Background(), customer)
	require.NoError(t, err)
	assert.Len(t, items, 3)
}
