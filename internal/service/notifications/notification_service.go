package notifications

import (
	"context"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/Domenick1991/tourbooking/internal/repository"
)

const (
	adminListLimit   = 50
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type NotificationUseCase interface {
	AdminList(ctx context.Context, actor domain.Principal) ([]domain.Notification, error)
	MarkRead(ctx context.Context, actor domain.Principal, id int64) error
	MarkAllAdminRead(ctx context.Context, actor domain.Principal) (int64, error)
	MarkAllUserRead(ctx context.Context, actor domain.Principal) (int64, error)
	UserPage(ctx context.Context, actor domain.Principal, limit, offset int) (*Page, error)
	UnreadCount(ctx context.Context, actor domain.Principal) (int64, error)
	Unread(ctx context.Context, actor domain.Principal) ([]domain.Notification, error)
}

type Page struct {
	Notifications []domain.Notification `json:"notifications"`
	Total         int64                 `json:"total"`
	HasMore       bool                  `json:"hasMore"`
}

type NotificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// AdminList returns the latest admin-facing notifications addressed to actor.
func (s *NotificationService) AdminList(ctx context.Context, actor domain.Principal) ([]domain.Notification, error) {
	if !actor.IsAdmin() {
		return nil, domain.Forbiddenf("admin role required")
	}
	return s.repo.List(ctx, domain.NotificationFilter{
		UserID:   actor.ID,
		ForAdmin: boolPtr(true),
		Limit:    adminListLimit,
	})
}

// MarkRead is allowed for the recipient and for any admin. Marking an
// already read notification succeeds.
func (s *NotificationService) MarkRead(ctx context.Context, actor domain.Principal, id int64) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != actor.ID && !actor.IsAdmin() {
		return domain.Forbiddenf("you can only mark your own notifications")
	}
	if n.IsRead {
		return nil
	}
	return s.repo.MarkRead(ctx, id)
}

func (s *NotificationService) MarkAllAdminRead(ctx context.Context, actor domain.Principal) (int64, error) {
	if !actor.IsAdmin() {
		return 0, domain.Forbiddenf("admin role required")
	}
	return s.repo.MarkAllRead(ctx, actor.ID, true)
}

func (s *NotificationService) MarkAllUserRead(ctx context.Context, actor domain.Principal) (int64, error) {
	return s.repo.MarkAllRead(ctx, actor.ID, false)
}

func (s *NotificationService) UserPage(ctx context.Context, actor domain.Principal, limit, offset int) (*Page, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	filter := domain.NotificationFilter{UserID: actor.ID, ForAdmin: boolPtr(false)}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	filter.Limit, filter.Offset = limit, offset
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &Page{
		Notifications: items,
		Total:         total,
		HasMore:       int64(offset+limit) < total,
	}, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, actor domain.Principal) (int64, error) {
	return s.repo.Count(ctx, domain.NotificationFilter{UserID: actor.ID, UnreadOnly: true})
}

func (s *NotificationService) Unread(ctx context.Context, actor domain.Principal) ([]domain.Notification, error) {
	return s.repo.List(ctx, domain.NotificationFilter{UserID: actor.ID, UnreadOnly: true})
}

func boolPtr(v bool) *bool { return &v }

var _ NotificationUseCase = (*NotificationService)(nil)
