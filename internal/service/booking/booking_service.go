package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/Domenick1991/tourbooking/internal/kafka"
	"github.com/Domenick1991/tourbooking/internal/notify"
	"github.com/Domenick1991/tourbooking/internal/repository"
	"go.uber.org/zap"
)

type BookingUseCase interface {
	Create(ctx context.Context, actor domain.Principal, input CreateBookingInput) (*domain.Booking, error)
	UserUpdate(ctx context.Context, actor domain.Principal, id int64, input UserUpdateInput) (*domain.Booking, error)
	AdminUpdate(ctx context.Context, actor domain.Principal, id int64, input AdminUpdateInput) (*domain.Booking, error)
	RequestCancellation(ctx context.Context, actor domain.Principal, id int64) (*domain.Booking, error)
	HandleCancellation(ctx context.Context, actor domain.Principal, id int64, action domain.CancellationAction) (*domain.Booking, error)
	Delete(ctx context.Context, actor domain.Principal, id int64) error
	Get(ctx context.Context, actor domain.Principal, id int64) (*domain.Booking, error)
	List(ctx context.Context, actor domain.Principal) ([]domain.Booking, error)
	UserBookings(ctx context.Context, actor domain.Principal) ([]domain.Booking, error)
}

type Notifier interface {
	Persist(ctx context.Context, notices ...notify.Notice) ([]notify.Sent, error)
	Deliver(ctx context.Context, sent ...notify.Sent)
	AdminNotices(ctx context.Context, template notify.Notice) ([]notify.Notice, error)
}

type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, event kafka.BookingEvent) error
}

type CreateBookingInput struct {
	TourID       int64     `json:"tour_id"`
	UserID       int64     `json:"user_id"`
	PriceCents   int64     `json:"price_cents"`
	Date         time.Time `json:"date"`
	Participants int       `json:"participants"`
}

// UserUpdateInput carries the fields an owner may change on a pending booking.
// Version, when set, must match the stored booking.
type UserUpdateInput struct {
	Participants *int       `json:"participants"`
	Date         *time.Time `json:"date"`
	Version      *int       `json:"version"`
}

type AdminUpdateInput struct {
	Participants *int                  `json:"participants"`
	Date         *time.Time            `json:"date"`
	Status       *domain.BookingStatus `json:"status"`
	PriceCents   *int64                `json:"price_cents"`
	Version      *int                  `json:"version"`
}

type BookingService struct {
	bookings repository.BookingRepository
	tours    repository.TourRepository
	users    repository.UserRepository
	tx       repository.Transactor
	notifier Notifier
	events   EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

type BookingServiceOption func(*BookingService)

func WithEventPublisher(p EventPublisher) BookingServiceOption {
	return func(s *BookingService) {
		s.events = p
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	tours repository.TourRepository,
	users repository.UserRepository,
	tx repository.Transactor,
	notifier Notifier,
	logger *zap.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings: bookings,
		tours:    tours,
		users:    users,
		tx:       tx,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) Create(ctx context.Context, actor domain.Principal, input CreateBookingInput) (*domain.Booking, error) {
	if input.UserID == 0 {
		input.UserID = actor.ID
	}
	if input.TourID == 0 {
		return nil, domain.Validationf("tour_id is required")
	}
	if input.Date.IsZero() {
		return nil, domain.Validationf("date is required")
	}
	if input.PriceCents <= 0 {
		return nil, domain.Validationf("price_cents must be positive")
	}
	if !actor.IsAdmin() && input.UserID != actor.ID {
		return nil, domain.Forbiddenf("you can only book for yourself")
	}

	var (
		booking *domain.Booking
		sent    []notify.Sent
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		tour, err := s.tours.GetByID(ctx, input.TourID)
		if err != nil {
			return err
		}
		if !tour.IsActive {
			return domain.Validationf("tour %q is not available for booking", tour.Title)
		}
		user, err := s.users.GetByID(ctx, input.UserID)
		if err != nil {
			return err
		}
		if err := domain.ValidateParticipants(input.Participants, tour.MaxGroupSize); err != nil {
			return err
		}
		if err := domain.ValidateFutureDate(input.Date, s.now()); err != nil {
			return err
		}

		booking = &domain.Booking{
			TourID:       tour.ID,
			UserID:       user.ID,
			PriceCents:   input.PriceCents,
			Date:         input.Date,
			Participants: input.Participants,
		}
		if err := s.bookings.Create(ctx, booking); err != nil {
			return err
		}
		booking.Tour = tourSummary(tour)
		booking.User = userSummary(user)

		notices, err := s.notifier.AdminNotices(ctx, notify.Notice{
			BookingID: &booking.ID,
			Message:   fmt.Sprintf("New booking from %s for %s", user.Name, tour.Title),
			Type:      domain.NotificationTypeBooking,
			Status:    booking.Status,
		})
		if err != nil {
			return err
		}
		sent, err = s.notifier.Persist(ctx, notices...)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking created", zap.Int64("booking_id", booking.ID), zap.Int64("user_id", booking.UserID), zap.Int64("tour_id", booking.TourID))
	s.afterCommit(ctx, kafka.EventBookingCreated, booking, sent)
	return booking, nil
}

func (s *BookingService) UserUpdate(ctx context.Context, actor domain.Principal, id int64, input UserUpdateInput) (*domain.Booking, error) {
	var (
		booking *domain.Booking
		sent    []notify.Sent
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.load(ctx, id, input.Version)
		if err != nil {
			return err
		}
		if b.UserID != actor.ID {
			return domain.Forbiddenf("you can only update your own bookings")
		}
		if b.Status != domain.BookingStatusPending {
			return domain.Validationf("only pending bookings can be updated")
		}

		if input.Participants != nil {
			b.Participants = *input.Participants
		}
		if input.Date != nil {
			b.Date = *input.Date
		}
		if err := domain.ValidateParticipants(b.Participants, b.Tour.MaxGroupSize); err != nil {
			return err
		}
		if err := domain.ValidateFutureDate(b.Date, s.now()); err != nil {
			return err
		}
		if err := s.bookings.Update(ctx, b); err != nil {
			return err
		}

		booking = b
		sent, err = s.notifier.Persist(ctx, s.ownerNotice(b, fmt.Sprintf("Your booking for %s was updated", b.Tour.Title)))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, kafka.EventBookingUpdated, booking, sent)
	return booking, nil
}

func (s *BookingService) AdminUpdate(ctx context.Context, actor domain.Principal, id int64, input AdminUpdateInput) (*domain.Booking, error) {
	if !actor.IsAdmin() {
		return nil, domain.Forbiddenf("admin role required")
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, domain.Validationf("unknown booking status %q", *input.Status)
	}
	if input.PriceCents != nil && *input.PriceCents <= 0 {
		return nil, domain.Validationf("price_cents must be positive")
	}

	var (
		booking       *domain.Booking
		sent          []notify.Sent
		statusChanged bool
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.load(ctx, id, input.Version)
		if err != nil {
			return err
		}

		participants := b.Participants
		if input.Participants != nil {
			participants = *input.Participants
		}
		if err := domain.ValidateParticipants(participants, b.Tour.MaxGroupSize); err != nil {
			return err
		}
		if input.Date != nil {
			if err := domain.ValidateFutureDate(*input.Date, s.now()); err != nil {
				return err
			}
			b.Date = *input.Date
		}
		b.Participants = participants
		if input.PriceCents != nil {
			b.PriceCents = *input.PriceCents
		}
		if input.Status != nil && *input.Status != b.Status {
			statusChanged = true
			b.Status = *input.Status
			if b.Status != domain.BookingStatusPaid {
				b.CancellationRequested = false
			}
		}
		if err := s.bookings.Update(ctx, b); err != nil {
			return err
		}

		booking = b
		message := fmt.Sprintf("Your booking for %s was updated", b.Tour.Title)
		if statusChanged {
			message = fmt.Sprintf("Your booking for %s is now %s", b.Tour.Title, b.Status)
		}
		sent, err = s.notifier.Persist(ctx, s.ownerNotice(b, message))
		return err
	})
	if err != nil {
		return nil, err
	}

	event := kafka.EventBookingUpdated
	if statusChanged {
		event = kafka.EventBookingStatusChanged
	}
	s.logger.Info("booking updated by admin", zap.Int64("booking_id", booking.ID), zap.Int64("admin_id", actor.ID), zap.String("status", string(booking.Status)))
	s.afterCommit(ctx, event, booking, sent)
	return booking, nil
}

func (s *BookingService) RequestCancellation(ctx context.Context, actor domain.Principal, id int64) (*domain.Booking, error) {
	var (
		booking *domain.Booking
		sent    []notify.Sent
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if b.UserID != actor.ID {
			return domain.Forbiddenf("you can only cancel your own bookings")
		}
		if err := b.RequestCancellation(); err != nil {
			return err
		}
		if err := s.bookings.Update(ctx, b); err != nil {
			return err
		}

		booking = b
		notices, err := s.notifier.AdminNotices(ctx, notify.Notice{
			BookingID: &b.ID,
			Message:   fmt.Sprintf("%s requested cancellation of booking #%d for %s", b.User.Name, b.ID, b.Tour.Title),
			Type:      domain.NotificationTypeCancellation,
			Status:    b.Status,
		})
		if err != nil {
			return err
		}
		sent, err = s.notifier.Persist(ctx, notices...)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, kafka.EventCancellationRequested, booking, sent)
	return booking, nil
}

func (s *BookingService) HandleCancellation(ctx context.Context, actor domain.Principal, id int64, action domain.CancellationAction) (*domain.Booking, error) {
	if !actor.IsAdmin() {
		return nil, domain.Forbiddenf("admin role required")
	}

	var (
		booking *domain.Booking
		sent    []notify.Sent
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := b.ResolveCancellation(action); err != nil {
			return err
		}
		if err := s.bookings.Update(ctx, b); err != nil {
			return err
		}

		booking = b
		message := fmt.Sprintf("Your cancellation request for %s was rejected", b.Tour.Title)
		if action == domain.CancellationApprove {
			message = fmt.Sprintf("Your cancellation request for %s was approved", b.Tour.Title)
		}
		notice := s.ownerNotice(b, message)
		notice.Type = domain.NotificationTypeCancellation
		sent, err = s.notifier.Persist(ctx, notice)
		return err
	})
	if err != nil {
		return nil, err
	}

	event := kafka.EventCancellationRejected
	if action == domain.CancellationApprove {
		event = kafka.EventCancellationApproved
	}
	s.logger.Info("cancellation resolved", zap.Int64("booking_id", booking.ID), zap.String("action", string(action)))
	s.afterCommit(ctx, event, booking, sent)
	return booking, nil
}

// Delete lets admins remove any booking and owners remove their own while
// it is still pending.
func (s *BookingService) Delete(ctx context.Context, actor domain.Principal, id int64) error {
	var booking *domain.Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() {
			if b.UserID != actor.ID {
				return domain.Forbiddenf("you can only delete your own bookings")
			}
			if b.Status != domain.BookingStatusPending {
				return domain.Validationf("only pending bookings can be deleted")
			}
		}
		booking = b
		return s.bookings.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.afterCommit(ctx, kafka.EventBookingDeleted, booking, nil)
	return nil
}

func (s *BookingService) Get(ctx context.Context, actor domain.Principal, id int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && b.UserID != actor.ID {
		return nil, domain.Forbiddenf("you can only view your own bookings")
	}
	return b, nil
}

// List returns every booking to admins and only their own to users.
func (s *BookingService) List(ctx context.Context, actor domain.Principal) ([]domain.Booking, error) {
	if actor.IsAdmin() {
		return s.bookings.List(ctx, repository.BookingFilter{})
	}
	return s.UserBookings(ctx, actor)
}

func (s *BookingService) UserBookings(ctx context.Context, actor domain.Principal) ([]domain.Booking, error) {
	userID := actor.ID
	return s.bookings.List(ctx, repository.BookingFilter{UserID: &userID})
}

func (s *BookingService) load(ctx context.Context, id int64, version *int) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if version != nil && *version != b.Version {
		return nil, domain.Conflictf("booking %d was modified concurrently, reload and retry", id)
	}
	return b, nil
}

func (s *BookingService) ownerNotice(b *domain.Booking, message string) notify.Notice {
	return notify.Notice{
		UserID:    b.UserID,
		BookingID: &b.ID,
		Message:   message,
		Type:      domain.NotificationTypeBooking,
		Status:    b.Status,
	}
}

func (s *BookingService) afterCommit(ctx context.Context, eventType string, b *domain.Booking, sent []notify.Sent) {
	s.notifier.Deliver(ctx, sent...)

	if s.events == nil {
		return
	}
	event := kafka.BookingEvent{
		Type:         eventType,
		BookingID:    b.ID,
		TourID:       b.TourID,
		UserID:       b.UserID,
		Status:       string(b.Status),
		Participants: b.Participants,
		Date:         b.Date,
		OccurredAt:   s.now().UTC(),
	}
	if b.Tour != nil {
		event.TourTitle = b.Tour.Title
	}
	if b.User != nil {
		event.UserEmail = b.User.Email
		event.UserName = b.User.Name
	}
	if err := s.events.PublishBookingEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish booking event", zap.String("type", eventType), zap.Int64("booking_id", b.ID), zap.Error(err))
	}
}

func tourSummary(t *domain.Tour) *domain.TourSummary {
	return &domain.TourSummary{
		ID:           t.ID,
		Title:        t.Title,
		Slug:         t.Slug,
		MaxGroupSize: t.MaxGroupSize,
		PriceCents:   t.PriceCents,
		CoverImage:   t.CoverImage,
	}
}

func userSummary(u *domain.User) *domain.UserSummary {
	return &domain.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

var _ BookingUseCase = (*BookingService)(nil)
