package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type BookingFilter struct {
	UserID *int64
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	Update(ctx context.Context, booking *domain.Booking) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db DBTX
}

func NewBookingRepository(db DBTX) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingSelect = `SELECT b.id, b.tour_id, b.user_id, b.price_cents, b.date, b.participants, b.status,
	b.cancellation_requested, b.version, b.created_at, b.updated_at,
	t.id, t.title, t.slug, t.max_group_size, t.price_cents, COALESCE(t.cover_image, ''),
	u.id, u.name, u.email, u.role
	FROM bookings b
	JOIN tours t ON t.id = b.tour_id
	JOIN users u ON u.id = b.user_id`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b    domain.Booking
		tour domain.TourSummary
		user domain.UserSummary
	)
	if err := row.Scan(&b.ID, &b.TourID, &b.UserID, &b.PriceCents, &b.Date, &b.Participants, &b.Status,
		&b.CancellationRequested, &b.Version, &b.CreatedAt, &b.UpdatedAt,
		&tour.ID, &tour.Title, &tour.Slug, &tour.MaxGroupSize, &tour.PriceCents, &tour.CoverImage,
		&user.ID, &user.Name, &user.Email, &user.Role); err != nil {
		return nil, err
	}
	b.Tour = &tour
	b.User = &user
	return &b, nil
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	booking.Status = domain.BookingStatusPending
	err := conn(ctx, r.db).QueryRow(ctx, `INSERT INTO bookings (tour_id, user_id, price_cents, date, participants, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, cancellation_requested, version, created_at, updated_at`,
		booking.TourID, booking.UserID, booking.PriceCents, booking.Date, booking.Participants, booking.Status).
		Scan(&booking.ID, &booking.CancellationRequested, &booking.Version, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", mapErr(err, "booking"))
	}
	return nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := scanBooking(conn(ctx, r.db).QueryRow(ctx, bookingSelect+` WHERE b.id = $1`, id))
	if err != nil {
		return nil, mapErr(err, "booking")
	}
	return b, nil
}

// Update writes the mutable fields when the stored version still matches
// booking.Version, and advances booking.Version on success.
func (r *PGBookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	err := conn(ctx, r.db).QueryRow(ctx, `UPDATE bookings
		SET price_cents=$1, date=$2, participants=$3, status=$4, cancellation_requested=$5,
			version = version + 1, updated_at = now()
		WHERE id=$6 AND version=$7
		RETURNING version, updated_at`,
		booking.PriceCents, booking.Date, booking.Participants, booking.Status, booking.CancellationRequested,
		booking.ID, booking.Version).
		Scan(&booking.Version, &booking.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Conflictf("booking %d was modified concurrently, reload and retry", booking.ID)
	}
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	return nil
}

func (r *PGBookingRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFoundf("booking not found")
	}
	return nil
}

func (r *PGBookingRepository) List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error) {
	query := bookingSelect
	var args []any
	if filter.UserID != nil {
		query += ` WHERE b.user_id = $1`
		args = append(args, *filter.UserID)
	}
	query += ` ORDER BY b.date DESC, b.id DESC`

	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
