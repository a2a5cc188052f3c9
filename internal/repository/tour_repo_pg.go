package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type TourRepository interface {
	ListActive(ctx context.Context) ([]domain.Tour, error)
	GetByID(ctx context.Context, id int64) (*domain.Tour, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Tour, error)
}

type PGTourRepository struct {
	db DBTX
}

func NewTourRepository(db DBTX) TourRepository {
	return &PGTourRepository{db: db}
}

const tourColumns = `id, title, slug, summary, description, duration_days, max_group_size, difficulty,
	price_cents, COALESCE(cover_image, ''), is_active, created_at, updated_at`

func scanTour(row pgx.Row) (*domain.Tour, error) {
	var t domain.Tour
	if err := row.Scan(&t.ID, &t.Title, &t.Slug, &t.Summary, &t.Description, &t.DurationDays, &t.MaxGroupSize,
		&t.Difficulty, &t.PriceCents, &t.CoverImage, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PGTourRepository) ListActive(ctx context.Context) ([]domain.Tour, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT `+tourColumns+` FROM tours WHERE is_active ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list tours: %w", err)
	}
	defer rows.Close()

	tours := make([]domain.Tour, 0)
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, err
		}
		tours = append(tours, *t)
	}
	return tours, rows.Err()
}

func (r *PGTourRepository) GetByID(ctx context.Context, id int64) (*domain.Tour, error) {
	t, err := scanTour(conn(ctx, r.db).QueryRow(ctx, `SELECT `+tourColumns+` FROM tours WHERE id=$1`, id))
	if err != nil {
		return nil, mapErr(err, "tour")
	}
	return t, nil
}

func (r *PGTourRepository) GetBySlug(ctx context.Context, slug string) (*domain.Tour, error) {
	t, err := scanTour(conn(ctx, r.db).QueryRow(ctx, `SELECT `+tourColumns+` FROM tours WHERE slug=$1`, slug))
	if err != nil {
		return nil, mapErr(err, "tour")
	}
	return t, nil
}

var _ TourRepository = (*PGTourRepository)(nil)
