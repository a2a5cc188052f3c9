package domain

import "time"

type Tour struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Summary      string    `json:"summary"`
	Description  string    `json:"description"`
	DurationDays int       `json:"duration_days"`
	MaxGroupSize int       `json:"max_group_size"`
	Difficulty   string    `json:"difficulty"`
	PriceCents   int64     `json:"price_cents"`
	CoverImage   string    `json:"cover_image,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TourSummary is the tour projection attached to bookings.
type TourSummary struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Slug         string `json:"slug"`
	MaxGroupSize int    `json:"max_group_size"`
	PriceCents   int64  `json:"price_cents"`
	CoverImage   string `json:"cover_image,omitempty"`
}
