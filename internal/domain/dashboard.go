package domain

import "time"

type DashboardStats struct {
	TotalUsers         int64           `json:"total_users"`
	TotalTours         int64           `json:"total_tours"`
	TotalBookings      int64           `json:"total_bookings"`
	TotalReviews       int64           `json:"total_reviews"`
	MonthlyRevenue     int64           `json:"monthly_revenue_cents"`
	MonthlyRevenueData [12]int64       `json:"monthly_revenue_data"`
	RevenueGrowth      float64         `json:"revenue_growth"`
	UserGrowth         float64         `json:"user_growth"`
	BookingGrowth      float64         `json:"booking_growth"`
	TourGrowth         float64         `json:"tour_growth"`
	RecentBookings     []RecentBooking `json:"recent_bookings"`
}

type RecentBooking struct {
	ID         int64         `json:"id" db:"id"`
	UserID     int64         `json:"user_id" db:"user_id"`
	UserName   string        `json:"user_name" db:"user_name"`
	TourID     int64         `json:"tour_id" db:"tour_id"`
	TourTitle  string        `json:"tour_title" db:"tour_title"`
	PriceCents int64         `json:"price_cents" db:"price_cents"`
	Status     BookingStatus `json:"status" db:"status"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
}
