package dashboard

import (
	"context"
	"math"
	"time"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/Domenick1991/tourbooking/internal/repository"
	"go.uber.org/zap"
)

const recentBookingsLimit = 5

type DashboardUseCase interface {
	Stats(ctx context.Context, actor domain.Principal) (*domain.DashboardStats, error)
}

type DashboardCache interface {
	GetDashboard(ctx context.Context) (*domain.DashboardStats, error)
	SetDashboard(ctx context.Context, stats *domain.DashboardStats) error
}

type DashboardService struct {
	repo   repository.DashboardRepository
	cache  DashboardCache
	logger *zap.Logger
	now    func() time.Time
}

func NewDashboardService(repo repository.DashboardRepository, cache DashboardCache, logger *zap.Logger) *DashboardService {
	return &DashboardService{repo: repo, cache: cache, logger: logger, now: time.Now}
}

func (s *DashboardService) Stats(ctx context.Context, actor domain.Principal) (*domain.DashboardStats, error) {
	if !actor.IsAdmin() {
		return nil, domain.Forbiddenf("admin role required")
	}

	if s.cache != nil {
		cached, err := s.cache.GetDashboard(ctx)
		if err != nil {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	stats, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetDashboard(ctx, stats); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}

func (s *DashboardService) compute(ctx context.Context) (*domain.DashboardStats, error) {
	now := s.now().UTC()
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastMonth := thisMonth.AddDate(0, -1, 0)
	nextMonth := thisMonth.AddDate(0, 1, 0)

	totals, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, err
	}
	monthly, err := s.repo.MonthlyRevenue(ctx, now.Year())
	if err != nil {
		return nil, err
	}
	lastRevenue, err := s.repo.RevenueBetween(ctx, lastMonth, thisMonth)
	if err != nil {
		return nil, err
	}

	stats := &domain.DashboardStats{
		TotalUsers:         totals.Users,
		TotalTours:         totals.Tours,
		TotalBookings:      totals.Bookings,
		TotalReviews:       totals.Reviews,
		MonthlyRevenue:     monthly[now.Month()-1],
		MonthlyRevenueData: monthly,
	}
	stats.RevenueGrowth = growth(stats.MonthlyRevenue, lastRevenue)

	for _, g := range []struct {
		table string
		dst   *float64
	}{
		{"users", &stats.UserGrowth},
		{"bookings", &stats.BookingGrowth},
		{"tours", &stats.TourGrowth},
	} {
		current, err := s.repo.CountCreatedBetween(ctx, g.table, thisMonth, nextMonth)
		if err != nil {
			return nil, err
		}
		previous, err := s.repo.CountCreatedBetween(ctx, g.table, lastMonth, thisMonth)
		if err != nil {
			return nil, err
		}
		*g.dst = growth(current, previous)
	}

	stats.RecentBookings, err = s.repo.RecentBookings(ctx, recentBookingsLimit)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// growth is the percentage change from previous to current, rounded to one
// decimal. It is 0 when there is no previous value.
func growth(current, previous int64) float64 {
	if previous <= 0 {
		return 0
	}
	pct := float64(current-previous) / float64(previous) * 100
	return math.Round(pct*10) / 10
}

var _ DashboardUseCase = (*DashboardService)(nil)
