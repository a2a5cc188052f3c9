package tours

import (
	"context"
	"strconv"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/Domenick1991/tourbooking/internal/repository"
	"go.uber.org/zap"
)

type TourUseCase interface {
	List(ctx context.Context) ([]domain.Tour, error)
	Get(ctx context.Context, idOrSlug string) (*domain.Tour, error)
}

type TourCache interface {
	GetTours(ctx context.Context) ([]domain.Tour, error)
	SetTours(ctx context.Context, tours []domain.Tour) error
}

type TourService struct {
	repo   repository.TourRepository
	cache  TourCache
	logger *zap.Logger
}

// NewTourService accepts a nil cache, in which case every List hits the database.
func NewTourService(repo repository.TourRepository, cache TourCache, logger *zap.Logger) *TourService {
	return &TourService{repo: repo, cache: cache, logger: logger}
}

func (s *TourService) List(ctx context.Context) ([]domain.Tour, error) {
	if s.cache != nil {
		cached, err := s.cache.GetTours(ctx)
		if err != nil {
			s.logger.Warn("tour cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	tours, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetTours(ctx, tours); err != nil {
			s.logger.Warn("tour cache write failed", zap.Error(err))
		}
	}
	return tours, nil
}

// Get resolves a numeric id first and falls back to the slug.
func (s *TourService) Get(ctx context.Context, idOrSlug string) (*domain.Tour, error) {
	if idOrSlug == "" {
		return nil, domain.Validationf("tour id or slug is required")
	}
	if id, err := strconv.ParseInt(idOrSlug, 10, 64); err == nil {
		return s.repo.GetByID(ctx, id)
	}
	return s.repo.GetBySlug(ctx, idOrSlug)
}

var _ TourUseCase = (*TourService)(nil)
