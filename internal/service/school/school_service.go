package school

import (
	"context"

	"github.com/hyeonu91/schoolreserve/internal/domain"
	"github.com/hyeonu91/schoolreserve/internal/repository"
)

type SchoolUseCase interface {
	List(ctx context.Context) ([]domain.School, error)
	GetByID(ctx context.Context, id int64) (*domain.School, error)
}

type Cache interface {
	GetSchools(ctx context.Context) ([]domain.School, error)
	SetSchools(ctx context.Context, schools []domain.School) error
}

type SchoolService struct {
	repo  repository.SchoolRepository
	cache Cache
}

func NewSchoolService(repo repository.SchoolRepository, cache Cache) *SchoolService {
	return &SchoolService{repo: repo, cache: cache}
}

func (s *SchoolService) List(ctx context.Context) ([]domain.School, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetSchools(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	schools, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetSchools(ctx, schools)
	}
	return schools, nil
}

func (s *SchoolService) GetByID(ctx context.Context, id int64) (*domain.School, error) {
	return s.repo.GetByID(ctx, id)
}

var _ SchoolUseCase = (*SchoolService)(nil)
