package category

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/authz"
	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/observability"
	categoryrepo "storefront/internal/repository/category"
	"storefront/internal/service"

	"go.uber.org/zap"
)

type Service struct {
	runner db.Runner
	repo   categoryrepo.Repository
	logger *zap.Logger
}

func New(runner db.Runner, repo categoryrepo.Repository, logger *zap.Logger) *Service {
	return &Service{runner: runner, repo: repo, logger: observability.OrNop(logger).Named("category_service")}
}

func (s *Service) List(ctx context.Context) ([]domain.Category, error) {
	out, err := s.repo.List(ctx, s.runner.Querier())
	if err != nil {
		return nil, service.Guard(s.logger, "category.list", err)
	}
	return out, nil
}

// Create adds a category. Staff only.
func (s *Service) Create(ctx context.Context, actor domain.Actor, name string) (*domain.Category, error) {
	if err := authz.StaffOnly(actor).Err(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.FieldError("name", "required")
	}
	c, err := s.repo.Create(ctx, s.runner.Querier(), name)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.Conflict("category already exists")
		}
		return nil, service.Guard(s.logger, "category.create", err)
	}
	return c, nil
}
