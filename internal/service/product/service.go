package product

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/authz"
	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/observability"
	categoryrepo "storefront/internal/repository/category"
	productrepo "storefront/internal/repository/product"
	"storefront/internal/service"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxPageSize = 100

type Service struct {
	runner     db.Runner
	repo       productrepo.Repository
	categories categoryrepo.Repository
	logger     *zap.Logger
}

func New(runner db.Runner, repo productrepo.Repository, categories categoryrepo.Repository, logger *zap.Logger) *Service {
	return &Service{
		runner:     runner,
		repo:       repo,
		categories: categories,
		logger:     observability.OrNop(logger).Named("product_service"),
	}
}

// CreateInput is the body of a product listing.
type CreateInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// UpdateInput carries a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Quantity    *int             `json:"quantity,omitempty"`
}

func (s *Service) List(ctx context.Context, f productrepo.ListFilter) ([]domain.Product, error) {
	if f.Limit <= 0 || f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	f.Category = strings.TrimSpace(f.Category)
	products, err := s.repo.List(ctx, s.runner.Querier(), f)
	if err != nil {
		return nil, service.Guard(s.logger, "product.list", err)
	}
	return products, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.repo.Get(ctx, s.runner.Querier(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("product")
		}
		return nil, service.Guard(s.logger, "product.get", err)
	}
	return p, nil
}

// Create lists a new product sold by the actor.
func (s *Service) Create(ctx context.Context, actor domain.Actor, in CreateInput) (*domain.Product, error) {
	if err := authz.Authenticated(actor).Err(); err != nil {
		return nil, err
	}
	p := domain.Product{
		SellerID:    actor.UserID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Quantity:    in.Quantity,
	}
	if err := validate(p); err != nil {
		return nil, err
	}

	var created *domain.Product
	err := s.runner.InTx(ctx, func(q db.Querier) error {
		categoryID, err := s.resolveCategory(ctx, q, in.Category)
		if err != nil {
			return err
		}
		p.CategoryID = &categoryID
		created, err = s.repo.Create(ctx, q, p)
		if errors.Is(err, domain.ErrAlreadyExists) {
			return domain.Conflict("you already sell a product with this name")
		}
		return err
	})
	if err != nil {
		return nil, service.Guard(s.logger, "product.create", err)
	}
	s.logger.Info("product created", zap.String("product_id", created.ID), zap.String("seller_id", actor.UserID))
	return created, nil
}

// Update applies a partial update. Only the seller or staff may do so.
func (s *Service) Update(ctx context.Context, actor domain.Actor, id string, in UpdateInput) (*domain.Product, error) {
	var updated *domain.Product
	err := s.runner.InTx(ctx, func(q db.Querier) error {
		p, err := s.repo.Get(ctx, q, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFound("product")
			}
			return err
		}
		if err := authz.ManageProduct(actor, *p).Err(); err != nil {
			return err
		}
		if in.Name != nil {
			p.Name = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			p.Description = strings.TrimSpace(*in.Description)
		}
		if in.Price != nil {
			p.Price = *in.Price
		}
		if in.Quantity != nil {
			p.Quantity = *in.Quantity
		}
		if err := validate(*p); err != nil {
			return err
		}
		if in.Category != nil {
			categoryID, err := s.resolveCategory(ctx, q, *in.Category)
			if err != nil {
				return err
			}
			p.CategoryID = &categoryID
		}
		updated, err = s.repo.Update(ctx, q, *p)
		if errors.Is(err, domain.ErrAlreadyExists) {
			return domain.Conflict("you already sell a product with this name")
		}
		return err
	})
	if err != nil {
		return nil, service.Guard(s.logger, "product.update", err)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, actor domain.Actor, id string) error {
	err := s.runner.InTx(ctx, func(q db.Querier) error {
		p, err := s.repo.Get(ctx, q, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFound("product")
			}
			return err
		}
		if err := authz.ManageProduct(actor, *p).Err(); err != nil {
			return err
		}
		return s.repo.Delete(ctx, q, id)
	})
	if err != nil {
		return service.Guard(s.logger, "product.delete", err)
	}
	s.logger.Info("product deleted", zap.String("product_id", id))
	return nil
}

func (s *Service) resolveCategory(ctx context.Context, q db.Querier, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = domain.DefaultCategory
	}
	c, err := s.categories.GetOrCreate(ctx, q, name)
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

func validate(p domain.Product) error {
	if p.Name == "" {
		return domain.FieldError("name", "required")
	}
	if !domain.ValidPrice(p.Price) {
		return domain.FieldError("price", "must be a non-negative amount with at most two decimals")
	}
	if p.Quantity < 0 {
		return domain.FieldError("quantity", "must not be negative")
	}
	return nil
}
