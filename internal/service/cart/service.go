package cart

import (
	"context"
	"errors"

	"storefront/internal/authz"
	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/observability"
	cartrepo "storefront/internal/repository/cart"
	"storefront/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// productReader is the slice of the catalog the cart needs.
type productReader interface {
	Get(ctx context.Context, q db.Querier, id string) (*domain.Product, error)
}

type Service struct {
	runner   db.Runner
	repo     cartrepo.Repository
	products productReader
	logger   *zap.Logger
}

func New(runner db.Runner, repo cartrepo.Repository, products productReader, logger *zap.Logger) *Service {
	return &Service{
		runner:   runner,
		repo:     repo,
		products: products,
		logger:   observability.OrNop(logger).Named("cart_service"),
	}
}

type AddItemInput struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Get returns the actor's cart with items priced at current product prices.
func (s *Service) Get(ctx context.Context, actor domain.Actor) (*domain.Cart, error) {
	if err := authz.Authenticated(actor).Err(); err != nil {
		return nil, err
	}
	c, err := s.repo.GetOrCreate(ctx, s.runner.Querier(), actor.UserID)
	if err != nil {
		return nil, service.Guard(s.logger, "cart.get", err)
	}
	return c, nil
}

func (s *Service) AddItem(ctx context.Context, actor domain.Actor, in AddItemInput) (*domain.CartItem, error) {
	if err := authz.Authenticated(actor).Err(); err != nil {
		return nil, err
	}
	if in.ProductID == "" {
		return nil, domain.FieldError("productId", "required")
	}
	if _, err := uuid.Parse(in.ProductID); err != nil {
		return nil, domain.NotFound("product")
	}
	if in.Quantity < 1 {
		return nil, domain.FieldError("quantity", "must be at least 1")
	}

	var added *domain.CartItem
	err := s.runner.InTx(ctx, func(q db.Querier) error {
		p, err := s.products.Get(ctx, q, in.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFound("product")
			}
			return err
		}
		if err := authz.NotOwnProduct(actor, *p).Err(); err != nil {
			return err
		}
		if in.Quantity > p.Quantity {
			return domain.Validationf("only %d of %s in stock", p.Quantity, p.Name)
		}
		c, err := s.repo.GetOrCreate(ctx, q, actor.UserID)
		if err != nil {
			return err
		}
		added, err = s.repo.AddItem(ctx, q, c.ID, p.ID, in.Quantity)
		if errors.Is(err, domain.ErrAlreadyExists) {
			return domain.Validation("product already in cart")
		}
		return err
	})
	if err != nil {
		return nil, service.Guard(s.logger, "cart.add_item", err)
	}
	s.logger.Debug("cart item added", zap.String("user_id", actor.UserID), zap.String("product_id", in.ProductID))
	return added, nil
}

// UpdateItem sets the quantity of an item in the actor's cart.
func (s *Service) UpdateItem(ctx context.Context, actor domain.Actor, itemID string, quantity int) (*domain.CartItem, error) {
	if err := authz.Authenticated(actor).Err(); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, domain.FieldError("quantity", "must be at least 1")
	}

	var updated *domain.CartItem
	err := s.runner.InTx(ctx, func(q db.Querier) error {
		c, err := s.repo.GetOrCreate(ctx, q, actor.UserID)
		if err != nil {
			return err
		}
		item, err := s.repo.GetItem(ctx, q, c.ID, itemID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFound("cart item")
			}
			return err
		}
		if quantity > item.Stock {
			return domain.Validationf("only %d of %s in stock", item.Stock, item.ProductName)
		}
		if err := s.repo.UpdateItemQuantity(ctx, q, c.ID, itemID, quantity); err != nil {
			return err
		}
		item.Quantity = quantity
		updated = item
		return nil
	})
	if err != nil {
		return nil, service.Guard(s.logger, "cart.update_item", err)
	}
	return updated, nil
}

func (s *Service) RemoveItem(ctx context.Context, actor domain.Actor, itemID string) error {
	if err := authz.Authenticated(actor).Err(); err != nil {
		return err
	}
	err := s.runner.InTx(ctx, func(q db.Querier) error {
		c, err := s.repo.GetOrCreate(ctx, q, actor.UserID)
		if err != nil {
			return err
		}
		err = s.repo.DeleteItem(ctx, q, c.ID, itemID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound("cart item")
		}
		return err
	})
	return service.Guard(s.logger, "cart.remove_item", err)
}
