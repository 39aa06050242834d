// Package seed loads demo accounts and a small catalog for manual testing.
package seed

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/observability"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type UserStore interface {
	Create(ctx context.Context, q db.Querier, u domain.User) (*domain.User, error)
	GetByEmail(ctx context.Context, q db.Querier, email string) (*domain.User, error)
}

type CartStore interface {
	GetOrCreate(ctx context.Context, q db.Querier, userID string) (*domain.Cart, error)
}

type CategoryStore interface {
	GetOrCreate(ctx context.Context, q db.Querier, name string) (*domain.Category, error)
}

type ProductStore interface {
	Upsert(ctx context.Context, q db.Querier, p domain.Product) (*domain.Product, error)
}

// Stores groups the repositories the seeder writes through.
type Stores struct {
	Users      UserStore
	Carts      CartStore
	Categories CategoryStore
	Products   ProductStore
}

// DemoPassword is shared by every seeded account.
const DemoPassword = "Storefront1"

type userSeed struct {
	Email    string
	Username string
	First    string
	Last     string
	Staff    bool
}

type productSeed struct {
	Name        string
	Description string
	Category    string
	Price       string
	Quantity    int
}

var demoUsers = []userSeed{
	{Email: "admin@storefront.local", Username: "admin", First: "Ada", Last: "Admin", Staff: true},
	{Email: "seller@storefront.local", Username: "seller", First: "Sam", Last: "Seller"},
	{Email: "buyer@storefront.local", Username: "buyer", First: "Bea", Last: "Buyer"},
}

var demoProducts = []productSeed{
	{Name: "Demo T-Shirt", Description: "Soft cotton tee", Category: "Apparel", Price: "19.99", Quantity: 50},
	{Name: "Demo Mug", Description: "Ceramic mug with logo", Category: "Kitchen", Price: "12.99", Quantity: 30},
	{Name: "Sticker Pack", Description: "Five vinyl stickers", Category: domain.DefaultCategory, Price: "4.50", Quantity: 200},
}

// Apply is idempotent: existing users are left alone and products are
// upserted by seller and name.
func Apply(ctx context.Context, runner db.Runner, stores Stores, logger *zap.Logger) error {
	logger = observability.OrNop(logger)
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	return runner.InTx(ctx, func(q db.Querier) error {
		var sellerID string
		for _, us := range demoUsers {
			u, created, err := ensureUser(ctx, q, stores.Users, us, string(hash))
			if err != nil {
				return fmt.Errorf("ensure user %s: %w", us.Email, err)
			}
			if _, err := stores.Carts.GetOrCreate(ctx, q, u.ID); err != nil {
				return fmt.Errorf("ensure cart for %s: %w", us.Email, err)
			}
			if created {
				logger.Info("seed.user_created", zap.String("email", u.Email), zap.Bool("staff", u.IsStaff))
			}
			if us.Username == "seller" {
				sellerID = u.ID
			}
		}

		for _, ps := range demoProducts {
			cat, err := stores.Categories.GetOrCreate(ctx, q, ps.Category)
			if err != nil {
				return fmt.Errorf("ensure category %s: %w", ps.Category, err)
			}
			if _, err := stores.Products.Upsert(ctx, q, domain.Product{
				SellerID:    sellerID,
				CategoryID:  &cat.ID,
				Name:        ps.Name,
				Description: ps.Description,
				Price:       decimal.RequireFromString(ps.Price),
				Quantity:    ps.Quantity,
			}); err != nil {
				return fmt.Errorf("upsert product %s: %w", ps.Name, err)
			}
		}
		logger.Info("seed.applied", zap.Int("users", len(demoUsers)), zap.Int("products", len(demoProducts)))
		return nil
	})
}

func ensureUser(ctx context.Context, q db.Querier, users UserStore, us userSeed, hash string) (*domain.User, bool, error) {
	existing, err := users.GetByEmail(ctx, q, us.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}
	u, err := users.Create(ctx, q, domain.User{
		Email:        us.Email,
		Username:     us.Username,
		FirstName:    us.First,
		LastName:     us.Last,
		PasswordHash: hash,
		IsStaff:      us.Staff,
		IsActive:     true,
	})
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}
