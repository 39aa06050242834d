package httpserver

import (
	"context"
	"time"

	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
	cartsvc "storefront/internal/service/cart"
	checkoutsvc "storefront/internal/service/checkout"
	paymentsvc "storefront/internal/service/payment"
	productsvc "storefront/internal/service/product"
	usersvc "storefront/internal/service/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// Authenticator resolves an access token to the acting principal.
type Authenticator interface {
	Authenticate(ctx context.Context, access string) (domain.Actor, error)
}

type AuthService interface {
	Authenticator
	Register(ctx context.Context, in usersvc.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*usersvc.Session, error)
	Refresh(ctx context.Context, refresh string) (*usersvc.Session, error)
	Logout(ctx context.Context, refresh string) error
	Get(ctx context.Context, id string) (*domain.User, error)
}

type CategoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
	Create(ctx context.Context, actor domain.Actor, name string) (*domain.Category, error)
}

type ProductService interface {
	List(ctx context.Context, f productrepo.ListFilter) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, actor domain.Actor, in productsvc.CreateInput) (*domain.Product, error)
	Update(ctx context.Context, actor domain.Actor, id string, in productsvc.UpdateInput) (*domain.Product, error)
	Delete(ctx context.Context, actor domain.Actor, id string) error
}

type CartService interface {
	Get(ctx context.Context, actor domain.Actor) (*domain.Cart, error)
	AddItem(ctx context.Context, actor domain.Actor, in cartsvc.AddItemInput) (*domain.CartItem, error)
	UpdateItem(ctx context.Context, actor domain.Actor, itemID string, quantity int) (*domain.CartItem, error)
	RemoveItem(ctx context.Context, actor domain.Actor, itemID string) error
}

type OrderService interface {
	CreateFromCart(ctx context.Context, actor domain.Actor) (*domain.Order, error)
	List(ctx context.Context, actor domain.Actor, status string) ([]domain.Order, error)
	Get(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error)
	Cancel(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error)
	Delete(ctx context.Context, actor domain.Actor, id string) error
}

type CheckoutService interface {
	Get(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error)
	Update(ctx context.Context, actor domain.Actor, orderID string, in checkoutsvc.UpdateInput) (*domain.Order, error)
}

type PaymentService interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*paymentsvc.Result, error)
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the router dispatches to.
type Deps struct {
	Auth       AuthService
	Categories CategoryService
	Products   ProductService
	Carts      CartService
	Orders     OrderService
	Checkout   CheckoutService
	Payments   PaymentService
}

// Options tune the router's cross-cutting behaviour.
type Options struct {
	ServiceName    string
	CORSOrigins    []string
	AuthCookieName string
	SecureCookies  bool
}

type handlers struct {
	deps   Deps
	opts   Options
	logger *zap.Logger
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db Pinger, deps Deps, opts Options) *gin.Engine {
	if opts.ServiceName == "" {
		opts.ServiceName = "storefront-api"
	}
	router := gin.New()
	router.Use(
		requestIDMiddleware(),
		recovery(logger),
		otelgin.Middleware(opts.ServiceName),
		accessLog(logger),
	)
	if len(opts.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", headerRequestID},
			ExposeHeaders:    []string{headerRequestID},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{deps: deps, opts: opts, logger: logger}
	api := router.Group("/api")
	api.POST("/payment/webhook", h.paymentWebhook)

	api.Use(authenticate(deps.Auth, opts.AuthCookieName))
	authed := requireActor()

	auth := api.Group("/auth")
	auth.POST("/register", h.register)
	auth.POST("/login", h.login)
	auth.POST("/refresh", h.refresh)
	auth.POST("/logout", h.logout)
	auth.GET("/me", authed, h.me)

	api.GET("/categories", h.listCategories)
	api.POST("/categories", authed, h.createCategory)

	api.GET("/products", h.listProducts)
	productID := uuidParam("id", "product")
	api.GET("/products/:id", productID, h.getProduct)
	api.POST("/products", authed, h.createProduct)
	api.PATCH("/products/:id", authed, productID, h.updateProduct)
	api.DELETE("/products/:id", authed, productID, h.deleteProduct)

	cart := api.Group("/cart", authed)
	cart.GET("", h.getCart)
	cart.POST("/items", h.addCartItem)
	itemID := uuidParam("itemId", "cart item")
	cart.PATCH("/items/:itemId", itemID, h.updateCartItem)
	cart.DELETE("/items/:itemId", itemID, h.removeCartItem)

	orders := api.Group("/orders", authed)
	orders.GET("", h.listOrders)
	orders.POST("", h.createOrder)
	orderID := uuidParam("id", "order")
	orders.GET("/:id", orderID, h.getOrder)
	orders.DELETE("/:id", orderID, h.deleteOrder)
	orders.DELETE("/:id/cancel", orderID, h.cancelOrder)

	checkout := api.Group("/checkout", authed, orderID)
	checkout.GET("/:id", h.getCheckout)
	checkout.PATCH("/:id", h.updateCheckout)
	checkout.PUT("/:id", h.updateCheckout)

	return router
}
