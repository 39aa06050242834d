package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/observability"
	tokenrepo "storefront/internal/repository/token"
	userrepo "storefront/internal/repository/user"
	"storefront/internal/service"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = domain.Unauthorized("invalid credentials")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = domain.Unauthorized("invalid or expired token")
)

// cartProvisioner creates the cart that every user owns.
type cartProvisioner interface {
	GetOrCreate(ctx context.Context, q db.Querier, userID string) (*domain.Cart, error)
}

// Options tunes token lifetimes and signing.
type Options struct {
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Service handles registration, login and token refresh.
type Service struct {
	runner      db.Runner
	repo        userrepo.Repository
	carts       cartProvisioner
	tokens      *tokenManager
	accessTTL   time.Duration
	refreshTTL  time.Duration
	passwordMin int
	logger      *zap.Logger
}

// New creates a Service with sane defaults for zero options.
func New(runner db.Runner, repo userrepo.Repository, tokens tokenrepo.Repository, carts cartProvisioner, opts Options, logger *zap.Logger) *Service {
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 15 * time.Minute
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 7 * 24 * time.Hour
	}
	return &Service{
		runner:      runner,
		repo:        repo,
		carts:       carts,
		tokens:      newTokenManager(tokens, opts.JWTSecret),
		accessTTL:   opts.AccessTTL,
		refreshTTL:  opts.RefreshTTL,
		passwordMin: 8,
		logger:      observability.OrNop(logger).Named("user_service"),
	}
}

// RegisterInput captures fields expected by the registration endpoint.
type RegisterInput struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Session is the token pair handed out on login.
type Session struct {
	User         domain.User
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// Register creates the user and, in the same transaction, the user's cart.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" {
		return nil, domain.FieldError("email", "required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.FieldError("email", "invalid email address")
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, domain.FieldError("username", "required")
	}
	password := strings.TrimSpace(in.Password)
	if err := validatePassword(password, s.passwordMin); err != nil {
		return nil, domain.FieldError("password", err.Error())
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, service.Guard(s.logger, "user.register", err)
	}

	var created *domain.User
	err = s.runner.InTx(ctx, func(q db.Querier) error {
		u, err := s.repo.Create(ctx, q, domain.User{
			Email:        email,
			Username:     username,
			FirstName:    strings.TrimSpace(in.FirstName),
			LastName:     strings.TrimSpace(in.LastName),
			PasswordHash: string(hashed),
			IsActive:     true,
		})
		if err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return domain.Conflict("a user with this email or username already exists")
			}
			return err
		}
		if _, err := s.carts.GetOrCreate(ctx, q, u.ID); err != nil {
			return fmt.Errorf("provision cart: %w", err)
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, service.Guard(s.logger, "user.register", err)
	}
	s.logger.Info("user registered", zap.String("user_id", created.ID))
	return created, nil
}

// Login validates credentials and returns issued tokens plus the user.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	password = strings.TrimSpace(password)
	u, err := s.repo.GetByEmail(ctx, s.runner.Querier(), strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, service.Guard(s.logger, "user.login", err)
	}
	if !u.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	access, err := s.tokens.IssueAccess(*u, s.accessTTL)
	if err != nil {
		return nil, service.Guard(s.logger, "user.login", err)
	}
	refresh, err := s.tokens.IssueRefresh(ctx, s.runner.Querier(), u.ID, s.refreshTTL)
	if err != nil {
		return nil, service.Guard(s.logger, "user.login", err)
	}
	return &Session{User: *u, AccessToken: access, RefreshToken: refresh, ExpiresIn: s.AccessTTLSeconds()}, nil
}

// Refresh exchanges a live refresh token for a new access token.
func (s *Service) Refresh(ctx context.Context, refresh string) (*Session, error) {
	q := s.runner.Querier()
	userID, ok := s.tokens.ValidateRefresh(ctx, q, refresh)
	if !ok {
		return nil, ErrInvalidToken
	}
	u, err := s.repo.GetByID(ctx, q, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, service.Guard(s.logger, "user.refresh", err)
	}
	access, err := s.tokens.IssueAccess(*u, s.accessTTL)
	if err != nil {
		return nil, service.Guard(s.logger, "user.refresh", err)
	}
	return &Session{User: *u, AccessToken: access, RefreshToken: refresh, ExpiresIn: s.AccessTTLSeconds()}, nil
}

// Logout revokes the refresh token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, refresh string) error {
	err := s.tokens.Revoke(ctx, s.runner.Querier(), refresh)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return service.Guard(s.logger, "user.logout", err)
	}
	return nil
}

// Authenticate resolves an access token to the acting principal.
func (s *Service) Authenticate(_ context.Context, access string) (domain.Actor, error) {
	return s.tokens.ParseAccess(access)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.repo.GetByID(ctx, s.runner.Querier(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("user")
		}
		return nil, service.Guard(s.logger, "user.get", err)
	}
	return u, nil
}

// AccessTTLSeconds exposes the access token lifetime in seconds.
func (s *Service) AccessTTLSeconds() int {
	return int(s.accessTTL.Seconds())
}

func validatePassword(p string, min int) error {
	if len(p) < min {
		return fmt.Errorf("password must be at least %d characters", min)
	}
	hasUpper := false
	hasLower := false
	hasDigit := false
	for _, r := range p {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return errors.New("password must contain at least 1 uppercase letter, 1 lowercase letter, and 1 number")
	}
	return nil
}
