package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository/memory"

	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	svc := New(store, store.Users(), store.Tokens(), store.Carts(), Options{JWTSecret: "test-secret"}, nil)
	return svc, store
}

func register(t *testing.T, svc *Service) *domain.User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterInput{
		Email:    "Ada@Example.com",
		Username: "ada",
		Password: "Secret123",
	})
	require.NoError(t, err)
	return u
}

func TestRegisterCreatesUserAndCart(t *testing.T) {
	svc, store := newTestService(t)
	u := register(t, svc)
	require.Equal(t, "ada@example.com", u.Email)
	require.NotEqual(t, "Secret123", u.PasswordHash)

	items, err := store.Carts().ListItems(context.Background(), nil, u.ID)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	cases := []RegisterInput{
		{Username: "a", Password: "Secret123"},
		{Email: "not-an-email", Username: "a", Password: "Secret123"},
		{Email: "a@example.com", Password: "Secret123"},
		{Email: "a@example.com", Username: "a", Password: "short"},
		{Email: "a@example.com", Username: "a", Password: "alllowercase1"},
	}
	for _, in := range cases {
		_, err := svc.Register(context.Background(), in)
		require.Equal(t, domain.KindValidation, domain.KindOf(err), "%+v", in)
	}
}

func TestRegisterDuplicateIsConflict(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc)
	_, err := svc.Register(context.Background(), RegisterInput{
		Email: "ada@example.com", Username: "other", Password: "Secret123",
	})
	require.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestRegisterRollsBackWhenCartFails(t *testing.T) {
	svc, store := newTestService(t)
	store.FailOn("carts.GetOrCreate", errors.New("connection reset"))

	_, err := svc.Register(context.Background(), RegisterInput{
		Email: "ada@example.com", Username: "ada", Password: "Secret123",
	})
	require.Equal(t, domain.KindInternal, domain.KindOf(err))

	_, err = store.Users().GetByEmail(context.Background(), nil, "ada@example.com")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLoginAuthenticateRefreshLogout(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	u := register(t, svc)

	sess, err := svc.Login(ctx, "ada@example.com", "Secret123")
	require.NoError(t, err)
	require.NotEmpty(t, sess.AccessToken)
	require.NotEmpty(t, sess.RefreshToken)
	require.Equal(t, 900, sess.ExpiresIn)

	actor, err := svc.Authenticate(ctx, sess.AccessToken)
	require.NoError(t, err)
	require.Equal(t, u.ID, actor.UserID)
	require.False(t, actor.IsStaff)

	refreshed, err := svc.Refresh(ctx, sess.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.AccessToken)

	require.NoError(t, svc.Logout(ctx, sess.RefreshToken))
	_, err = svc.Refresh(ctx, sess.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc)
	_, err := svc.Login(context.Background(), "ada@example.com", "Wrong1234")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "nobody@example.com", "Secret123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateRejectsForeignAndExpiredTokens(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	u := register(t, svc)

	other := New(store, store.Users(), store.Tokens(), store.Carts(), Options{JWTSecret: "other-secret"}, nil)
	foreign, err := other.tokens.IssueAccess(*u, time.Minute)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, foreign)
	require.ErrorIs(t, err, ErrInvalidToken)

	expired, err := svc.tokens.IssueAccess(*u, -time.Minute)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, expired)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Authenticate(ctx, "garbage")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshExpiredTokenIsRemoved(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	u := register(t, svc)

	token, err := svc.tokens.IssueRefresh(ctx, nil, u.ID, -time.Hour)
	require.NoError(t, err)
	_, err = svc.Refresh(ctx, token)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = store.Tokens().Get(ctx, nil, token)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
