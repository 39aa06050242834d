package user

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"storefront/internal/db"
	"storefront/internal/domain"
	tokenrepo "storefront/internal/repository/token"

	"github.com/golang-jwt/jwt/v4"
)

const issuer = "storefront"

// accessClaims is the JWT body of an access token.
type accessClaims struct {
	Staff bool `json:"staff"`
	jwt.RegisteredClaims
}

// tokenManager signs short-lived access JWTs and stores opaque refresh
// tokens. Deleting a refresh token revokes it.
type tokenManager struct {
	repo   tokenrepo.Repository
	secret []byte
	now    func() time.Time
}

func newTokenManager(repo tokenrepo.Repository, secret string) *tokenManager {
	return &tokenManager{
		repo:   repo,
		secret: []byte(secret),
		now:    time.Now,
	}
}

func (m *tokenManager) IssueAccess(u domain.User, ttl time.Duration) (string, error) {
	now := m.now()
	claims := accessClaims{
		Staff: u.IsStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *tokenManager) ParseAccess(raw string) (domain.Actor, error) {
	var claims accessClaims
	parsed, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return domain.Actor{}, ErrInvalidToken
	}
	if claims.Subject == "" || !claims.VerifyIssuer(issuer, true) {
		return domain.Actor{}, ErrInvalidToken
	}
	return domain.Actor{UserID: claims.Subject, IsStaff: claims.Staff}, nil
}

func (m *tokenManager) IssueRefresh(ctx context.Context, q db.Querier, userID string, ttl time.Duration) (string, error) {
	expiresAt := m.now().Add(ttl)
	for i := 0; i < 5; i++ {
		token, err := randomToken()
		if err != nil {
			return "", err
		}
		err = m.repo.Create(ctx, q, tokenrepo.Token{
			Token:     token,
			UserID:    userID,
			Kind:      tokenrepo.KindRefresh,
			ExpiresAt: expiresAt,
		})
		if err == nil {
			return token, nil
		}
		if errors.Is(err, domain.ErrAlreadyExists) {
			continue
		}
		return "", err
	}
	return "", errors.New("token collision")
}

// ValidateRefresh returns the owning user id of a live refresh token.
// Expired tokens are deleted on sight.
func (m *tokenManager) ValidateRefresh(ctx context.Context, q db.Querier, token string) (string, bool) {
	meta, err := m.repo.Get(ctx, q, token)
	if err != nil {
		return "", false
	}
	if meta.Kind != tokenrepo.KindRefresh {
		return "", false
	}
	if m.now().After(meta.ExpiresAt) {
		_ = m.repo.Delete(ctx, q, token)
		return "", false
	}
	return meta.UserID, true
}

func (m *tokenManager) Revoke(ctx context.Context, q db.Querier, token string) error {
	return m.repo.Delete(ctx, q, token)
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
