package memory

import (
	"context"
	"strings"
	"time"

	"storefront/internal/db"
	"storefront/internal/domain"
	tokenrepo "storefront/internal/repository/token"
	userrepo "storefront/internal/repository/user"
)

type Users struct{ s *Store }

func (s *Store) Users() *Users { return &Users{s: s} }

var _ userrepo.Repository = (*Users)(nil)

func (r *Users) Create(_ context.Context, _ db.Querier, u domain.User) (*domain.User, error) {
	unlock, err := r.s.begin("users.Create")
	if err != nil {
		return nil, err
	}
	defer unlock()
	u.Email = strings.ToLower(u.Email)
	for _, existing := range r.s.st.users {
		if existing.Email == u.Email || strings.EqualFold(existing.Username, u.Username) {
			return nil, domain.ErrAlreadyExists
		}
	}
	u.ID = newID()
	u.CreatedAt = r.s.now()
	r.s.st.users[u.ID] = u
	return &u, nil
}

func (r *Users) GetByEmail(_ context.Context, _ db.Querier, email string) (*domain.User, error) {
	unlock, err := r.s.begin("users.GetByEmail")
	if err != nil {
		return nil, err
	}
	defer unlock()
	for _, u := range r.s.st.users {
		if strings.EqualFold(u.Email, email) {
			out := u
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *Users) GetByID(_ context.Context, _ db.Querier, id string) (*domain.User, error) {
	unlock, err := r.s.begin("users.GetByID")
	if err != nil {
		return nil, err
	}
	defer unlock()
	u, ok := r.s.st.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

type Tokens struct{ s *Store }

func (s *Store) Tokens() *Tokens { return &Tokens{s: s} }

var _ tokenrepo.Repository = (*Tokens)(nil)

func (r *Tokens) Create(_ context.Context, _ db.Querier, t tokenrepo.Token) error {
	unlock, err := r.s.begin("tokens.Create")
	if err != nil {
		return err
	}
	defer unlock()
	if _, exists := r.s.st.tokens[t.Token]; exists {
		return domain.ErrAlreadyExists
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	r.s.st.tokens[t.Token] = t
	return nil
}

func (r *Tokens) Get(_ context.Context, _ db.Querier, token string) (*tokenrepo.Token, error) {
	unlock, err := r.s.begin("tokens.Get")
	if err != nil {
		return nil, err
	}
	defer unlock()
	t, ok := r.s.st.tokens[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (r *Tokens) Delete(_ context.Context, _ db.Querier, token string) error {
	unlock, err := r.s.begin("tokens.Delete")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := r.s.st.tokens[token]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.st.tokens, token)
	return nil
}
