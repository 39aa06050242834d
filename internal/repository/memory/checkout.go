package memory

import (
	"context"

	"storefront/internal/db"
	"storefront/internal/domain"
	addressrepo "storefront/internal/repository/address"
	paymentrepo "storefront/internal/repository/payment"
)

type Addresses struct{ s *Store }

func (s *Store) Addresses() *Addresses { return &Addresses{s: s} }

var _ addressrepo.Repository = (*Addresses)(nil)

func (r *Addresses) Get(_ context.Context, _ db.Querier, id string) (*domain.Address, error) {
	unlock, err := r.s.begin("addresses.Get")
	if err != nil {
		return nil, err
	}
	defer unlock()
	a, ok := r.s.st.addresses[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (r *Addresses) Create(_ context.Context, _ db.Querier, a domain.Address) (*domain.Address, error) {
	unlock, err := r.s.begin("addresses.Create")
	if err != nil {
		return nil, err
	}
	defer unlock()
	a.ID = newID()
	a.CreatedAt = r.s.now()
	a.UpdatedAt = a.CreatedAt
	r.s.st.addresses[a.ID] = a
	return &a, nil
}

func (r *Addresses) Update(_ context.Context, _ db.Querier, a domain.Address) (*domain.Address, error) {
	unlock, err := r.s.begin("addresses.Update")
	if err != nil {
		return nil, err
	}
	defer unlock()
	existing, ok := r.s.st.addresses[a.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	existing.Country = a.Country
	existing.City = a.City
	existing.StreetAddress = a.StreetAddress
	existing.ApartmentAddress = a.ApartmentAddress
	existing.PostalCode = a.PostalCode
	existing.UpdatedAt = r.s.now()
	r.s.st.addresses[a.ID] = existing
	return &existing, nil
}

type Payments struct{ s *Store }

func (s *Store) Payments() *Payments { return &Payments{s: s} }

var _ paymentrepo.Repository = (*Payments)(nil)

func (r *Payments) GetByOrder(_ context.Context, _ db.Querier, orderID string) (*domain.Payment, error) {
	unlock, err := r.s.begin("payments.GetByOrder")
	if err != nil {
		return nil, err
	}
	defer unlock()
	for _, p := range r.s.st.payments {
		if p.OrderID == orderID {
			out := p
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *Payments) Create(_ context.Context, _ db.Querier, orderID string, method domain.PaymentMethod) (*domain.Payment, error) {
	unlock, err := r.s.begin("payments.Create")
	if err != nil {
		return nil, err
	}
	defer unlock()
	for _, p := range r.s.st.payments {
		if p.OrderID == orderID {
			return nil, domain.ErrAlreadyExists
		}
	}
	now := r.s.now()
	p := domain.Payment{ID: newID(), OrderID: orderID, Method: method, Status: domain.PaymentPending, CreatedAt: now, UpdatedAt: now}
	r.s.st.payments[p.ID] = p
	return &p, nil
}

func (r *Payments) UpdateMethod(_ context.Context, _ db.Querier, id string, method domain.PaymentMethod) (*domain.Payment, error) {
	unlock, err := r.s.begin("payments.UpdateMethod")
	if err != nil {
		return nil, err
	}
	defer unlock()
	p, ok := r.s.st.payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.Method = method
	p.UpdatedAt = r.s.now()
	r.s.st.payments[id] = p
	return &p, nil
}

func (r *Payments) MarkCompleted(_ context.Context, _ db.Querier, id string) (bool, error) {
	unlock, err := r.s.begin("payments.MarkCompleted")
	if err != nil {
		return false, err
	}
	defer unlock()
	p, ok := r.s.st.payments[id]
	if !ok || p.Status != domain.PaymentPending {
		return false, nil
	}
	p.Status = domain.PaymentCompleted
	p.UpdatedAt = r.s.now()
	r.s.st.payments[id] = p
	return true, nil
}
