package memory

import (
	"context"
	"sort"
	"strings"

	"storefront/internal/db"
	"storefront/internal/domain"
	categoryrepo "storefront/internal/repository/category"
	productrepo "storefront/internal/repository/product"
)

type Categories struct{ s *Store }

func (s *Store) Categories() *Categories { return &Categories{s: s} }

var _ categoryrepo.Repository = (*Categories)(nil)

func (r *Categories) List(_ context.Context, _ db.Querier) ([]domain.Category, error) {
	unlock, err := r.s.begin("categories.List")
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := make([]domain.Category, 0, len(r.s.st.categories))
	for _, c := range r.s.st.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Categories) Create(_ context.Context, _ db.Querier, name string) (*domain.Category, error) {
	unlock, err := r.s.begin("categories.Create")
	if err != nil {
		return nil, err
	}
	defer unlock()
	if _, ok := r.s.findCategory(name); ok {
		return nil, domain.ErrAlreadyExists
	}
	c := r.s.insertCategory(name)
	return &c, nil
}

func (r *Categories) GetOrCreate(_ context.Context, _ db.Querier, name string) (*domain.Category, error) {
	unlock, err := r.s.begin("categories.GetOrCreate")
	if err != nil {
		return nil, err
	}
	defer unlock()
	if c, ok := r.s.findCategory(name); ok {
		return &c, nil
	}
	c := r.s.insertCategory(name)
	return &c, nil
}

func (s *Store) findCategory(name string) (domain.Category, bool) {
	for _, c := range s.st.categories {
		if c.Name == name {
			return c, true
		}
	}
	return domain.Category{}, false
}

func (s *Store) insertCategory(name string) domain.Category {
	c := domain.Category{ID: newID(), Name: name, CreatedAt: s.now()}
	s.st.categories[c.ID] = c
	return c
}

type Products struct{ s *Store }

func (s *Store) Products() *Products { return &Products{s: s} }

var _ productrepo.Repository = (*Products)(nil)

func (r *Products) List(_ context.Context, _ db.Querier, f productrepo.ListFilter) ([]domain.Product, error) {
	unlock, err := r.s.begin("products.List")
	if err != nil {
		return nil, err
	}
	defer unlock()
	var out []domain.Product
	for _, p := range r.s.st.products {
		p = r.s.withCategory(p)
		if f.Category != "" && !strings.EqualFold(p.CategoryName, f.Category) {
			continue
		}
		if f.SellerID != "" && p.SellerID != f.SellerID {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		end := f.Offset + f.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[f.Offset:end]
	}
	return out, nil
}

func (r *Products) Get(_ context.Context, _ db.Querier, id string) (*domain.Product, error) {
	unlock, err := r.s.begin("products.Get")
	if err != nil {
		return nil, err
	}
	defer unlock()
	p, ok := r.s.st.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p = r.s.withCategory(p)
	return &p, nil
}

func (r *Products) Create(_ context.Context, _ db.Querier, p domain.Product) (*domain.Product, error) {
	unlock, err := r.s.begin("products.Create")
	if err != nil {
		return nil, err
	}
	defer unlock()
	if _, dup := r.s.productBySellerName(p.SellerID, p.Name); dup {
		return nil, domain.ErrAlreadyExists
	}
	p.ID = newID()
	p.CreatedAt = r.s.now()
	p.UpdatedAt = p.CreatedAt
	r.s.st.products[p.ID] = p
	p = r.s.withCategory(p)
	return &p, nil
}

func (r *Products) Update(_ context.Context, _ db.Querier, p domain.Product) (*domain.Product, error) {
	unlock, err := r.s.begin("products.Update")
	if err != nil {
		return nil, err
	}
	defer unlock()
	existing, ok := r.s.st.products[p.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if other, dup := r.s.productBySellerName(existing.SellerID, p.Name); dup && other.ID != p.ID {
		return nil, domain.ErrAlreadyExists
	}
	existing.CategoryID = p.CategoryID
	existing.Name = p.Name
	existing.Description = p.Description
	existing.Price = p.Price
	existing.Quantity = p.Quantity
	existing.UpdatedAt = r.s.now()
	r.s.st.products[p.ID] = existing
	existing = r.s.withCategory(existing)
	return &existing, nil
}

func (r *Products) Delete(_ context.Context, _ db.Querier, id string) error {
	unlock, err := r.s.begin("products.Delete")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := r.s.st.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.st.products, id)
	for k, it := range r.s.st.cartItems {
		if it.ProductID == id {
			delete(r.s.st.cartItems, k)
		}
	}
	for k, it := range r.s.st.orderItems {
		if it.ProductID == id {
			delete(r.s.st.orderItems, k)
		}
	}
	return nil
}

func (r *Products) Upsert(ctx context.Context, q db.Querier, p domain.Product) (*domain.Product, error) {
	r.s.mu.Lock()
	existing, ok := r.s.productBySellerName(p.SellerID, p.Name)
	r.s.mu.Unlock()
	if !ok {
		return r.Create(ctx, q, p)
	}
	p.ID = existing.ID
	return r.Update(ctx, q, p)
}

func (r *Products) DecrementStock(_ context.Context, _ db.Querier, id string, qty int) error {
	unlock, err := r.s.begin("products.DecrementStock")
	if err != nil {
		return err
	}
	defer unlock()
	p, ok := r.s.st.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Quantity -= qty
	p.UpdatedAt = r.s.now()
	r.s.st.products[id] = p
	return nil
}

func (s *Store) productBySellerName(sellerID, name string) (domain.Product, bool) {
	for _, p := range s.st.products {
		if p.SellerID == sellerID && p.Name == name {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (s *Store) withCategory(p domain.Product) domain.Product {
	p.CategoryName = ""
	if p.CategoryID != nil {
		if c, ok := s.st.categories[*p.CategoryID]; ok {
			p.CategoryName = c.Name
		}
	}
	return p
}
